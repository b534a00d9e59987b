package importer_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/privcap/internal/importer"
	"github.com/MrJamesThe3rd/privcap/internal/investment"
)

func TestService_Import(t *testing.T) {
	csv := "Date;Description;Amount\n2025-01-15;Call notice;-1.000,00\n"

	tests := []struct {
		name    string
		format  importer.Format
		wantErr bool
	}{
		{name: "Statement", format: importer.FormatStatement},
		{name: "DefaultFormat", format: ""},
		{name: "UnknownFormat", format: "ofx", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, err := importer.NewService().Import(tt.format, strings.NewReader(csv))
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.Len(t, params, 1)
			assert.Equal(t, investment.ActivityCapitalCall, params[0].Type)
		})
	}
}
