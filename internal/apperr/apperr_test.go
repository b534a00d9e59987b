package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/privcap/internal/apperr"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperr.Kind
	}{
		{name: "State", err: apperr.State("transfer is %s", "DRAFT"), want: apperr.KindState},
		{name: "Wrapped", err: fmt.Errorf("submit: %w", apperr.Authorization("not owner")), want: apperr.KindAuthorization},
		{name: "Plain", err: errors.New("boom"), want: apperr.KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apperr.KindOf(tt.err))
		})
	}
}

func TestErrorsIs(t *testing.T) {
	err := fmt.Errorf("get: %w", apperr.NotFound("investment %d not found", 7))

	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.NotErrorIs(t, err, apperr.ErrConflict)
}

func TestFromValidation(t *testing.T) {
	err := apperr.FromValidation(validation.Errors{
		"reason": errors.New("cannot be blank"),
		"amount": nil,
	})

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.KindValidation, appErr.Kind)
	assert.Equal(t, map[string]string{"reason": "cannot be blank"}, appErr.Fields)

	plain := errors.New("db down")
	assert.Same(t, plain, apperr.FromValidation(plain))
	assert.NoError(t, apperr.FromValidation(nil))
}
