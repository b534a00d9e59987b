package importer

import (
	"fmt"
	"io"

	"github.com/MrJamesThe3rd/privcap/internal/importer/statement"
	"github.com/MrJamesThe3rd/privcap/internal/investment"
)

type Service struct {
	statementParser Parser
}

func NewService() *Service {
	return &Service{
		statementParser: statement.NewParser(),
	}
}

// Import parses r as the given format. An empty format means a capital statement.
func (s *Service) Import(format Format, r io.Reader) ([]investment.ActivityParams, error) {
	var parser Parser

	switch format {
	case FormatStatement, "":
		parser = s.statementParser
	default:
		return nil, fmt.Errorf("unknown import format: %s", format)
	}

	return parser.Parse(r)
}
