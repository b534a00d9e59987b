package importer

import (
	"io"

	"github.com/MrJamesThe3rd/privcap/internal/investment"
)

type Format string

const (
	FormatStatement Format = "statement"
)

type Parser interface {
	Parse(r io.Reader) ([]investment.ActivityParams, error)
}
