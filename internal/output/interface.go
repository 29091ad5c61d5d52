package output

import (
	"fmt"
	"io"

	bsimv1 "github.com/onai/SMTexperiments/api/v1"
)

type ParameterOutputFunc func(bsimv1.Parameter, io.Writer) error

func (fn ParameterOutputFunc) OutputParam(par bsimv1.Parameter, w io.Writer) error {
	return fn(par, w)
}

type ParameterOutput interface {
	OutputParam(bsimv1.Parameter, io.Writer) error
}

// New returns the outputter for a format name ("text" or "json").
func New(format string, pretty bool) (ParameterOutput, error) {
	switch format {
	case "text", "":
		return &TextOutput{}, nil
	case "json":
		return &JsonOutput{Pretty: pretty}, nil
	default:
		return nil, fmt.Errorf("unknown output format: %v", format)
	}
}
