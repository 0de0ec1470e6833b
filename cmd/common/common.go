package common

import (
	"errors"
	"fmt"
	"os"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/crossfader/cmd/engine/errs"
)

func DefaultParamEnricher() boa.ParamEnricher {
	return boa.ParamEnricherCombine(
		boa.ParamEnricherBool,
		boa.ParamEnricherName,
		boa.ParamEnricherShort,
	)
}

// ExitOnError prints err without its kind prefix and exits with ExitCode.
func ExitOnError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %s\n", errs.Message(err))
	os.Exit(ExitCode(err))
}

// ExitCode is 2 for rejected input and 1 for any other failure.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errs.ErrValidation), errors.Is(err, errs.ErrImportFormat):
		return 2
	default:
		return 1
	}
}
