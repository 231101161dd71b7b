package app

import (
	"errors"
	"fmt"

	"github.com/hausmates/hcal/internal/contract"
)

// AppError ties an error to the process exit code a command decided on.
// Printed marks errors that already went through the envelope printer,
// so the top-level handler does not report them twice.
type AppError struct {
	Code    int
	Err     error
	Printed bool
}

func (e AppError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit code %d", e.Code)
	}
	return e.Err.Error()
}

func Wrap(code int, err error) error {
	if err == nil {
		return nil
	}
	return AppError{Code: code, Err: err}
}

func WrapPrinted(code int, err error) error {
	if err == nil {
		return nil
	}
	return AppError{Code: code, Err: err, Printed: true}
}

func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var e AppError
	if errors.As(err, &e) {
		return e.Code
	}
	return 1
}

// errorCodeForExit is the reverse mapping, used when only the exit code
// survives to the top-level handler: 2 usage, 3 validation, 4 not
// found, 5 remote rejection, 6 transport failure.
func errorCodeForExit(code int) contract.ErrorCode {
	switch code {
	case 2:
		return contract.ErrUsage
	case 3:
		return contract.ErrValidation
	case 4:
		return contract.ErrNotFound
	case 5:
		return contract.ErrRemote
	case 6:
		return contract.ErrTransport
	default:
		return contract.ErrGeneric
	}
}
