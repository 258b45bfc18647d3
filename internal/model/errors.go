package model

import (
	"encoding/json"
	"errors"
	"io/fs"

	"github.com/termfx/errers/internal/document"
	"github.com/termfx/errers/internal/engine"
)

// Sentinel errors for programmatic checking.
var (
	ErrWriteFile = errors.New("failed to write output")
	ErrConfig    = errors.New("invalid configuration")
)

// ErrorCode provides a machine-readable error type for JSON output.
type ErrorCode string

const (
	ECNone         ErrorCode = ""
	ECEncoding     ErrorCode = "ERR_ENCODING"
	ECRegex        ErrorCode = "ERR_REGEX"
	ECBacktracking ErrorCode = "ERR_BACKTRACKING"
	ECInterrupted  ErrorCode = "ERR_INTERRUPTED"
	ECReadError    ErrorCode = "ERR_READ_FILE"
	ECWriteError   ErrorCode = "ERR_WRITE_FILE"
	ECConfigError  ErrorCode = "ERR_CONFIG"
	ECUnknown      ErrorCode = "ERR_UNKNOWN"
)

// Classify maps an extraction error onto its code. Order matters: a
// backtracking error is also a regular expression error.
func Classify(err error) ErrorCode {
	var (
		encErr  *document.EncodingError
		catErr  *engine.CatastrophicBacktracking
		cliErr  CLIError
		pathErr *fs.PathError
	)
	switch {
	case err == nil:
		return ECNone
	case errors.As(err, &cliErr):
		return cliErr.Code
	case errors.Is(err, engine.ErrInterrupted):
		return ECInterrupted
	case errors.As(err, &encErr):
		return ECEncoding
	case errors.As(err, &catErr):
		return ECBacktracking
	case errors.Is(err, engine.ErrRegularExpression):
		return ECRegex
	case errors.Is(err, ErrConfig):
		return ECConfigError
	case errors.Is(err, ErrWriteFile):
		return ECWriteError
	case errors.As(err, &pathErr):
		return ECReadError
	default:
		return ECUnknown
	}
}

// CLIError is the error shape printed by the command line.
type CLIError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Detail  string    `json:"detail,omitempty"`
}

func (e CLIError) Error() string {
	if e.Detail != "" {
		return e.Message + ": " + e.Detail
	}
	return e.Message
}

func (e CLIError) JSON() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// Wrap builds a CLIError from err, classifying it.
func Wrap(msg string, err error) CLIError {
	return CLIError{Code: Classify(err), Message: msg, Detail: err.Error()}
}
