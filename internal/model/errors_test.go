package model

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/termfx/errers/internal/document"
	"github.com/termfx/errers/internal/engine"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"nil", nil, ECNone},
		{"interrupted", fmt.Errorf("run: %w", engine.ErrInterrupted), ECInterrupted},
		{"encoding", &document.EncodingError{File: "a.tex", Err: errors.New("bad byte")}, ECEncoding},
		{"backtracking", &engine.CatastrophicBacktracking{Kind: "rule", Err: errors.New("timeout")}, ECBacktracking},
		{"pattern", &engine.PatternCompileError{Err: errors.New("missing )")}, ECRegex},
		{"config", fmt.Errorf("%w: bad backend", ErrConfig), ECConfigError},
		{"write", fmt.Errorf("%w: disk full", ErrWriteFile), ECWriteError},
		{"read", &fs.PathError{Op: "open", Path: "x.tex", Err: fs.ErrNotExist}, ECReadError},
		{"cli error", CLIError{Code: ECRegex, Message: "x"}, ECRegex},
		{"other", errors.New("boom"), ECUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestCLIError(t *testing.T) {
	err := Wrap("extraction failed", fmt.Errorf("%w: x", ErrConfig))
	assert.Equal(t, ECConfigError, err.Code)
	assert.Equal(t, "extraction failed: invalid configuration: x", err.Error())
	assert.JSONEq(t, `{"code":"ERR_CONFIG","message":"extraction failed","detail":"invalid configuration: x"}`, err.JSON())

	assert.Equal(t, "plain", CLIError{Message: "plain"}.Error())
}

func TestResultFail(t *testing.T) {
	r := Result{File: "a.tex", Success: true}
	r.Fail(engine.ErrInterrupted)
	assert.False(t, r.Success)
	assert.Equal(t, ECInterrupted, r.ErrorCode)
	assert.Equal(t, engine.ErrInterrupted.Error(), r.Error)
}
