package model

import "time"

// Result holds the outcome of extracting a single document.
type Result struct {
	File          string         `json:"file"`
	RunID         string         `json:"run_id,omitempty"`
	Output        string         `json:"output,omitempty"`
	Report        string         `json:"report,omitempty"`
	Success       bool           `json:"success"`
	InputBytes    int            `json:"input_bytes"`
	OutputBytes   int            `json:"output_bytes"`
	Leftovers     map[string]int `json:"leftovers,omitempty"`
	Duration      time.Duration  `json:"duration_ns"`
	Error         string         `json:"error,omitempty"`
	ErrorCode     ErrorCode      `json:"error_code,omitempty"`
	OriginalText  string         `json:"-"`
	ExtractedText string         `json:"-"`
}

// Fail records err on the result.
func (r *Result) Fail(err error) {
	r.Success = false
	r.Error = err.Error()
	r.ErrorCode = Classify(err)
}
