package main

import (
	"encoding/json"
	"fmt"
	"io"
)

// Every tenantctl command reports as JSON lines on stdout: one line per table or row, then a
// summary line. Failures go to stderr in the same shape so a pipeline can parse either stream.

func writeJSONLine(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return withCode(exitDB, fmt.Errorf("json encode: %w", err))
	}
	return nil
}

type failureLine struct {
	Status string `json:"status"`
	Exit   int    `json:"exit"`
	Reason string `json:"reason"`
	Error  string `json:"error"`
}

// writeFailure reports err as the command's final line and returns the exit code to use.
func writeFailure(w io.Writer, err error) int {
	code := exitCode(err)
	line := failureLine{Status: "error", Exit: code, Reason: exitReason(code), Error: err.Error()}
	if werr := writeJSONLine(w, line); werr != nil {
		fmt.Fprintln(w, err.Error())
	}
	return code
}
