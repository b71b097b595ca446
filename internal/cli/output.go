package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/rbolet/every-player/internal/model"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // a write was rejected or a scenario failed
	ExitCommandError = 2 // bad arguments, unreadable database, invalid config
)

// ExitError carries the exit code of a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error

	// Reported is set once the command has written the failure itself, so
	// Execute does not render it again.
	Reported bool
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError returns an ExitError with no underlying cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError attaches an exit code and message to err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode maps err onto a process exit code. Engine rejections
// (validation, conflict and referential errors) exit with ExitFailure;
// anything else not wrapped in an ExitError is a command error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if model.Kind(err) != "" {
		return ExitFailure
	}
	return ExitCommandError
}

// CLIResponse is the envelope of every --format json document.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError is the error half of a CLIResponse. Details carry the engine's
// conflict or validation code and the ids involved.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// OutputFormatter writes command results as text or as one JSON document.
type OutputFormatter struct {
	Format  string
	Writer  io.Writer
	Verbose bool
}

// Success writes a command's result. Text output goes through fmt, so a
// view's String method decides its layout.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Fail writes err as the command's failure. Verbose text output adds the
// details one per line: the engine code, the period and the ids involved.
func (f *OutputFormatter) Fail(err error) error {
	code, message, details := describeError(err)
	if f.Format == "json" {
		return f.encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}
	if _, werr := fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message); werr != nil {
		return werr
	}
	if !f.Verbose {
		return nil
	}
	for _, line := range detailLines(details) {
		if _, werr := fmt.Fprintf(f.Writer, "  %s\n", line); werr != nil {
			return werr
		}
	}
	return nil
}

func (f *OutputFormatter) encode(resp CLIResponse) error {
	return json.NewEncoder(f.Writer).Encode(resp)
}

// detailLines renders describeError details as "key: value" lines in key
// order.
func detailLines(details any) []string {
	m, ok := details.(map[string]any)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		v := m[k]
		if ids, ok := v.([]string); ok {
			v = strings.Join(ids, ", ")
		}
		lines = append(lines, fmt.Sprintf("%s: %v", k, v))
	}
	return lines
}
