package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/wmiq"
	"github.com/roach88/wmiq/wbem"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Query failed, scenarios failed
	ExitCommandError = 2 // Command error (invalid paths, database not found, etc.)
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
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

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Status is the symbolic provider status of a failed query.
	Status string `json:"status,omitempty"`
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

func newFormatter(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
}

// Success outputs data as JSON, or calls text to render it for humans.
func (f *OutputFormatter) Success(data any, text func(w io.Writer)) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{Status: "ok", Data: data})
	}
	text(f.Writer)
	return nil
}

// Error outputs a failure. Text mode prints nothing; the returned error
// reaches stderr through main.
func (f *OutputFormatter) Error(cliErr *CLIError) error {
	if f.Format != "json" {
		return nil
	}
	return f.encode(CLIResponse{Status: "error", Error: cliErr})
}

func (f *OutputFormatter) encode(resp CLIResponse) error {
	encoder := json.NewEncoder(f.Writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(resp)
}

// queryFailure reports a failed query and converts it into an exit error.
// Query errors exit with ExitFailure; anything else is a command error.
func queryFailure(f *OutputFormatter, err error) error {
	var qe *wmiq.QueryError
	if !errors.As(err, &qe) {
		return WrapExitError(ExitCommandError, "query failed", err)
	}

	cliErr := &CLIError{Code: string(qe.Kind), Message: err.Error()}
	if status, ok := wmiq.StatusOf(err); ok {
		cliErr.Status = wbem.StatusName(status)
	}
	if outErr := f.Error(cliErr); outErr != nil {
		return outErr
	}
	return WrapExitError(ExitFailure, "query failed", err)
}
