package cli

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cast"

	"github.com/mxsrc/oppsql/internal/query"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Query failure (ambiguous parameter, SQL error, etc.)
	ExitCommandError = 2 // Command error (bad flags, invalid request, database not found, etc.)
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
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
// Invalid requests map to ExitCommandError; any other error without an
// explicit code is ExitFailure.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if query.IsInvalidRequest(err) {
		return ExitCommandError
	}
	return ExitFailure
}

// wrapQueryError attaches an exit code matching the error category.
func wrapQueryError(message string, err error) *ExitError {
	if query.IsInvalidRequest(err) {
		return WrapExitError(ExitCommandError, message, err)
	}
	return WrapExitError(ExitFailure, message, err)
}

// OutputFormatter handles text, JSON and CSV output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status  string    `json:"status"`             // "ok" or "error"
	Data    any       `json:"data,omitempty"`     // success payload
	Error   *CLIError `json:"error,omitempty"`    // error details
	QueryID string    `json:"query_id,omitempty"` // optional log correlation
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "INVALID_REQUEST", "COMMAND_ERROR", ...
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
// CSV output of values other than tables falls back to text.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == FormatJSON {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	// Human-readable text output
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == FormatJSON {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	// Human-readable error
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// tableData is the JSON payload of a result table.
type tableData struct {
	Columns []string       `json:"columns"`
	Rows    []query.Record `json:"rows"`
}

// Table outputs a result table: aligned columns for text, a header row plus
// records for CSV, and column-ordered objects for JSON.
func (f *OutputFormatter) Table(t *query.Table) error {
	switch f.Format {
	case FormatJSON:
		return f.Success(tableData{Columns: t.Columns, Rows: t.Records()})
	case FormatCSV:
		return f.writeCSV(t.Columns, formatRows(t.Rows))
	default:
		return f.writeAligned(t.Columns, formatRows(t.Rows))
	}
}

// Rows outputs a header and pre-formatted rows. JSON output encodes data
// instead, so callers pass their typed result alongside.
func (f *OutputFormatter) Rows(headers []string, rows [][]string, data any) error {
	switch f.Format {
	case FormatJSON:
		return f.Success(data)
	case FormatCSV:
		return f.writeCSV(headers, rows)
	default:
		return f.writeAligned(headers, rows)
	}
}

func (f *OutputFormatter) writeAligned(headers []string, rows [][]string) error {
	w := tabwriter.NewWriter(f.Writer, 0, 0, 3, ' ', 0)
	if _, err := fmt.Fprintln(w, strings.Join(headers, "\t")); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := fmt.Fprintln(w, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return w.Flush()
}

func (f *OutputFormatter) writeCSV(headers []string, rows [][]string) error {
	w := csv.NewWriter(f.Writer)
	if err := w.Write(headers); err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatRows(rows [][]any) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = make([]string, len(row))
		for j, v := range row {
			out[i][j] = cast.ToString(v)
		}
	}
	return out
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON or CSV, verbose logs go to ErrWriter to avoid corrupting the output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// describeError maps an error to the code, message and details reported to
// the user.
func describeError(err error) (string, string, any) {
	var qe *query.Error
	if errors.As(err, &qe) {
		var details any
		if len(qe.Details) > 0 {
			details = qe.Details
		}
		return string(qe.Code), err.Error(), details
	}
	if GetExitCode(err) == ExitCommandError {
		return "COMMAND_ERROR", err.Error(), nil
	}
	return "QUERY_FAILED", err.Error(), nil
}
