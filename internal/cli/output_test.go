package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mxsrc/oppsql/internal/query"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: FormatJSON,
		Writer: buf,
	}

	data := map[string]string{"result": "success"}
	err := formatter.Success(data)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: FormatJSON,
		Writer: buf,
	}

	err := formatter.Error("INVALID_REQUEST", "no variables requested", nil)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_REQUEST", resp.Error.Code)
	assert.Equal(t, "no variables requested", resp.Error.Message)
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: FormatText,
		Writer: buf,
	}

	err := formatter.Error("AMBIGUOUS_PARAM", "two values", map[string]string{"values": "1,2"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [AMBIGUOUS_PARAM]: two values")
	assert.NotContains(t, buf.String(), "Details:")

	buf.Reset()
	formatter.Verbose = true
	require.NoError(t, formatter.Error("AMBIGUOUS_PARAM", "two values", map[string]string{"values": "1,2"}))
	assert.Contains(t, buf.String(), "Details:")
}

func sampleTable() *query.Table {
	return &query.Table{
		Columns: []string{"nCars", "simtime", "collisions"},
		Rows: [][]any{
			{"160", 1.0, int64(150)},
			{"320", 2.5, nil},
		},
	}
}

func TestOutputFormatter_TableText(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: FormatText, Writer: buf}

	require.NoError(t, formatter.Table(sampleTable()))

	want := "nCars   simtime   collisions\n" +
		"160     1         150\n" +
		"320     2.5       \n"
	assert.Equal(t, want, buf.String())
}

func TestOutputFormatter_TableCSV(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: FormatCSV, Writer: buf}

	require.NoError(t, formatter.Table(sampleTable()))

	assert.Equal(t, "nCars,simtime,collisions\n160,1,150\n320,2.5,\n", buf.String())
}

func TestOutputFormatter_TableJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: FormatJSON, Writer: buf}

	require.NoError(t, formatter.Table(sampleTable()))

	assert.JSONEq(t, `{
		"status": "ok",
		"data": {
			"columns": ["nCars", "simtime", "collisions"],
			"rows": [
				{"nCars": "160", "simtime": 1, "collisions": 150},
				{"nCars": "320", "simtime": 2.5, "collisions": null}
			]
		}
	}`, buf.String())
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			diag := &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:    FormatCSV,
				Writer:    out,
				ErrWriter: diag,
				Verbose:   tt.verbose,
			}

			formatter.VerboseLog("Reading %s", "collisions")

			assert.Empty(t, out.String())
			if tt.wantLog {
				assert.Contains(t, diag.String(), "Reading collisions")
			} else {
				assert.Empty(t, diag.String())
			}
		})
	}
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad")))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))

	_, _, err := query.BuildVectorQuery(query.VectorRequest{})
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("wrapped: %w", err)))
	assert.Equal(t, ExitCommandError, GetExitCode(wrapQueryError("x", err)))
	assert.Equal(t, ExitFailure, GetExitCode(wrapQueryError("x", errors.New("no such table"))))
}

func TestDescribeError(t *testing.T) {
	amb := query.NewAmbiguousParamError("nCars", []string{"160", "320"})
	code, msg, details := describeError(wrapQueryError("parameter lookup failed", amb))
	assert.Equal(t, "AMBIGUOUS_PARAM", code)
	assert.Contains(t, msg, "parameter lookup failed")
	assert.Equal(t, map[string]string{"pattern": "nCars", "values": "160,320"}, details)

	code, _, details = describeError(NewExitError(ExitCommandError, "no database"))
	assert.Equal(t, "COMMAND_ERROR", code)
	assert.Nil(t, details)

	code, _, _ = describeError(errors.New("disk I/O error"))
	assert.Equal(t, "QUERY_FAILED", code)
}
