package errors

import (
	"bytes"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false)

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: 0},
		{name: "route error", err: NewError(CategoryRoute, "no route").Build(), expected: 1},
		{name: "validation error", err: ValidationError("schema mismatch").Build(), expected: 1},
		{name: "journal warning", err: JournalError("append").Build(), expected: 1},
		{name: "unclassified error", err: stderrors.New("boom"), expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	cause := stderrors.New("disk full")

	tests := []struct {
		name     string
		verbose  bool
		err      error
		expected string
	}{
		{name: "nil error", err: nil, expected: ""},
		{
			name:     "classified without cause",
			err:      NewError(CategoryRoute, "no route from 3.0.0 to 2.4.8").Build(),
			expected: "Error (route): no route from 3.0.0 to 2.4.8",
		},
		{
			name:     "classified with cause",
			err:      WrapError(cause, CategoryFileSystem, "write output").Build(),
			expected: "Error (filesystem): write output: disk full",
		},
		{
			name:     "verbose shows classification and sorted context",
			verbose:  true,
			err:      WrapError(cause, CategoryFileSystem, "write output").WithContext("path", "out.xml").WithContext("attempt", 2).Build(),
			expected: "Error: [filesystem:fatal] write output: disk full (attempt=2, path=out.xml)",
		},
		{name: "unclassified", err: cause, expected: "Error: disk full"},
		{name: "unclassified verbose", verbose: true, err: cause, expected: "Error: disk full"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := NewCLIErrorAdapter(tt.verbose)
			assert.Equal(t, tt.expected, adapter.FormatError(tt.err))
		})
	}
}

func TestCLIErrorAdapter_ReportWritesOneLine(t *testing.T) {
	tests := []struct {
		name     string
		verbose  bool
		err      error
		expected string
	}{
		{
			name:     "fatal",
			err:      TransformError("hop failed").WithContext("hop", "3.0.0->3.0.1").Build(),
			expected: "Error (transform): hop failed\n",
		},
		{
			name:     "fatal verbose",
			verbose:  true,
			err:      TransformError("hop failed").WithContext("hop", "3.0.0->3.0.1").Build(),
			expected: "Error: [transform:fatal] hop failed (hop=3.0.0->3.0.1)\n",
		},
		{
			name:     "unclassified",
			err:      stderrors.New("boom"),
			expected: "Error: boom\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			adapter := NewCLIErrorAdapter(tt.verbose)
			adapter.out = &out

			assert.Equal(t, 1, adapter.Report(tt.err))
			assert.Equal(t, tt.expected, out.String())
		})
	}

	var out bytes.Buffer
	adapter := NewCLIErrorAdapter(false)
	adapter.out = &out
	assert.Equal(t, 0, adapter.Report(nil))
	assert.Empty(t, out.String())
}
