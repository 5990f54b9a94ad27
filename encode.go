package payments

import (
	"fmt"
	"io"
	"iter"
	"path/filepath"
	"strings"
)

// Format is an input or output encoding.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatJSONL    Format = "jsonl"
	FormatJSON     Format = "json"     // a single JSON document, input only
	FormatMarkdown Format = "markdown" // output only
)

// ParseFormat parses a format name. The empty string means "guess".
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "", FormatCSV, FormatJSONL, FormatJSON, FormatMarkdown:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q", s)
	}
}

// FormatOf guesses the format of a file from its extension, CSV by default.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return FormatJSONL
	case ".json":
		return FormatJSON
	default:
		return FormatCSV
	}
}

// Decode returns the event stream of r in the given input format. jsonPath
// selects events in a FormatJSON document.
func Decode(r io.Reader, format Format, jsonPath string) (iter.Seq2[Event, error], error) {
	switch format {
	case FormatCSV:
		return DecodeCSV(r), nil
	case FormatJSONL:
		return DecodeJSONL(r), nil
	case FormatJSON:
		return DecodeJSONPath(r, jsonPath), nil
	default:
		return nil, fmt.Errorf("%q is not an input format", format)
	}
}
