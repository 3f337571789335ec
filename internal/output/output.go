// Package output writes extraction records in the CLI's output formats.
package output

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format represents output format types.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatYAML  Format = "yaml"
)

// Formats lists the supported formats.
var Formats = []Format{FormatJSON, FormatJSONL, FormatYAML}

// ParseFormat converts a format name, case-insensitively. "yml" is
// accepted for YAML.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	if f == "yml" {
		return FormatYAML, nil
	}
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported output format: %s (use json, jsonl or yaml)", name)
}

// Writer serializes records. Records may be written as they arrive; Close
// must be called to complete the output.
type Writer interface {
	Write(v any) error
	Close() error
}

// Option configures a writer.
type Option func(*config)

type config struct {
	indent string
}

// WithIndent sets the JSON indentation. An empty indent gives compact output.
func WithIndent(indent string) Option {
	return func(c *config) {
		c.indent = indent
	}
}

// New creates a writer for the specified format.
func New(w io.Writer, format Format, opts ...Option) (Writer, error) {
	cfg := &config{indent: "  "}
	for _, opt := range opts {
		opt(cfg)
	}

	switch format {
	case FormatJSON:
		return &jsonWriter{w: w, indent: cfg.indent}, nil
	case FormatJSONL:
		bw := bufio.NewWriter(w)
		return &jsonlWriter{w: bw, enc: json.NewEncoder(bw)}, nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		return &yamlWriter{enc: enc}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// jsonWriter buffers records and writes a single object for one record or
// an array for several.
type jsonWriter struct {
	w      io.Writer
	indent string
	items  []any
}

func (j *jsonWriter) Write(v any) error {
	j.items = append(j.items, v)
	return nil
}

func (j *jsonWriter) Close() error {
	var doc any = j.items
	if len(j.items) == 1 {
		doc = j.items[0]
	} else if j.items == nil {
		doc = []any{}
	}

	enc := json.NewEncoder(j.w)
	enc.SetIndent("", j.indent)
	return enc.Encode(doc)
}

// jsonlWriter writes one compact JSON object per line, flushing each line.
type jsonlWriter struct {
	w   *bufio.Writer
	enc *json.Encoder
}

func (j *jsonlWriter) Write(v any) error {
	if err := j.enc.Encode(v); err != nil {
		return err
	}
	return j.w.Flush()
}

func (j *jsonlWriter) Close() error {
	return j.w.Flush()
}

// yamlWriter writes each record as its own YAML document.
type yamlWriter struct {
	enc *yaml.Encoder
}

func (y *yamlWriter) Write(v any) error {
	return y.enc.Encode(v)
}

func (y *yamlWriter) Close() error {
	return y.enc.Close()
}
