// Package report renders scan reports for terminals, CI systems and code hosts.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/complyscan/internal/pipeline"
)

// Formatter writes a report in one output format
type Formatter interface {
	Format(rep *pipeline.Report) error
}

// Options contains configuration for formatters
type Options struct {
	// Writer is where output is written (defaults to os.Stdout)
	Writer io.Writer
	// NoColor disables colored output for the text formatter
	NoColor bool
	// Compact disables indentation for JSON and YAML
	Compact bool
	// Verbose lists passing and skipped findings in text and markdown output
	Verbose bool
}

// Formats lists the supported format names
var Formats = []string{"text", "json", "yaml", "sarif", "markdown"}

// NewFormatter creates a formatter based on the format string
func NewFormatter(format string, opts *Options) (Formatter, error) {
	if opts == nil {
		opts = &Options{Writer: os.Stdout}
	}
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}

	switch format {
	case "json":
		return &JSONFormatter{opts: opts}, nil
	case "yaml":
		return &YAMLFormatter{opts: opts}, nil
	case "sarif":
		return &SARIFFormatter{opts: opts}, nil
	case "markdown", "md":
		return &MarkdownFormatter{opts: opts}, nil
	case "text", "":
		return &TextFormatter{opts: opts, styles: newStyles(opts.Writer, opts.NoColor)}, nil
	default:
		return nil, fmt.Errorf("unknown format: %s (supported: text, json, yaml, sarif, markdown)", format)
	}
}

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	opts *Options
}

// Format writes the report as JSON
func (f *JSONFormatter) Format(rep *pipeline.Report) error {
	encoder := json.NewEncoder(f.opts.Writer)
	if !f.opts.Compact {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(rep)
}

// YAMLFormatter formats output as YAML
type YAMLFormatter struct {
	opts *Options
}

// Format writes the report as YAML
func (f *YAMLFormatter) Format(rep *pipeline.Report) error {
	// round-trip through JSON so field names match the JSON output
	data, err := json.Marshal(rep)
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	encoder := yaml.NewEncoder(f.opts.Writer)
	if !f.opts.Compact {
		encoder.SetIndent(2)
	}
	defer encoder.Close()
	return encoder.Encode(doc)
}

// Compile-time verification that formatters implement Formatter
var _ Formatter = (*JSONFormatter)(nil)
var _ Formatter = (*YAMLFormatter)(nil)
var _ Formatter = (*SARIFFormatter)(nil)
var _ Formatter = (*MarkdownFormatter)(nil)
var _ Formatter = (*TextFormatter)(nil)
