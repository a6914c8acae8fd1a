package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// formatter renders a value for terminal output.
type formatter interface {
	Format(data any) (string, error)
}

func newFormatter(format string) (formatter, error) {
	switch strings.ToLower(format) {
	case "json":
		return jsonFormatter{}, nil
	case "yaml":
		return yamlFormatter{}, nil
	case "table", "":
		return tableFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want json, yaml, or table)", format)
	}
}

type jsonFormatter struct{}

func (jsonFormatter) Format(data any) (string, error) {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("format json: %w", err)
	}
	return string(b) + "\n", nil
}

type yamlFormatter struct{}

func (yamlFormatter) Format(data any) (string, error) {
	b, err := yaml.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("format yaml: %w", err)
	}
	return string(b), nil
}

// tableFormatter lays out rows of label/value pairs with tabwriter.
type tableFormatter struct{}

func (tableFormatter) Format(data any) (string, error) {
	rows, ok := data.([][2]string)
	if !ok {
		// Fall back to a single line for non-tabular values.
		return fmt.Sprintf("%v\n", data), nil
	}
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	for _, row := range rows {
		fmt.Fprintf(w, "%s\t%s\n", row[0], row[1])
	}
	w.Flush()
	return buf.String(), nil
}
