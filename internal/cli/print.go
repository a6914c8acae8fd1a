package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/gurted/gurt-go/pkg/gurt/wire"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF88")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#B0B0B0"))
)

func statusStyle(code int) lipgloss.Style {
	switch {
	case code >= 200 && code < 300:
		return successStyle
	case code >= 400 && code < 500:
		return warningStyle
	case code >= 500:
		return errorStyle
	default:
		return dimStyle
	}
}

// responseSummary is the structured form rendered by --output json/yaml.
type responseSummary struct {
	Status  int               `json:"status" yaml:"status"`
	Message string            `json:"message" yaml:"message"`
	Headers map[string]string `json:"headers" yaml:"headers"`
	Body    string            `json:"body" yaml:"body"`
}

func summarize(resp *wire.Response) responseSummary {
	headers := make(map[string]string, resp.Headers.Len())
	for _, h := range resp.Headers.All() {
		headers[h.Name] = h.Value
	}
	return responseSummary{
		Status:  resp.StatusCode,
		Message: resp.StatusMessage,
		Headers: headers,
		Body:    resp.Text(),
	}
}

// printResponse writes the response to stdout. The default rendering is
// the body as-is (with an optional status/header block); --output switches
// to a structured json or yaml document.
func printResponse(resp *wire.Response) error {
	if flagOutput != "" {
		f, err := newFormatter(flagOutput)
		if err != nil {
			return err
		}
		out, err := f.Format(summarize(resp))
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	}

	if flagShowHeaders {
		status := fmt.Sprintf("%s %d %s", wire.VersionToken, resp.StatusCode, resp.StatusMessage)
		fmt.Fprintln(os.Stderr, statusStyle(resp.StatusCode).Render(status))
		for _, h := range resp.Headers.All() {
			fmt.Fprintf(os.Stderr, "%s %s\n", headerStyle.Render(h.Name+":"), h.Value)
		}
		fmt.Fprintln(os.Stderr)
	}

	body := resp.Body
	if flagPretty && isJSON(resp) {
		var buf bytes.Buffer
		if err := json.Indent(&buf, body, "", "  "); err == nil {
			body = buf.Bytes()
		}
	}
	if len(body) > 0 {
		os.Stdout.Write(body)
		if body[len(body)-1] != '\n' {
			fmt.Println()
		}
	}
	return nil
}

func isJSON(resp *wire.Response) bool {
	ct, ok := resp.Header("content-type")
	return ok && strings.HasPrefix(ct, "application/json")
}

func renderError(err error) string {
	return errorStyle.Render("error: ") + err.Error()
}
