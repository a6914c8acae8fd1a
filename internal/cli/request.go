package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gurted/gurt-go/pkg/gurt"
	"github.com/gurted/gurt-go/pkg/gurt/wire"
)

var (
	flagData        string
	flagDataFile    string
	flagContentType string
	flagJSON        bool
)

func init() {
	for _, method := range []wire.Method{
		wire.MethodGet,
		wire.MethodHead,
		wire.MethodOptions,
		wire.MethodDelete,
	} {
		rootCmd.AddCommand(newBodylessCmd(method))
	}
	for _, method := range []wire.Method{
		wire.MethodPost,
		wire.MethodPut,
		wire.MethodPatch,
	} {
		rootCmd.AddCommand(newBodyCmd(method))
	}
}

func newBodylessCmd(method wire.Method) *cobra.Command {
	name := commandName(method)
	return &cobra.Command{
		Use:   fmt.Sprintf("%s <gurt://host[:port]/path>", name),
		Short: fmt.Sprintf("Send a %s request", method),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			resp, err := send(client, method, args[0], "", nil)
			if err != nil {
				return err
			}
			return printResponse(resp)
		},
	}
}

func newBodyCmd(method wire.Method) *cobra.Command {
	name := commandName(method)
	cmd := &cobra.Command{
		Use:   fmt.Sprintf("%s <gurt://host[:port]/path>", name),
		Short: fmt.Sprintf("Send a %s request with a body", method),
		Long: fmt.Sprintf(`Send a %s request. The body comes from --data or --file;
--json sets the content-type to application/json.

Example:
  gurtctl %s gurt://host/items --data '{"name":"x"}' --json
  gurtctl %s gurt://host/upload --file ./payload.bin --content-type application/octet-stream`,
			method, name, name),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, contentType, err := requestBody()
			if err != nil {
				return err
			}
			client, err := newClient()
			if err != nil {
				return err
			}
			resp, err := send(client, method, args[0], contentType, body)
			if err != nil {
				return err
			}
			return printResponse(resp)
		},
	}
	cmd.Flags().StringVarP(&flagData, "data", "d", "", "Request body as a literal string")
	cmd.Flags().StringVarP(&flagDataFile, "file", "f", "", "Read the request body from a file")
	cmd.Flags().StringVar(&flagContentType, "content-type", "", "Value for the content-type header")
	cmd.Flags().BoolVar(&flagJSON, "json", false, "Shorthand for --content-type application/json")
	return cmd
}

func commandName(method wire.Method) string {
	switch method {
	case wire.MethodGet:
		return "get"
	case wire.MethodHead:
		return "head"
	case wire.MethodOptions:
		return "options"
	case wire.MethodDelete:
		return "delete"
	case wire.MethodPost:
		return "post"
	case wire.MethodPut:
		return "put"
	case wire.MethodPatch:
		return "patch"
	}
	return ""
}

func requestBody() ([]byte, string, error) {
	if flagData != "" && flagDataFile != "" {
		return nil, "", fmt.Errorf("--data and --file are mutually exclusive")
	}

	var body []byte
	switch {
	case flagDataFile != "":
		b, err := os.ReadFile(flagDataFile)
		if err != nil {
			return nil, "", fmt.Errorf("read body file: %w", err)
		}
		body = b
	case flagData != "":
		body = []byte(flagData)
	}

	contentType := flagContentType
	if flagJSON {
		contentType = "application/json"
	}
	if contentType == "" && len(body) > 0 {
		contentType = "text/plain"
	}
	return body, contentType, nil
}

func send(client *gurt.Client, method wire.Method, url, contentType string, body []byte) (*wire.Response, error) {
	switch method {
	case wire.MethodGet:
		return client.Get(url)
	case wire.MethodHead:
		return client.Head(url)
	case wire.MethodOptions:
		return client.Options(url)
	case wire.MethodDelete:
		return client.Delete(url)
	case wire.MethodPost:
		return client.Post(url, contentType, body)
	case wire.MethodPut:
		return client.Put(url, contentType, body)
	case wire.MethodPatch:
		return client.Patch(url, contentType, body)
	}
	return nil, fmt.Errorf("unsupported method %q", method)
}
