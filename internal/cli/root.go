// Package cli implements the gurtctl command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gurted/gurt-go/internal/logging"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	flagConfig           string
	flagInsecure         bool
	flagConnectTimeout   string
	flagHandshakeTimeout string
	flagRequestTimeout   string
	flagUserAgent        string
	flagShowHeaders      bool
	flagPretty           bool
	flagOutput           string
	flagVerbose          bool
)

var rootCmd = &cobra.Command{
	Use:   "gurtctl",
	Short: "Command-line client for GURT servers",
	Long: `gurtctl speaks the GURT protocol: a plaintext handshake upgraded to
TLS 1.3, followed by HTTP-style requests over the secured stream.

Get started:
  gurtctl get gurt://host:4878/path       Fetch a resource
  gurtctl post gurt://host/items --json   Send a JSON body
  gurtctl bench gurt://host/ -n 1000      Measure request latency
  gurtctl version                         Show build info`,
	Version:       fmt.Sprintf("%s (built %s)", version, buildTime),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.ConfigureRuntime()
		if flagVerbose {
			logging.SetVerbose()
		}
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, renderError(err))
		os.Exit(1)
	}
}

// SetVersion sets the build info shown by --version and the version command.
func SetVersion(v, bt string) {
	version = v
	buildTime = bt
	rootCmd.Version = fmt.Sprintf("%s (built %s)", version, buildTime)
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagConfig, "config", "c", "", "Path to a gurtctl.toml config file")
	pf.BoolVarP(&flagInsecure, "insecure", "k", false, "Skip TLS certificate verification")
	pf.StringVar(&flagConnectTimeout, "connect-timeout", "", "TCP connect timeout (e.g. 10s)")
	pf.StringVar(&flagHandshakeTimeout, "handshake-timeout", "", "GURT handshake timeout (e.g. 5s)")
	pf.StringVar(&flagRequestTimeout, "timeout", "", "Request round-trip timeout (e.g. 30s)")
	pf.StringVar(&flagUserAgent, "user-agent", "", "Override the user-agent header")
	pf.BoolVarP(&flagShowHeaders, "show-headers", "i", false, "Print response headers")
	pf.BoolVar(&flagPretty, "pretty", false, "Indent JSON response bodies")
	pf.StringVarP(&flagOutput, "output", "o", "", "Structured output format: json or yaml")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
}
