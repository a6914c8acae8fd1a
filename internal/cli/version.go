package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/gurted/gurt-go/pkg/gurt/wire"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show build and protocol version info",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("gurtctl %s\n", version)
		fmt.Println(dimStyle.Render(fmt.Sprintf("  built:    %s", buildTime)))
		fmt.Println(dimStyle.Render(fmt.Sprintf("  protocol: %s (alpn %s)", wire.VersionToken, wire.ALPNToken)))
		fmt.Println(dimStyle.Render(fmt.Sprintf("  runtime:  %s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
