package main

import "github.com/gurted/gurt-go/internal/cli"

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	cli.SetVersion(version, buildTime)
	cli.Execute()
}
