// Command trackctl is the operator CLI for the tracking service.
package main

import (
	"fmt"
	"os"

	"github.com/99minutos/tracking-live/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
