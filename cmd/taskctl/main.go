// Command taskctl is the orchestration substrate's entry point: it
// assembles the domain and app layers behind the HTTP Façade and exposes
// serve, migrate-projects, and inspect-task subcommands.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
