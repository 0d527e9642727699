package main

import (
	"os"

	"github.com/ridgeline-run/steprunner/cmd/steprunner/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
