package main

import (
	"os"

	"github.com/brain-io/agent/cmd/cli"
)

func main() {
	if err := cli.GetCommandOptions().Execute(); err != nil {
		os.Exit(1)
	}
}
