package main

import (
	"os"

	"github.com/msto63/logpipe/cmd/logpipe/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
