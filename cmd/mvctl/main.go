package main

import (
	"os"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/cmd/mvctl/cmd"
)

func main() {
	if err := cmd.Root().Execute(); err != nil {
		os.Exit(1)
	}
}
