package main

import (
	"os"

	"github.com/ezlumper/haulpass-cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
