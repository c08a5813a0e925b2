package main

import (
	"os"

	"github.com/dpratama/clipd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
