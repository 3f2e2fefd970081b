package main

import (
	"os"

	"github.com/jask/finsync/cmd/finsync/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
