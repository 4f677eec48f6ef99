package main

import (
	"os"

	"github.com/snapfiredev/snapfire/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
