// Package main provides the foodsafety command-line client.
package main

import (
	"os"

	"github.com/jsedoc/fish-rankings/cmd/foodsafety/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
