package main

import (
	"os"

	"securelink/cmd/securelink/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
