package main

import (
	"os"

	"github.com/spigell/cv-chat/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
