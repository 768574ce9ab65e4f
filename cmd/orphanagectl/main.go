package main

import (
	"os"

	"github.com/abelzeko/orphanage-bot/cmd/orphanagectl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
