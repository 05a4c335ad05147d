package main

import (
	"os"
	_ "time/tzdata"

	"petshop-manager/cmd/petshopctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
