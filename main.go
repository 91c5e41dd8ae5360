package main

import (
	"os"

	"github.com/swwwjjw/barometer-pulkovo/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
