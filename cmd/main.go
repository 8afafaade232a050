package main

import (
	"os"

	"github.com/joyboxhq/funnel/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
