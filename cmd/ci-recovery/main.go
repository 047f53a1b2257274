package main

import (
	"os"

	"github.com/daydemir/ci-recovery/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
