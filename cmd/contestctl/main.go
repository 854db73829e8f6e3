package main

import (
	"os"

	"github.com/kpsahani/Contest-Participation-System/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
