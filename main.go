package main

import (
	"os"

	"github.com/resume2job/resume2job/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
