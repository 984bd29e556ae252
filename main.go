package main

import (
	"os"

	"github.com/conneroisu/csvguard/cmd"
)

func main() {
	os.Exit(cmd.ExitCode(cmd.Execute()))
}
