package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	_ "go.uber.org/automaxprocs" // adjusts GOMAXPROCS to the container's CPU quota on import
)

func main() {
	root := NewRootCmd(modelsFromSettings)
	if err := fang.Execute(context.Background(), root); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(DetermineExitCode(err))
	}
}
