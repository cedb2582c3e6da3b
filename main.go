package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"

	"github.com/market-ar/market/cmd"
)

const version = "0.1.0"

func main() {
	root := cmd.NewRootCmd()

	// Ctrl+C cancels the command context, which stops any running poll loop
	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt, os.Kill),
	); err != nil {
		os.Exit(1)
	}
}
