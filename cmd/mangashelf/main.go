package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
)

var version = "dev"

func main() {
	root, cliCtx := newRootCommand()
	err := runCommand(cliCtx, func() error {
		return fang.Execute(
			context.Background(),
			root,
			fang.WithVersion(version),
			fang.WithNotifySignal(os.Interrupt),
		)
	})
	if err != nil {
		os.Exit(1)
	}
}
