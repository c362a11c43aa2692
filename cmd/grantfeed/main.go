package main

import (
	"context"
	"errors"
	"os"

	"charm.land/fang/v2"
)

func main() {
	rootCmd := NewRootCmd()
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithNotifySignal(os.Interrupt, os.Kill),
	); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.code)
		}
		os.Exit(1)
	}
}
