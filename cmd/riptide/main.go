package main

import (
	"os"

	"github.com/wanshanhsieh/riptide/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}
