package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/kbukum/apikit/internal/cli"
)

var execute = cli.Execute

func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := execute(ctx, args, stdout, stderr); err != nil {
		fmt.Fprintln(stderr, "apikit:", err)
		return cli.ExitCode(err)
	}
	return cli.ExitOK
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
