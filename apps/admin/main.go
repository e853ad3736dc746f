package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/viper"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cli := newCommandLine(viper.New(), surveyPrompter{}, os.Stdout)
	if err := cli.run(ctx, os.Args[1:]); err != nil {
		if err != errAborted {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		stop()
		os.Exit(1)
	}
}
