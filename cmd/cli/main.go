package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/dmpavlov/userkeeper/internal/client/api"
	"github.com/dmpavlov/userkeeper/internal/client/cli"
)

func main() {

	address := flag.String("a", "http://localhost:8080", "server base URL")
	token := flag.String("token", "", "session token for protected commands")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: cli [-a url] [-token token] <command> [args]")
		os.Exit(1)
	}

	client := api.NewClient(*address)
	if *token != "" {
		client.SetToken(*token)
	}

	app := cli.NewApp(client, os.Stdin, os.Stdout)

	if err := app.Exec(context.Background(), args[0], args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

}
