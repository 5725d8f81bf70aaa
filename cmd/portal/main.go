package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/fatih/color"
	"github.com/jrsteele09/go-partner-portal/internal/config"
	"github.com/jrsteele09/go-partner-portal/internal/logging"
	"github.com/rs/zerolog/log"
)

const usage = `usage: portal <command> [flags]

commands:
  login      sign in and store the session
  signup     register a partner account and sign in
  whoami     show the signed in user
  logout     end the session
  get        GET an endpoint and print the JSON response
  list       list a resource collection
  upload     upload a document for an applicant
  export     download a report as CSV
  locale     show or set the preferred locale
  devserver  run a local backend for development
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}

func run(args []string) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return errors.New("no command given")
	}

	cfg := config.New()
	logging.New(cfg.GetLogLevel(), cfg.GetEnv(), os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	name, args := args[0], args[1:]
	if name == "devserver" {
		displayAppname(cfg.GetAppName())
		return runDevServer(ctx, cfg, args)
	}

	cmd, ok := commands[name]
	if !ok {
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", name)
	}

	a, err := newApp(ctx, cfg, os.Stdout)
	if err != nil {
		return err
	}
	defer a.Close()

	return cmd(ctx, a, args)
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
