// ABOUTME: Entry point for the taskboard CLI and web server
// ABOUTME: Parses the kong command tree and dispatches to each command's Run method

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const banner = `
  _            _    _                         _
 | |_ __ _ ___| | _| |__   ___   __ _ _ __ __| |
 | __/ _' / __| |/ / '_ \ / _ \ / _' | '__/ _' |
 | || (_| \__ \   <| |_) | (_) | (_| | | | (_| |
  \__\__,_|___/_|\_\_.__/ \___/ \__,_|_|  \__,_|
`

// CLI is the root of the command tree.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path (default: $TASKBOARD_CONFIG or ~/.config/taskboard/config.yaml)" type:"path"`
	Verbose bool             `short:"v" help:"Show info and debug logs on stderr"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Serve    ServeCmd    `cmd:"" help:"Start the web UI"`
	Init     InitCmd     `cmd:"" help:"Write a default configuration file"`
	Health   HealthCmd   `cmd:"" help:"Check a running server's health"`
	Register RegisterCmd `cmd:"" help:"Create an account and log it in"`
	Login    LoginCmd    `cmd:"" help:"Start a session"`
	Logout   LogoutCmd   `cmd:"" help:"End the current session"`
	Whoami   WhoamiCmd   `cmd:"" help:"Show the logged-in account"`
	Accounts AccountsCmd `cmd:"" help:"List registered accounts"`
	Tasks    TasksCmd    `cmd:"" help:"Manage tasks"`
}

func main() {
	// A missing .env is normal; anything else is worth mentioning.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: reading .env: %v\n", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	cancel()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run parses args and executes the selected command.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("taskboard"),
		kong.Description("A small task tracker: accounts, sessions and tasks kept in a local profile."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
		kong.Writers(stdout, stderr),
	)
	if err != nil {
		return err
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	g := &Global{
		Ctx:        ctx,
		In:         stdin,
		Out:        stdout,
		Err:        stderr,
		ConfigPath: cli.Config,
		Verbose:    cli.Verbose,
	}
	return kctx.Run(g)
}
