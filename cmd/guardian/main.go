// ABOUTME: Entry point for the guardian personal-safety CLI
// ABOUTME: Dispatches subcommands for contacts, settings, alerts, and shake watching

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/2389/guardian/internal/config"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
                            _ _
  __ _ _   _  __ _ _ __ __| (_) __ _ _ __
 / _' | | | |/ _' | '__/ _' | |/ _' | '_ \
| (_| | |_| | (_| | | | (_| | | (_| | | | |
 \__, |\__,_|\__,_|_|  \__,_|_|\__,_|_| |_|
 |___/
`

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stdout)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := loadDotEnv(".env"); err != nil {
		color.Red("Error: loading .env: %v\n", err)
		os.Exit(1)
	}

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		color.Red("Error: %v\n", err)
		if errors.Is(err, errUsage) {
			printUsage(os.Stderr)
		}
		os.Exit(1)
	}
}

// loadDotEnv loads environment variables from path. Missing files are ignored.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// run executes one subcommand. Log output goes to stderr so it never mixes
// with command output.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "help", "-h", "--help":
		printUsage(stdout)
		return nil
	case "version":
		fmt.Fprintf(stdout, "guardian %s\n", version)
		return nil
	}

	cfg, err := config.Load(config.Path())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := setupLogger(cfg.Logging, stderr)

	a := openApp(ctx, cfg, logger, stdout)
	defer a.close()

	switch cmd {
	case "contacts":
		return a.cmdContacts(ctx, rest)
	case "settings":
		return a.cmdSettings(rest)
	case "trigger":
		return a.cmdTrigger(ctx)
	case "watch":
		return a.cmdWatch(ctx, stdin)
	case "history":
		return a.cmdHistory(ctx)
	case "clear-data":
		return a.cmdClearData(ctx)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

var errUsage = errors.New("usage")

func printUsage(w io.Writer) {
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	cyan.Fprint(w, banner)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: guardian <command> [args]")
	fmt.Fprintln(w)
	yellow.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  contacts                               List emergency contacts")
	fmt.Fprintln(w, "  contacts add <name> <phone> [rel]      Add a contact (max 5, oldest dropped)")
	fmt.Fprintln(w, "  contacts update <id> <name> <phone> [rel]")
	fmt.Fprintln(w, "                                         Replace a contact")
	fmt.Fprintln(w, "  contacts remove <id>                   Remove a contact")
	fmt.Fprintln(w, "  contacts import [query] [rel]          Search the address book; imports a single match")
	fmt.Fprintln(w, "  settings                               Show settings as YAML")
	fmt.Fprintln(w, "  settings sensitivity <0.5-3.0>         Set shake sensitivity")
	fmt.Fprintln(w, "  settings template <text>               Set the alert message template")
	fmt.Fprintln(w, "  settings token <NAME|LOCATION|TIME> [pos]")
	fmt.Fprintln(w, "                                         Insert a placeholder into the template")
	fmt.Fprintln(w, "  settings preview                       Preview the alert message")
	fmt.Fprintln(w, "  settings gesture on|off                Enable or disable shake detection")
	fmt.Fprintln(w, "  settings auto-delete 24h|7d|never      Set history retention")
	fmt.Fprintln(w, "  trigger                                Send the emergency alert now")
	fmt.Fprintln(w, "  watch                                  Read accelerometer JSON lines from stdin and alert on shake")
	fmt.Fprintln(w, "  history                                Show the alert log and location history")
	fmt.Fprintln(w, "  clear-data                             Delete alert log and location history")
	fmt.Fprintln(w)
	yellow.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  GUARDIAN_CONFIG          Config file (default: ~/.config/guardian/config.yaml)")
	fmt.Fprintln(w)
}
