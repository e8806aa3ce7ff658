package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	os.Exit(runMain(os.Args, DefaultEnv()))
}

// runMain dispatches the command and maps its error to an exit code.
func runMain(args []string, env *Environment) int {
	if len(args) < 2 {
		printUsage(env.Stderr)
		return ExitUsage
	}
	cmd, rest := args[1], args[2:]

	ctx, stop := notifyContext(context.Background())
	defer stop()

	var err error
	switch cmd {
	case "serve":
		err = runServe(ctx, rest, env)
	case "export":
		var failed int
		failed, err = runExport(ctx, rest, env)
		if err != nil && failed > 0 {
			// Per-file errors are already printed.
			return exitCodeFor(err)
		}
	case "doctor":
		return runDoctorCmd(rest, env)
	case "version", "--version":
		fmt.Fprintf(env.Stdout, "mdexport %s\n", Version)
		return ExitSuccess
	case "help", "-h", "--help":
		return runHelp(rest, env)
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", cmd)
		printUsage(env.Stderr)
		return ExitUsage
	}

	if errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	if err != nil {
		fmt.Fprintf(env.Stderr, "error: %v%s\n", err, hintFor(err, configNameFromArgs(rest, env), addrFromArgs(rest)))
		return exitCodeFor(err)
	}
	return ExitSuccess
}

// setMaxProcs configures GOMAXPROCS for the container CPU quota.
// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
// in which case Go runtime defaults apply and the program continues safely.
func setMaxProcs(logger *slog.Logger) func() {
	undo, _ := maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		logger.Debug(fmt.Sprintf(format, args...))
	}))
	return undo
}

// configNameFromArgs recovers the --config value for hints.
func configNameFromArgs(args []string, env *Environment) string {
	if v := flagValue(args, "config", "c"); v != "" {
		return v
	}
	return env.Getenv("MDEXPORT_CONFIG")
}

// addrFromArgs recovers the --addr value for hints.
func addrFromArgs(args []string) string {
	if v := flagValue(args, "addr", "a"); v != "" {
		return v
	}
	return "the configured address"
}

// flagValue scans args for --name value, --name=value or -s value.
func flagValue(args []string, name, short string) string {
	long, shortFlag := "--"+name, "-"+short
	for i, arg := range args {
		switch {
		case arg == "--":
			return ""
		case arg == long || arg == shortFlag:
			if i+1 < len(args) {
				return args[i+1]
			}
		case strings.HasPrefix(arg, long+"="):
			return strings.TrimPrefix(arg, long+"=")
		}
	}
	return ""
}
