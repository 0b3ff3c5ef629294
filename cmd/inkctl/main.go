package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/danmuck/inkctl/internal/command"
	"github.com/danmuck/inkctl/internal/logging"
	"github.com/danmuck/inkctl/internal/protocol/session"
)

const defaultConfigPath = "inkctl.toml"

func main() {
	logging.ConfigureRuntime()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "inkctl: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("inkctl", flag.ContinueOnError)
	fs.SetOutput(out)
	configPath := fs.String("config", "", "config file (default ./inkctl.toml when present)")
	host := fs.String("host", "", "printer host, overrides config")
	port := fs.Int("port", 0, "printer port, overrides config")
	fs.Usage = func() { printUsage(out, fs) }
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := resolveConfig(*configPath)
	if err != nil {
		return err
	}
	if *host != "" {
		cfg.Session.Host = *host
	}
	if *port != 0 {
		cfg.Session.Port = *port
	}

	rest := fs.Args()
	if len(rest) == 0 || rest[0] == "help" {
		printUsage(out, fs)
		return nil
	}
	switch rest[0] {
	case "label":
		return runLabel(ctx, cfg, rest[1:], out)
	case "monitor":
		return runMonitor(ctx, cfg, rest[1:], out)
	}
	if len(rest) < 2 {
		return fmt.Errorf("%w: inkctl <category> <action> [args...]", command.ErrUsage)
	}
	return runCommand(ctx, cfg, rest[0], rest[1], rest[2:], out)
}

func resolveConfig(path string) (clientConfig, error) {
	if path == "" {
		if _, err := os.Stat(defaultConfigPath); err != nil {
			return defaultClientConfig(), nil
		}
		path = defaultConfigPath
	}
	return loadClientConfig(path)
}

func dial(ctx context.Context, cfg clientConfig) (*session.Conn, *command.Client, error) {
	conn, err := session.Open(ctx, cfg.Session)
	if err != nil {
		return nil, nil, err
	}
	return conn, command.New(conn), nil
}

func runCommand(ctx context.Context, cfg clientConfig, category, action string, args []string, out io.Writer) error {
	registry, err := command.NewRegistry()
	if err != nil {
		return err
	}
	// resolve before dialing so typos fail without touching the network
	if _, err := registry.Lookup(category, action); err != nil {
		return err
	}
	conn, client, err := dial(ctx, cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	resp, err := registry.Run(ctx, client, category, action, args)
	if resp == nil && err == nil {
		fmt.Fprintln(out, "No response")
		return nil
	}
	if resp != nil {
		if perr := printJSON(out, resp); perr != nil {
			return perr
		}
	}
	return err
}

func printJSON(out io.Writer, v any) error {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(body))
	return err
}

func printUsage(out io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(out, "usage: inkctl [flags] <category> <action> [args...]")
	fmt.Fprintln(out, "       inkctl [flags] label text <name> <content>")
	fmt.Fprintln(out, "       inkctl [flags] label product [-design file.toml | field flags]")
	fmt.Fprintln(out, "       inkctl [flags] label design <file.toml>")
	fmt.Fprintln(out, "       inkctl [flags] label show <message-id>")
	fmt.Fprintln(out, "       inkctl [flags] monitor [-interval 2s] [-listen :9200] [-once]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "flags:")
	fs.PrintDefaults()
	registry, err := command.NewRegistry()
	if err != nil {
		return
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "commands:")
	for _, cat := range registry.Categories() {
		for _, action := range registry.Actions(cat) {
			entry, _ := registry.Lookup(cat, action)
			fmt.Fprintf(out, "  %s %s %s\n", cat, action, strings.TrimSpace(entry.Usage))
		}
	}
}
