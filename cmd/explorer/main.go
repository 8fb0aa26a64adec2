// Package main provides a terminal browser for the explorer API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/fruitsalade/explorer/internal/config"
	"github.com/fruitsalade/explorer/internal/logging"
	"github.com/fruitsalade/explorer/internal/session"
	"github.com/fruitsalade/explorer/pkg/client"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	apiURL := flag.String("api", cfg.APIURL, "API base URL")
	rootID := flag.Int64("root", cfg.RootFolderID, "Folder to open at startup")
	limit := flag.Int("limit", cfg.PageLimit, "Page size when browsing without a folder")
	timeout := flag.Duration("timeout", cfg.Timeout, "Request timeout")
	logLevel := flag.String("log-level", "warn", "Log level (debug, info, warn, error)")
	flag.Parse()

	if err := logging.Init(logging.Config{
		Level:      *logLevel,
		Format:     "console",
		OutputPath: "stderr",
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Logging init error: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := client.New(client.Config{BaseURL: *apiURL, Timeout: *timeout})
	if err := c.Ping(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Cannot reach %s: %v\n", *apiURL, err)
		os.Exit(1)
	}

	sess := session.New(c.Remote(), session.Options{RootID: *rootID, PageLimit: *limit})
	sh := newShell(sess, os.Stdout)

	args := flag.Args()
	cmd := "shell"
	if len(args) > 0 {
		cmd = args[0]
	}

	switch cmd {
	case "shell":
		if err := sess.Open(ctx, rootIDPtr(*rootID)); err != nil {
			fmt.Fprintf(os.Stderr, "Error opening folder %d: %v\n", *rootID, err)
			os.Exit(1)
		}
		sh.run(ctx, os.Stdin)
	case "tree", "stats", "favs", "ls":
		if cmd == "ls" {
			if err := sess.Open(ctx, rootIDPtr(*rootID)); err != nil {
				fmt.Fprintf(os.Stderr, "Error opening folder %d: %v\n", *rootID, err)
				os.Exit(1)
			}
		}
		if _, err := sh.exec(ctx, cmd); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
	logging.L().Debug("explorer exiting", zap.Bool("online", c.IsOnline()))
}

// rootIDPtr maps a non-positive id to no folder context.
func rootIDPtr(id int64) *int64 {
	if id <= 0 {
		return nil
	}
	return &id
}

func printUsage() {
	fmt.Println(`Explorer CLI

Usage: explorer [flags] [command]

Flags:
  -api <url>         API base URL (default: $EXPLORER_API_URL or http://localhost:3000/api)
  -root <id>         Folder to open at startup, 0 for none (default: 1)
  -limit <n>         Page size when browsing without a folder (default: 50)
  -timeout <dur>     Request timeout (default: 30s)
  -log-level <lvl>   Log level (default: warn)

Commands:
  shell              Interactive browser (default)
  ls                 List the start folder
  tree               Print the folder tree
  stats              Show storage statistics
  favs               List favorites
  help               Show this help message

Examples:
  explorer
  explorer -root 2 ls
  explorer -api http://files.local/api tree`)
}
