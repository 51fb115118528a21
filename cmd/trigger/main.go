package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"chess-scout/config"
	"chess-scout/logging"
	"chess-scout/workflow"
)

const usage = `Usage: trigger scrape <player_id> [repo_owner] [repo_name]
       trigger import <text> [repo_owner] [repo_name]
       trigger import -f <file> [repo_owner] [repo_name]`

var errUsage = errors.New(usage)

// command ist ein geparster Aufruf.
type command struct {
	kind  string
	value string
	owner string
	repo  string
}

// trigger startet den Scraper oder Import in GitHub Actions und gibt das Artefakt-JSON aus.
func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cmd, err := parseArgs(args)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "config load error: %v\n", err)
		return 1
	}
	if cmd.owner != "" {
		cfg.GitHubOwner = cmd.owner
	}
	if cmd.repo != "" {
		cfg.GitHubRepo = cmd.repo
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	defer logger.Sync()

	client, err := workflow.NewClient(cfg, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		fmt.Fprintln(stderr, "Set it with: export GITHUB_TOKEN='your_token_here'")
		return 1
	}

	var out json.RawMessage
	switch cmd.kind {
	case "scrape":
		out, err = client.TriggerScrape(context.Background(), cmd.value)
	case "import":
		out, err = client.TriggerImport(context.Background(), cmd.value)
	}
	if err != nil {
		logger.Error("Workflow fehlgeschlagen", zap.String("command", cmd.kind), zap.Error(err))
		return 1
	}

	var v any
	if err := json.Unmarshal(out, &v); err != nil {
		fmt.Fprintln(stdout, string(out))
		return 0
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
	return 0
}

func parseArgs(args []string) (command, error) {
	if len(args) < 2 {
		return command{}, errUsage
	}
	cmd := command{kind: args[0]}
	rest := args[1:]

	switch cmd.kind {
	case "scrape":
		cmd.value = strings.TrimSpace(rest[0])
		rest = rest[1:]
	case "import":
		if rest[0] == "-f" || rest[0] == "--file" {
			if len(rest) < 2 {
				return command{}, errors.New("Error: -f requires a filename")
			}
			data, err := os.ReadFile(rest[1])
			if errors.Is(err, os.ErrNotExist) {
				return command{}, fmt.Errorf("Error: File not found: %s", rest[1])
			}
			if err != nil {
				return command{}, fmt.Errorf("Error reading file: %v", err)
			}
			cmd.value = string(data)
			rest = rest[2:]
		} else {
			cmd.value = rest[0]
			rest = rest[1:]
		}
	default:
		return command{}, errUsage
	}

	if strings.TrimSpace(cmd.value) == "" {
		return command{}, errors.New("Error: No text provided")
	}
	if len(rest) > 0 {
		cmd.owner = rest[0]
	}
	if len(rest) > 1 {
		cmd.repo = rest[1]
	}
	return cmd, nil
}
