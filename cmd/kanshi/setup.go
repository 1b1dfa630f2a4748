package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/mmcdole/kanshi/internal/adapter"
)

// runSetupFlow asks where the list lives and saves the config
func runSetupFlow(cfg *adapter.Config, in io.Reader, out io.Writer) error {
	if err := promptBackend(cfg, in, out); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := adapter.SaveConfig(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "✓ Configuration saved to %s\n", adapter.ConfigPath())
	fmt.Fprintln(out, "Run kanshi again to start the application.")
	return nil
}

// promptBackend fills cfg.Backend from answers read from in
func promptBackend(cfg *adapter.Config, in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Kanshi Setup")
	fmt.Fprintln(out, "━━━━━━━━━━━━")

	for {
		answer, err := ask(reader, out, fmt.Sprintf("Store your list locally or on a server? [local/rest] (%s): ", cfg.Backend.Type))
		if err != nil {
			return err
		}
		if answer == "" {
			break
		}
		switch adapter.BackendType(strings.ToLower(answer)) {
		case adapter.BackendTypeLocal:
			cfg.Backend.Type = adapter.BackendTypeLocal
		case adapter.BackendTypeREST:
			cfg.Backend.Type = adapter.BackendTypeREST
		default:
			fmt.Fprintf(out, "Unknown choice %q. Please enter local or rest.\n", answer)
			continue
		}
		break
	}

	if cfg.Backend.Type == adapter.BackendTypeLocal {
		path, err := ask(reader, out, fmt.Sprintf("Database file (%s): ", cfg.Backend.Path))
		if err != nil {
			return err
		}
		if path != "" {
			cfg.Backend.Path = path
		}
		return nil
	}

	for cfg.Backend.URL == "" {
		url, err := ask(reader, out, "Server URL (e.g., https://list.example.com/api): ")
		if err != nil {
			return err
		}
		if url == "" {
			fmt.Fprintln(out, "Server URL cannot be empty. Please try again.")
			continue
		}
		cfg.Backend.URL = strings.TrimRight(url, "/")
	}

	fmt.Fprint(out, "API token (leave empty for none): ")
	token, err := readSecret(reader, in)
	fmt.Fprintln(out) // Newline after hidden input
	if err != nil {
		return err
	}
	cfg.Backend.Token = token
	return nil
}

func ask(reader *bufio.Reader, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	line, err := reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// readSecret reads without echo when in is a terminal
func readSecret(reader *bufio.Reader, in io.Reader) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", fmt.Errorf("failed to read token: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return strings.TrimSpace(line), nil
}
