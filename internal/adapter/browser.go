package adapter

import (
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Browser opens catalog pages in an external web browser
type Browser struct {
	command string   // configured browser command, empty for system default
	args    []string // additional arguments placed before the URL
	logger  *slog.Logger

	// start launches a process without waiting for it
	start func(name string, args ...string) error
}

// NewBrowser creates a Browser. An empty command uses the system default handler.
func NewBrowser(command string, args []string, logger *slog.Logger) *Browser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Browser{
		command: command,
		args:    args,
		logger:  logger,
		start:   startCommand,
	}
}

func startCommand(name string, args ...string) error {
	return exec.Command(name, args...).Start() // Start async, don't wait
}

// Open launches url in the configured browser or the system default
func (b *Browser) Open(url string) error {
	if !strings.HasPrefix(url, "https://") && !strings.HasPrefix(url, "http://") {
		return fmt.Errorf("refusing to open non-web URL %q", url)
	}

	if b.command != "" {
		return b.launchConfigured(url)
	}
	return b.launchDefault(url)
}

// launchConfigured opens the URL with the configured command
func (b *Browser) launchConfigured(url string) error {
	args := append(append([]string{}, b.args...), url)

	// On macOS, GUI browsers are usually apps rather than commands in PATH
	if runtime.GOOS == "darwin" {
		if _, err := exec.LookPath(b.command); err != nil {
			app := strings.TrimSuffix(filepath.Base(b.command), ".app")
			cmdArgs := []string{"-a", app, url}
			if len(b.args) > 0 {
				cmdArgs = append(cmdArgs, "--args")
				cmdArgs = append(cmdArgs, b.args...)
			}
			b.logger.Info("using macOS 'open -a' to launch browser", "app", app, "url", url)
			return b.start("open", cmdArgs...)
		}
	}

	b.logger.Info("launching browser", "command", b.command, "args", args)
	if err := b.start(b.command, args...); err != nil {
		return fmt.Errorf("failed to launch %s: %w", b.command, err)
	}
	return nil
}

// launchDefault opens the URL using the system default handler
func (b *Browser) launchDefault(url string) error {
	name, args := defaultOpener(runtime.GOOS, url)
	b.logger.Info("launching with system default", "os", runtime.GOOS, "url", url)
	if err := b.start(name, args...); err != nil {
		return fmt.Errorf("failed to open %s: %w", url, err)
	}
	return nil
}

func defaultOpener(goos, url string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{url}
	case "windows":
		return "cmd", []string{"/c", "start", "", url}
	default:
		// Linux and other Unix-like systems
		return "xdg-open", []string{url}
	}
}
