package execclipboard

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/maskgif/maskgif"
	"go.uber.org/zap"
)

// Command clipboard tool invocation, the image is written to stdin
type Command struct {
	Name string
	Args []string
	// Env required environment variable, skipped when unset
	Env string
}

// DefaultCommands wayland first, then X11
var DefaultCommands = []Command{
	{Name: "wl-copy", Args: []string{"--type", "image/gif"}, Env: "WAYLAND_DISPLAY"},
	{Name: "xclip", Args: []string{"-selection", "clipboard", "-t", "image/gif", "-i"}, Env: "DISPLAY"},
}

// DefaultWaitDelay how long Write waits for output pipes once the tool exited
const DefaultWaitDelay = 200 * time.Millisecond

// ExecClipboard writes images to the system clipboard through an external tool
type ExecClipboard struct {
	Commands []Command
	Logger   *zap.Logger

	// WaitDelay bounds the wait on pipes held open by a forked selection owner
	WaitDelay time.Duration

	lookPath func(string) (string, error)
	getenv   func(string) string
}

// New creates ExecClipboard
func New(options ...Option) *ExecClipboard {
	c := &ExecClipboard{
		Commands:  DefaultCommands,
		Logger:    zap.NewNop(),
		WaitDelay: DefaultWaitDelay,
		lookPath:  exec.LookPath,
		getenv:    os.Getenv,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// Available returns the first usable command
func (c *ExecClipboard) Available() (Command, string, bool) {
	for _, cmd := range c.Commands {
		if cmd.Env != "" && c.getenv(cmd.Env) == "" {
			continue
		}
		if p, err := c.lookPath(cmd.Name); err == nil {
			return cmd, p, true
		}
	}
	return Command{}, "", false
}

// Write implements maskgif.Clipboard interface
func (c *ExecClipboard) Write(ctx context.Context, blob *maskgif.Blob) error {
	buf, err := blob.ReadAll()
	if err != nil {
		return err
	}
	cmd, path, ok := c.Available()
	if !ok {
		return maskgif.ErrClipboardUnsupported
	}
	stderr := &bytes.Buffer{}
	proc := exec.CommandContext(ctx, path, cmd.Args...)
	proc.Stdin = bytes.NewReader(buf)
	proc.Stderr = stderr
	// wl-copy and xclip fork a child that keeps serving the selection
	proc.WaitDelay = c.WaitDelay
	c.Logger.Debug("clipboard write", zap.String("command", cmd.Name), zap.Int("size", len(buf)))
	if err := proc.Run(); err != nil {
		if errors.Is(err, exec.ErrWaitDelay) {
			c.Logger.Debug("clipboard owner detached", zap.String("command", cmd.Name))
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		msg := strings.TrimSpace(stderr.String())
		if errors.Is(err, os.ErrPermission) || strings.Contains(strings.ToLower(msg), "permission denied") {
			return maskgif.ErrClipboardPermissionDenied.WithDetail(cmd.Name)
		}
		if msg == "" {
			msg = err.Error()
		}
		return maskgif.ErrCopy.WithDetail(cmd.Name + ": " + msg)
	}
	return nil
}
