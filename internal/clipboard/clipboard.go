// Package clipboard copies text to the system clipboard through the
// platform's command-line tool.
package clipboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

var ErrToolNotFound = errors.New("clipboard tool not found")

type Command struct {
	Path string
	Args []string
}

type candidate struct {
	name string
	args []string
}

// candidates lists the tools tried per platform, in order of preference.
// clip.exe is included for Linux so that copying works under WSL.
var candidates = map[string][]candidate{
	"darwin": {{name: "pbcopy"}},
	"linux": {
		{name: "wl-copy"},
		{name: "xclip", args: []string{"-selection", "clipboard"}},
		{name: "xsel", args: []string{"--clipboard", "--input"}},
		{name: "clip.exe"},
	},
	"freebsd": {
		{name: "xclip", args: []string{"-selection", "clipboard"}},
		{name: "xsel", args: []string{"--clipboard", "--input"}},
	},
	"windows": {{name: "clip.exe"}, {name: "clip"}},
}

func SelectCommand(goos string, lookPath func(string) (string, error)) (Command, error) {
	for _, c := range candidates[goos] {
		path, err := lookPath(c.name)
		if err != nil {
			continue
		}
		return Command{Path: path, Args: append([]string(nil), c.args...)}, nil
	}
	return Command{}, fmt.Errorf("%w for %s", ErrToolNotFound, goos)
}

// Copy places text on the clipboard.
func Copy(ctx context.Context, text string) error {
	cmdDef, err := SelectCommand(runtime.GOOS, exec.LookPath)
	if err != nil {
		return err
	}
	return Run(ctx, cmdDef, text)
}

// Run feeds text to cmdDef on stdin.
func Run(ctx context.Context, cmdDef Command, text string) error {
	cmd := exec.CommandContext(ctx, cmdDef.Path, cmdDef.Args...)
	cmd.Stdin = strings.NewReader(text)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("clipboard command failed: %w: %s", err, msg)
		}
		return fmt.Errorf("clipboard command failed: %w", err)
	}
	return nil
}
