package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"library-lending/library"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4B5563"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
)

// emit prints v as indented JSON when --json is set; otherwise it prints the
// human-readable text produced by human.
func (a *app) emit(cmd *cobra.Command, v any, human func() string) error {
	out := cmd.OutOrStdout()
	if a.jsonOut {
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
		_, err = fmt.Fprintln(out, string(b))
		return err
	}
	_, err := fmt.Fprintln(out, human())
	return err
}

func renderTable(headers []string, rows [][]string) string {
	if len(rows) == 0 {
		return "Nothing to show."
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...).
		String()
}

func success(format string, args ...any) string {
	return okStyle.Render(fmt.Sprintf(format, args...))
}

func formatDate(t time.Time) string { return t.Local().Format("2006-01-02") }

func truncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	return s[:maxLength-3] + "..."
}

// readPassword reads a password from the command's input. On a terminal the
// input is masked; otherwise one line is read.
func readPassword(cmd *cobra.Command, prompt string) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// actor authenticates the --as user with a password prompt and returns their
// identity.
func (a *app) actor(cmd *cobra.Command) (library.Identity, error) {
	if a.actAs == "" {
		return library.Identity{}, errors.New("this command needs --as <username>")
	}
	password, err := readPassword(cmd, fmt.Sprintf("Password for %s: ", a.actAs))
	if err != nil {
		return library.Identity{}, err
	}
	ctx := cmd.Context()
	u, err := a.mgr.Users().Authenticate(ctx, a.actAs, password)
	if err != nil {
		return library.Identity{}, err
	}
	return a.mgr.Users().Identity(ctx, u.ID)
}

// usernames maps user IDs to usernames for display; unknown IDs fall back to
// the raw ID.
func (a *app) usernames(ctx context.Context) (func(id string) string, error) {
	users, err := a.mgr.Users().List(ctx, library.UserFilter{})
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Username
	}
	return func(id string) string {
		if n, ok := names[id]; ok {
			return n
		}
		return id
	}, nil
}
