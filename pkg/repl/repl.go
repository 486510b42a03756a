// Package repl is an interactive terminal browser over the discovery
// service.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/soshbru/soshbru/pkg/service"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	nameColor   = color.New(color.FgGreen, color.Bold)
	mutedColor  = color.New(color.FgHiBlack)
	onColor     = color.New(color.FgYellow)
	errorColor  = color.New(color.FgRed)
)

// Browser keeps one browsing session and renders it to out.
type Browser struct {
	discovery *service.DiscoveryService
	sessionID string
	out       io.Writer
}

// NewBrowser starts a session on discovery.
func NewBrowser(discovery *service.DiscoveryService, out io.Writer) (*Browser, error) {
	sess, err := discovery.CreateSession(nil, "")
	if err != nil {
		return nil, err
	}
	return &Browser{discovery: discovery, sessionID: sess.ID, out: out}, nil
}

// Run reads commands from in until EOF or "exit".
func Run(ctx context.Context, discovery *service.DiscoveryService, in io.Reader, out io.Writer) error {
	b, err := NewBrowser(discovery, out)
	if err != nil {
		return err
	}

	headerColor.Fprintln(out, "\n--- soshbru cafe browser ---")
	fmt.Fprintln(out, "Type 'help' for commands, 'exit' to stop.")
	b.list(ctx)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !b.Execute(ctx, line) {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// Execute runs one command line and reports whether to keep going.
func (b *Browser) Execute(ctx context.Context, line string) bool {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "exit", "quit":
		return false
	case "help":
		b.help()
	case "search":
		b.search(ctx, arg)
	case "toggle":
		b.toggle(ctx, arg)
	case "filters":
		b.filters(ctx)
	case "list":
		b.list(ctx)
	case "show":
		b.show(ctx, arg)
	case "mode":
		b.mode(ctx, arg)
	case "suggest":
		b.suggest(ctx, arg)
	case "reset":
		b.reset(ctx)
	default:
		errorColor.Fprintf(b.out, "Unknown command %q. Type 'help'.\n", cmd)
	}
	return true
}

func (b *Browser) help() {
	headerColor.Fprintln(b.out, "Commands:")
	for _, l := range [][2]string{
		{"search <text>", "match names and descriptions (empty clears)"},
		{"toggle <filter>", "switch a filter on or off"},
		{"filters", "show filters, counts and what is on"},
		{"mode any|all", "combine filters with OR or AND"},
		{"list", "show matching cafes"},
		{"show <id>", "show one cafe"},
		{"suggest <name>", "find cafes by approximate name"},
		{"reset", "clear search and filters"},
		{"exit", "leave"},
	} {
		fmt.Fprintf(b.out, "  %-18s %s\n", l[0], mutedColor.Sprint(l[1]))
	}
}

func (b *Browser) fail(err error) {
	errorColor.Fprintf(b.out, "❌ %v\n", err)
}
