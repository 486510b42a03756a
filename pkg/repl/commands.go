package repl

import (
	"context"
	"fmt"
	"strings"

	"github.com/soshbru/soshbru/pkg/cafe"
	"github.com/soshbru/soshbru/pkg/filter"
)

func (b *Browser) search(ctx context.Context, text string) {
	if _, err := b.discovery.SetQuery(b.sessionID, text); err != nil {
		b.fail(err)
		return
	}
	b.list(ctx)
}

func (b *Browser) toggle(ctx context.Context, raw string) {
	if raw == "" {
		fmt.Fprintln(b.out, "Usage: toggle <filter>")
		return
	}
	res, err := b.discovery.ToggleFilter(b.sessionID, raw)
	if err != nil {
		b.fail(err)
		return
	}
	if !res.Changed {
		errorColor.Fprintf(b.out, "Unknown filter %q.", raw)
		if res.Suggestion != nil {
			fmt.Fprintf(b.out, " Did you mean %s (%s)?", onColor.Sprint(res.Suggestion.ID), res.Suggestion.Label)
		}
		fmt.Fprintln(b.out)
		return
	}
	b.list(ctx)
}

func (b *Browser) mode(ctx context.Context, raw string) {
	if _, err := b.discovery.SetMode(b.sessionID, raw); err != nil {
		b.fail(err)
		return
	}
	b.list(ctx)
}

func (b *Browser) reset(ctx context.Context) {
	if _, err := b.discovery.ResetSession(b.sessionID); err != nil {
		b.fail(err)
		return
	}
	b.list(ctx)
}

func (b *Browser) filters(ctx context.Context) {
	sess, err := b.discovery.Session(b.sessionID)
	if err != nil {
		b.fail(err)
		return
	}
	opts, err := b.discovery.Filters(ctx, sess.Query)
	if err != nil {
		b.fail(err)
		return
	}
	headerColor.Fprintf(b.out, "Filters (mode %s):\n", sess.Mode)
	for _, o := range opts {
		mark := mutedColor.Sprint("○")
		if sess.Selection.Contains(o.ID) {
			mark = onColor.Sprint("●")
		}
		fmt.Fprintf(b.out, "  %s %-15s %-28s %s\n", mark, o.ID, o.Label, mutedColor.Sprintf("%d", o.Count))
	}
}

func (b *Browser) list(ctx context.Context) {
	res, err := b.discovery.SessionResults(ctx, b.sessionID)
	if err != nil {
		b.fail(err)
		return
	}

	summary := fmt.Sprintf("%d cafes", res.Total)
	if res.Query != "" {
		summary += fmt.Sprintf(" matching %q", res.Query)
	}
	headerColor.Fprintf(b.out, "%s [%s]\n", summary, strings.Join(res.Filters, ", "))
	if res.Total == 0 {
		mutedColor.Fprintln(b.out, "  No cafes match. Try 'reset' or fewer filters.")
		return
	}
	for _, c := range res.Cafes {
		b.line(c)
	}
}

func (b *Browser) line(c cafe.Cafe) {
	open := mutedColor.Sprint("closed")
	if c.IsOpen {
		open = onColor.Sprint("open")
	}
	fmt.Fprintf(b.out, "  %s %s  ★%.1f  %s  %s  %d Mbps  %s\n",
		mutedColor.Sprintf("[%s]", c.ID), nameColor.Sprint(c.Name), c.Rating,
		c.Distance, c.PriceLevel, c.WifiSpeedMbps, open)
}

func (b *Browser) show(ctx context.Context, id string) {
	if id == "" {
		fmt.Fprintln(b.out, "Usage: show <id>")
		return
	}
	detail, err := b.discovery.Cafe(ctx, id, "")
	if err != nil {
		b.fail(err)
		return
	}
	c := detail.Cafe
	nameColor.Fprintln(b.out, c.Name)
	if c.Description != "" {
		fmt.Fprintln(b.out, c.Description)
	}
	fmt.Fprintf(b.out, "  Rating      ★%.1f (%d reviews)\n", c.Rating, c.ReviewCount)
	fmt.Fprintf(b.out, "  Price       %s\n", c.PriceLevel)
	fmt.Fprintf(b.out, "  WiFi        %d Mbps\n", c.WifiSpeedMbps)
	fmt.Fprintf(b.out, "  Noise       %s\n", c.NoiseLevel)
	fmt.Fprintf(b.out, "  Occupancy   %d%%\n", c.CurrentOccupancy)
	fmt.Fprintf(b.out, "  On site     %d professionals\n", c.OnSiteProfessionals)
	if c.Address != "" {
		fmt.Fprintf(b.out, "  Address     %s\n", c.Address)
	}

	var matched []string
	for _, o := range filter.Catalog() {
		if o.ID != filter.All && filter.Match(c, o.ID) {
			matched = append(matched, o.Label)
		}
	}
	if len(matched) > 0 {
		fmt.Fprintf(b.out, "  Tags        %s\n", onColor.Sprint(strings.Join(matched, " · ")))
	}
	for _, item := range c.PopularItems {
		fmt.Fprintf(b.out, "  • %s %s %s\n", item.Name, mutedColor.Sprint(item.Price), item.Description)
	}
}

func (b *Browser) suggest(ctx context.Context, text string) {
	got, err := b.discovery.Suggest(ctx, text, 5)
	if err != nil {
		b.fail(err)
		return
	}
	if len(got) == 0 {
		mutedColor.Fprintln(b.out, "No similar cafes.")
		return
	}
	for _, s := range got {
		fmt.Fprintf(b.out, "  %s %s %s\n", mutedColor.Sprintf("[%s]", s.CafeID), nameColor.Sprint(s.Name), mutedColor.Sprintf("%.2f", s.Score))
	}
}
