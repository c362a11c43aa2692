package render

import (
	"encoding/json"
	"fmt"
	"io"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/pevans/grantfeed/classify"
	"github.com/pevans/grantfeed/store"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	metaStyle  = lipgloss.NewStyle().Faint(true)
)

// badge renders the category label in its color.
func badge(category string) string {
	style := classify.StyleFor(classify.Category(category))
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(style.Color)).
		Render(style.Icon + " " + style.Label)
}

// PrintTable prints items in human-readable form. Colors are dropped when
// w is not a terminal.
func PrintTable(w io.Writer, items []store.Item, total, offset int) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No items to display.")
		return
	}

	fmt.Fprintf(w, "Showing %d-%d of %d items\n\n", offset+1, offset+len(items), total)

	for _, item := range items {
		// Width in terminal cells; CJK characters take two.
		title := ansi.Truncate(item.Title, 70, "...")

		line := titleStyle.Render(title)
		if item.Category != "" {
			line = badge(item.Category) + " " + line
		}
		lipgloss.Fprintln(w, line)

		meta := "   Discovered: " + item.DiscoveredDate
		if item.Tier != "" && item.Tier != string(classify.TierUnknown) {
			meta += " | Tier: " + item.Tier
		}
		lipgloss.Fprintln(w, metaStyle.Render(meta))
		fmt.Fprintf(w, "   URL: %s\n", item.Link)
		fmt.Fprintf(w, "   ID: %s\n\n", item.ID.String())
	}
}

// PrintJSON prints items and the total as JSON.
func PrintJSON(w io.Writer, items []store.Item, total int) error {
	if items == nil {
		items = []store.Item{}
	}
	output := map[string]any{
		"items": items,
		"total": total,
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	_, err = fmt.Fprintln(w, string(data))
	return err
}

// PrintCompact prints one line per item.
func PrintCompact(w io.Writer, items []store.Item) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No items to display.")
		return
	}

	for _, item := range items {
		shortID := item.ID.String()[:8]
		fmt.Fprintf(w, "%s %s %s\n", shortID, item.DiscoveredDate, item.Title)
	}
}
