package orderlist

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/order-tracker/internal/model"
	"github.com/nhle/order-tracker/internal/theme"
)

// OrderItem wraps a model.Order so it can be used in a bubbles/list.
type OrderItem struct {
	Order model.Order
}

// FilterValue returns the string used for fuzzy filtering.
func (i OrderItem) FilterValue() string {
	return i.Order.OrderID + " " + i.Order.SellerName + " " + i.Order.SourceSubject
}

// Title returns the order id for the list.
func (i OrderItem) Title() string { return i.Order.OrderID }

// Description returns a short summary line for the list.
func (i OrderItem) Description() string {
	parts := []string{
		string(i.Order.SourceType),
		i.Order.Status,
		relativeTime(i.Order.SourceDate),
	}
	return strings.Join(parts, " | ")
}

// ItemDelegate implements list.ItemDelegate for rendering order rows.
type ItemDelegate struct {
	// erroredSources maps source ids to true when the source has a sync
	// error. Shared by reference with the orderlist Model so updates
	// are visible.
	erroredSources map[string]bool
}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused for now).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single order line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	orderItem, ok := item.(OrderItem)
	if !ok {
		return
	}

	o := orderItem.Order
	isSelected := index == m.Index()

	source := string(o.SourceType)
	srcBadge := theme.SourceLabelStyle(source).Render(strings.ToUpper(source))

	statusBadge := theme.StatusStyle(o.Status).Render(o.Status)

	seller := lipgloss.NewStyle().
		Foreground(theme.ColorWhite).
		Render(o.SellerName)

	// Delivery date, colored by how close it is.
	deliveryStr := ""
	if o.DeliveryDate != nil {
		days := daysUntil(*o.DeliveryDate)
		deliveryStr = theme.DeliveryStyle(days).
			Render(" due " + o.DeliveryDate.Format("Jan 02"))
	}

	// Sync error indicator for the originating source.
	errIndicator := ""
	if d.erroredSources[o.SourceID] {
		errIndicator = lipgloss.NewStyle().
			Foreground(theme.ColorYellow).
			Render(" ⚠")
	}

	timeStr := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(relativeTime(o.SourceDate))

	line := fmt.Sprintf(
		"● %s %s %s %s%s%s  %s",
		srcBadge, statusBadge, o.OrderID, seller,
		deliveryStr, errIndicator, timeStr,
	)

	if isSelected {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// daysUntil counts whole calendar days from today to t, negative when past.
func daysUntil(t time.Time) int {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return int(day.Sub(today).Hours() / 24)
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		mins := int(d.Minutes())
		if mins == 1 {
			return "1m ago"
		}
		return fmt.Sprintf("%dm ago", mins)
	case d < 24*time.Hour:
		hrs := int(d.Hours())
		if hrs == 1 {
			return "1h ago"
		}
		return fmt.Sprintf("%dh ago", hrs)
	case d < 7*24*time.Hour:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1d ago"
		}
		return fmt.Sprintf("%dd ago", days)
	default:
		weeks := int(d.Hours() / 24 / 7)
		if weeks == 1 {
			return "1w ago"
		}
		return fmt.Sprintf("%dw ago", weeks)
	}
}
