package dialog

import (
	"fmt"
	"strings"

	"github.com/mexan-workshop/mexanbot/internal/repair"
	"github.com/mexan-workshop/mexanbot/internal/store"
)

// ShortName collapses a full name to surname plus initials:
// "Ivanov Ivan Ivanovich" becomes "Ivanov I. I.".
func ShortName(full string) string {
	parts := strings.Fields(full)
	if len(parts) <= 1 {
		return full
	}
	var b strings.Builder
	b.WriteString(parts[0])
	for _, p := range parts[1:] {
		r := []rune(p)
		b.WriteString(" ")
		b.WriteString(string(r[0]))
		b.WriteString(".")
	}
	return b.String()
}

// Card renders one repair as an HTML detail card.
func (e *Engine) Card(r repair.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔧 <b>Repair #%d</b>\n", r.ID)
	fmt.Fprintf(&b, "👤 Customer: %s\n", ShortName(r.Customer))
	fmt.Fprintf(&b, "📞 Contact: %s\n", r.Contact)
	fmt.Fprintf(&b, "📣 Source: %s\n", e.sourceLabel(r.Source))
	kind := "Electric"
	if r.Mechanical {
		kind = "Mechanical"
	}
	fmt.Fprintf(&b, "🚲 Bike: %s (%s)\n", r.BikeName, kind)
	if len(r.Breakdowns) > 0 {
		b.WriteString("🛠 Breakdowns:\n")
		for _, entry := range r.Breakdowns {
			fmt.Fprintf(&b, "  • %s\n", entry)
		}
	} else {
		b.WriteString("🛠 Breakdowns: none\n")
	}
	fmt.Fprintf(&b, "💰 Cost: %d\n", r.Cost)
	fmt.Fprintf(&b, "📝 Notes: %s\n", r.Notes)
	fmt.Fprintf(&b, "📅 Created: %s", r.Created)
	if r.Archived != "" {
		fmt.Fprintf(&b, "\n📦 Archived: %s", r.Archived)
	}
	return b.String()
}

// FormatReport renders non-empty buckets; a report with no repairs at all
// says so instead of printing blank periods.
func FormatReport(buckets []store.ReportBucket, sourceLabel string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 <b>Report: %s</b>\n", sourceLabel)
	printed := 0
	for _, bucket := range buckets {
		if bucket.Count == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n<b>%s</b>\n", bucket.Label)
		fmt.Fprintf(&b, "  Repairs: %d\n", bucket.Count)
		fmt.Fprintf(&b, "  Revenue: %d\n", bucket.TotalCost)
		printed++
	}
	if printed == 0 {
		b.WriteString("\nNo repairs in this period.")
	}
	return b.String()
}
