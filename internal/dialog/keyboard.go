package dialog

import (
	"strconv"

	"github.com/mexan-workshop/mexanbot/internal/repair"
)

// Main menu labels. The transport renders these as a persistent reply
// keyboard; the engine matches incoming text against them.
const (
	MenuNewRepair = "🔧 New repair"
	MenuActive    = "🚲 Active repairs"
	MenuArchive   = "📦 Archive"
	MenuReports   = "📊 Reports"
)

// MainMenuLabels is the persistent keyboard layout, one button per row.
func MainMenuLabels() [][]string {
	return [][]string{
		{MenuNewRepair},
		{MenuActive},
		{MenuArchive},
		{MenuReports},
	}
}

func (e *Engine) sourceKeyboard(prefix, suffix string) *Keyboard {
	kb := &Keyboard{}
	for _, key := range e.sourceKeys {
		data := prefix + key
		if suffix != "" {
			data += ":" + suffix
		}
		kb.Rows = append(kb.Rows, row(Button{Label: e.sourceLabel(key), Data: data}))
	}
	return kb
}

func bikeTypeKeyboard() *Keyboard {
	return &Keyboard{Rows: [][]Button{
		row(Button{Label: "Mechanical", Data: "set_bike_type:mechanics"}),
		row(Button{Label: "Electric", Data: "set_bike_type:electric"}),
	}}
}

func costConfirmKeyboard(suggested int) *Keyboard {
	return &Keyboard{Rows: [][]Button{
		row(Button{
			Label: "✅ Use " + strconv.Itoa(suggested),
			Data:  "confirm_cost:" + strconv.Itoa(suggested),
		}),
		row(Button{Label: "✏️ Enter another amount", Data: "enter_custom_cost"}),
	}}
}

func notesKeyboard() *Keyboard {
	return &Keyboard{Rows: [][]Button{
		row(Button{Label: "Skip", Data: "skip_notes"}),
	}}
}

func recordKeyboard(id int) *Keyboard {
	sid := strconv.Itoa(id)
	return &Keyboard{Rows: [][]Button{
		row(
			Button{Label: "✏️ Edit", Data: "edit_repair:" + sid},
			Button{Label: "✅ Close", Data: "close_repair:" + sid},
		),
	}}
}

func archiveRecordKeyboard(id int) *Keyboard {
	sid := strconv.Itoa(id)
	return &Keyboard{Rows: [][]Button{
		row(Button{Label: "♻️ Restore", Data: "restore_repair:" + sid}),
		row(Button{Label: "📅 Edit archive date", Data: "edit_archive_date:" + sid}),
		row(Button{Label: "🗑 Delete", Data: "delete_archived:" + sid}),
	}}
}

func fieldChoiceKeyboard(id int) *Keyboard {
	sid := strconv.Itoa(id)
	field := func(label, wire string) []Button {
		return row(Button{Label: label, Data: "field:" + wire + ":" + sid})
	}
	return &Keyboard{Rows: [][]Button{
		field("👤 Customer", "FIO"),
		field("📞 Contact", "contact"),
		field("📣 Source", "repair_type"),
		field("🚲 Bicycle type", "isMechanics"),
		field("🏷 Bike name", "namebike"),
		field("🛠 Breakdowns", "breakdowns"),
		field("💰 Cost", "cost"),
		field("📝 Notes", "notes"),
		field("📅 Date", "date"),
		row(Button{Label: "« Back", Data: "cancel_edit:" + sid}),
	}}
}

// electricKeyboard renders the standard-breakdown picker. Selection is
// matched by base name so a priced variant still shows as checked.
func electricKeyboard(standard, working []string) *Keyboard {
	selected := make(map[string]bool, len(working))
	for _, entry := range working {
		selected[repair.BaseName(entry)] = true
	}
	kb := &Keyboard{}
	for _, name := range standard {
		label := name
		if selected[name] {
			label = "✅ " + name
		}
		kb.Rows = append(kb.Rows, row(Button{Label: label, Data: "add_problem:" + name}))
	}
	kb.Rows = append(kb.Rows,
		row(Button{Label: "✏️ Add custom", Data: "custom_breakdowns"}),
		row(Button{Label: "Done", Data: "finish_breakdowns"}),
	)
	return kb
}

func (e *Engine) reportFilterKeyboard() *Keyboard {
	kb := &Keyboard{Rows: [][]Button{
		row(Button{Label: "All sources", Data: "report_filter:all"}),
	}}
	for _, key := range e.sourceKeys {
		kb.Rows = append(kb.Rows, row(Button{Label: e.sourceLabel(key), Data: "report_filter:" + key}))
	}
	return kb
}

func reportPeriodKeyboard() *Keyboard {
	return &Keyboard{Rows: [][]Button{
		row(Button{Label: "Last 4 weeks", Data: "report_type:week"}),
		row(Button{Label: "Last 12 months", Data: "report_type:month"}),
	}}
}

func (e *Engine) archiveFilterKeyboard() *Keyboard {
	kb := &Keyboard{Rows: [][]Button{
		row(Button{Label: "All sources", Data: "archive_filter:all"}),
	}}
	for _, key := range e.sourceKeys {
		kb.Rows = append(kb.Rows, row(Button{Label: e.sourceLabel(key), Data: "archive_filter:" + key}))
	}
	return kb
}
