package repair

const (
	// DateLayout is the day-month-year format used everywhere a date is
	// stored or typed by the operator.
	DateLayout = "02.01.2006"

	// ElectricBikeName is the fixed bike name for electric records. Every
	// write path that switches a record to electric re-imposes it.
	ElectricBikeName = "Electric bike"

	// SourceUnknown tags records created before a source was picked.
	SourceUnknown = "unknown"
)

// Record is a single repair order. JSON field names match the legacy data
// files so existing active/archive collections load unchanged.
type Record struct {
	ID         int      `json:"id"`
	Customer   string   `json:"FIO"`
	Contact    string   `json:"contact"`
	Source     string   `json:"repair_type"`
	Mechanical bool     `json:"isMechanics"`
	BikeName   string   `json:"namebike"`
	Breakdowns []string `json:"breakdowns"`
	Cost       int      `json:"cost"`
	Notes      string   `json:"notes"`
	Created    string   `json:"date"`
	Archived   string   `json:"archive_date,omitempty"`
}

// Clone returns a copy that shares no slice storage with the original.
func (r Record) Clone() Record {
	out := r
	if r.Breakdowns != nil {
		out.Breakdowns = make([]string, len(r.Breakdowns))
		copy(out.Breakdowns, r.Breakdowns)
	}
	return out
}
