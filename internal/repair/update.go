package repair

// FieldUpdate is a single-field mutation of a Record. The closed set of
// variants gives compile-time exhaustiveness where the legacy data files
// used free-form field-name dispatch; the store still reports the field
// name + found/not-found at its boundary.
type FieldUpdate interface {
	// FieldName returns the JSON name of the field the update targets.
	FieldName() string
	Apply(r *Record)
}

type SetCustomer string

func (SetCustomer) FieldName() string { return "FIO" }
func (u SetCustomer) Apply(r *Record) { r.Customer = string(u) }

type SetContact string

func (SetContact) FieldName() string { return "contact" }
func (u SetContact) Apply(r *Record) { r.Contact = string(u) }

type SetSource string

func (SetSource) FieldName() string { return "repair_type" }
func (u SetSource) Apply(r *Record) { r.Source = string(u) }

// SetMechanical switches the bicycle type. Switching to electric imposes
// the fixed bike name; switching either way wipes the breakdown list so it
// has to be re-entered for the new type.
type SetMechanical bool

func (SetMechanical) FieldName() string { return "isMechanics" }

func (u SetMechanical) Apply(r *Record) {
	r.Mechanical = bool(u)
	r.Breakdowns = nil
	if u {
		r.BikeName = ""
	} else {
		r.BikeName = ElectricBikeName
	}
}

type SetBikeName string

func (SetBikeName) FieldName() string { return "namebike" }
func (u SetBikeName) Apply(r *Record) { r.BikeName = string(u) }

type SetBreakdowns []string

func (SetBreakdowns) FieldName() string { return "breakdowns" }
func (u SetBreakdowns) Apply(r *Record) {
	r.Breakdowns = append([]string(nil), u...)
}

type SetCost int

func (SetCost) FieldName() string { return "cost" }
func (u SetCost) Apply(r *Record) { r.Cost = int(u) }

type SetNotes string

func (SetNotes) FieldName() string { return "notes" }
func (u SetNotes) Apply(r *Record) { r.Notes = string(u) }

type SetCreated string

func (SetCreated) FieldName() string { return "date" }
func (u SetCreated) Apply(r *Record) { r.Created = string(u) }

type SetArchived string

func (SetArchived) FieldName() string { return "archive_date" }
func (u SetArchived) Apply(r *Record) { r.Archived = string(u) }
