package dialog

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mexan-workshop/mexanbot/internal/repair"
	"github.com/mexan-workshop/mexanbot/internal/session"
	"github.com/mexan-workshop/mexanbot/internal/store"
)

const testUser int64 = 77

func newTestEngine(t *testing.T) (*Engine, *store.Store) {
	t.Helper()
	st := store.New(t.TempDir())
	st.SetNow(func() time.Time {
		return time.Date(2024, 7, 17, 12, 0, 0, 0, time.UTC) // a Wednesday
	})
	if err := st.SaveStandardBreakdowns([]string{"Flat tire", "Brake adjustment", "Motor diagnostics"}); err != nil {
		t.Fatal(err)
	}
	sources := map[string]string{"avito": "Avito", "website": "Website"}
	return NewEngine(st, session.NewStore(), sources, zerolog.Nop()), st
}

func lastText(replies []Reply) string {
	if len(replies) == 0 {
		return ""
	}
	return replies[len(replies)-1].Text
}

func TestCreationFlow_Mechanical(t *testing.T) {
	e, st := newTestEngine(t)

	e.HandleText(testUser, MenuNewRepair)
	e.HandleText(testUser, "Ivanov Ivan")
	e.HandleCallback(testUser, "set_source:avito")
	e.HandleText(testUser, "+7 900 000-00-00")
	e.HandleCallback(testUser, "set_bike_type:mechanics")
	e.HandleText(testUser, "Stels Navigator")

	replies := e.HandleText(testUser, "Chain replacement 500, Flat tire")
	if !strings.Contains(replies[0].Text, "500") {
		t.Errorf("expected suggested cost 500 in %q", replies[0].Text)
	}

	e.HandleCallback(testUser, "confirm_cost:500")
	replies = e.HandleCallback(testUser, "skip_notes")
	if !strings.Contains(replies[0].Text, "created") {
		t.Fatalf("creation did not finish: %q", replies[0].Text)
	}

	active, err := st.ListActive()
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 1 {
		t.Fatalf("active count = %d, want 1", len(active))
	}
	rec := active[0]
	if rec.ID != 1 || rec.Customer != "Ivanov Ivan" || rec.Contact != "+7 900 000-00-00" {
		t.Errorf("record = %+v", rec)
	}
	if !rec.Mechanical || rec.BikeName != "Stels Navigator" {
		t.Errorf("bike = %q mechanical=%v", rec.BikeName, rec.Mechanical)
	}
	if rec.Source != "avito" || rec.Cost != 500 || rec.Notes != "-" {
		t.Errorf("source=%q cost=%d notes=%q", rec.Source, rec.Cost, rec.Notes)
	}
	if rec.Created != "17.07.2024" {
		t.Errorf("created = %q", rec.Created)
	}
	if len(rec.Breakdowns) != 2 {
		t.Errorf("breakdowns = %v", rec.Breakdowns)
	}
}

func TestCreationFlow_NothingPersistsBeforeFinalize(t *testing.T) {
	e, st := newTestEngine(t)

	e.HandleText(testUser, MenuNewRepair)
	e.HandleText(testUser, "Petrov")
	e.HandleCallback(testUser, "set_source:website")

	active, err := st.ListActive()
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 0 {
		t.Errorf("mid-flow persisted %d records", len(active))
	}

	// Abort via the menu; nothing should ever land.
	e.HandleText(testUser, MenuActive)
	active, _ = st.ListActive()
	if len(active) != 0 {
		t.Errorf("aborted flow persisted %d records", len(active))
	}
}

func TestCreationFlow_Electric(t *testing.T) {
	e, st := newTestEngine(t)

	e.HandleText(testUser, MenuNewRepair)
	e.HandleText(testUser, "Sidorov")
	e.HandleCallback(testUser, "set_source:avito")
	e.HandleText(testUser, "@sidorov")

	replies := e.HandleCallback(testUser, "set_bike_type:electric")
	if replies[0].Keyboard == nil {
		t.Fatal("expected the breakdown picker keyboard")
	}

	e.HandleCallback(testUser, "add_problem:Flat tire")
	e.HandleCallback(testUser, "custom_breakdowns")
	replies = e.HandleText(testUser, "Controller swap 1500")
	if !strings.Contains(replies[0].Text, "1500") {
		t.Errorf("expected suggested cost 1500 in %q", replies[0].Text)
	}

	e.HandleText(testUser, "1700")
	e.HandleText(testUser, "rush job")

	active, _ := st.ListActive()
	if len(active) != 1 {
		t.Fatalf("active count = %d", len(active))
	}
	rec := active[0]
	if rec.Mechanical {
		t.Error("record should be electric")
	}
	if rec.BikeName != repair.ElectricBikeName {
		t.Errorf("bike name = %q", rec.BikeName)
	}
	want := []string{"Flat tire", "Controller swap 1500"}
	if len(rec.Breakdowns) != 2 || rec.Breakdowns[0] != want[0] || rec.Breakdowns[1] != want[1] {
		t.Errorf("breakdowns = %v, want %v", rec.Breakdowns, want)
	}
	if rec.Cost != 1700 || rec.Notes != "rush job" {
		t.Errorf("cost=%d notes=%q", rec.Cost, rec.Notes)
	}
}

func TestCreationFlow_ToggleDeselects(t *testing.T) {
	e, st := newTestEngine(t)

	e.HandleText(testUser, MenuNewRepair)
	e.HandleText(testUser, "X")
	e.HandleCallback(testUser, "set_source:avito")
	e.HandleText(testUser, "x")
	e.HandleCallback(testUser, "set_bike_type:electric")

	e.HandleCallback(testUser, "add_problem:Flat tire")
	e.HandleCallback(testUser, "add_problem:Brake adjustment")
	e.HandleCallback(testUser, "add_problem:Flat tire") // off again
	e.HandleCallback(testUser, "finish_breakdowns")
	e.HandleText(testUser, "300")
	e.HandleCallback(testUser, "skip_notes")

	active, _ := st.ListActive()
	if len(active[0].Breakdowns) != 1 || active[0].Breakdowns[0] != "Brake adjustment" {
		t.Errorf("breakdowns = %v", active[0].Breakdowns)
	}
}

func TestCreationFlow_CostValidation(t *testing.T) {
	e, _ := newTestEngine(t)

	e.HandleText(testUser, MenuNewRepair)
	e.HandleText(testUser, "X")
	e.HandleCallback(testUser, "set_source:avito")
	e.HandleText(testUser, "x")
	e.HandleCallback(testUser, "set_bike_type:mechanics")
	e.HandleText(testUser, "BMX")
	e.HandleText(testUser, "-")

	replies := e.HandleText(testUser, "five hundred")
	if !strings.Contains(replies[0].Text, "whole number") {
		t.Errorf("expected re-prompt, got %q", replies[0].Text)
	}
	// Still at the cost stage, a valid amount proceeds.
	replies = e.HandleText(testUser, "800")
	if replies[0].Keyboard == nil {
		t.Error("expected the notes keyboard next")
	}
}

func TestEditFlow_Customer(t *testing.T) {
	e, st := newTestEngine(t)
	if _, err := st.Add(repair.Record{ID: 1, Customer: "Old Name", Created: "01.07.2024"}); err != nil {
		t.Fatal(err)
	}

	e.HandleCallback(testUser, "edit_repair:1")
	e.HandleCallback(testUser, "field:FIO:1")
	replies := e.HandleText(testUser, "New Name")
	if !strings.Contains(replies[0].Text, "Updated") {
		t.Fatalf("edit did not finish: %q", replies[0].Text)
	}

	rec, _, _ := st.GetActive(1)
	if rec.Customer != "New Name" {
		t.Errorf("customer = %q", rec.Customer)
	}
}

func TestEditFlow_BikeTypeToElectricWipes(t *testing.T) {
	e, st := newTestEngine(t)
	_, err := st.Add(repair.Record{
		ID: 1, Mechanical: true, BikeName: "Falcon",
		Breakdowns: []string{"Flat tire 250"}, Created: "01.07.2024",
	})
	if err != nil {
		t.Fatal(err)
	}

	e.HandleCallback(testUser, "edit_repair:1")
	e.HandleCallback(testUser, "field:isMechanics:1")
	e.HandleCallback(testUser, "set_bike_type:electric")

	rec, _, _ := st.GetActive(1)
	if rec.Mechanical || rec.BikeName != repair.ElectricBikeName || len(rec.Breakdowns) != 0 {
		t.Errorf("record = %+v", rec)
	}
}

func TestEditFlow_ClearedBreakdownsStillAskForCost(t *testing.T) {
	e, st := newTestEngine(t)
	_, err := st.Add(repair.Record{
		ID: 1, Mechanical: true, BikeName: "Falcon",
		Breakdowns: []string{"Chain replacement 500"}, Cost: 500, Created: "01.07.2024",
	})
	if err != nil {
		t.Fatal(err)
	}

	e.HandleCallback(testUser, "edit_repair:1")
	e.HandleCallback(testUser, "field:breakdowns:1")

	// Clearing the list has a zero price sum; the flow must still roll
	// into the cost step instead of leaving the old cost untouched.
	replies := e.HandleText(testUser, "-")
	if !strings.Contains(replies[0].Text, "cost") {
		t.Fatalf("expected a cost prompt, got %q", replies[0].Text)
	}
	rec, _, _ := st.GetActive(1)
	if len(rec.Breakdowns) != 0 {
		t.Errorf("breakdowns = %v, want cleared", rec.Breakdowns)
	}

	e.HandleText(testUser, "0")
	rec, _, _ = st.GetActive(1)
	if rec.Cost != 0 {
		t.Errorf("cost = %d, want 0", rec.Cost)
	}
}

func TestEditFlow_ElectricPickerSeededAndToggleByBaseName(t *testing.T) {
	e, st := newTestEngine(t)
	_, err := st.Add(repair.Record{
		ID: 1, Mechanical: false, BikeName: repair.ElectricBikeName,
		Breakdowns: []string{"Flat tire 250", "Motor diagnostics"},
		Cost:       250, Created: "01.07.2024",
	})
	if err != nil {
		t.Fatal(err)
	}

	e.HandleCallback(testUser, "edit_repair:1")
	replies := e.HandleCallback(testUser, "field:breakdowns:1")
	if replies[0].Keyboard == nil {
		t.Fatal("expected the seeded picker keyboard")
	}
	// The priced variant shows as a checked standard option.
	if got := replies[0].Keyboard.Rows[0][0].Label; got != "✅ Flat tire" {
		t.Errorf("first option label = %q", got)
	}

	// Tapping the bare base name un-selects the priced entry.
	e.HandleCallback(testUser, "add_problem:Flat tire")
	replies = e.HandleCallback(testUser, "finish_breakdowns")
	if !strings.Contains(replies[0].Text, "cost") {
		t.Fatalf("expected a cost prompt, got %q", replies[0].Text)
	}
	e.HandleText(testUser, "400")

	rec, _, _ := st.GetActive(1)
	if len(rec.Breakdowns) != 1 || rec.Breakdowns[0] != "Motor diagnostics" {
		t.Errorf("breakdowns = %v, want [Motor diagnostics]", rec.Breakdowns)
	}
	if rec.Cost != 400 {
		t.Errorf("cost = %d, want 400", rec.Cost)
	}
}

func TestStrayTextDuringButtonStageAbandonsDialog(t *testing.T) {
	e, st := newTestEngine(t)

	e.HandleText(testUser, MenuNewRepair)
	e.HandleText(testUser, "Ivanov")
	// Waiting for a source button; free text abandons the dialog.
	replies := e.HandleText(testUser, "some stray text")
	if !strings.Contains(replies[0].Text, "did not catch") {
		t.Fatalf("got %q", replies[0].Text)
	}
	if !replies[0].MainMenu {
		t.Error("expected the main menu on the fallback reply")
	}

	// The old source button is now stale and nothing was persisted.
	replies = e.HandleCallback(testUser, "set_source:avito")
	if !strings.Contains(replies[0].Text, "no longer active") {
		t.Errorf("got %q", replies[0].Text)
	}
	active, _ := st.ListActive()
	if len(active) != 0 {
		t.Errorf("abandoned flow persisted %d records", len(active))
	}
}

func TestEditFlow_DateValidation(t *testing.T) {
	e, st := newTestEngine(t)
	if _, err := st.Add(repair.Record{ID: 1, Created: "01.07.2024"}); err != nil {
		t.Fatal(err)
	}

	e.HandleCallback(testUser, "edit_repair:1")
	e.HandleCallback(testUser, "field:date:1")

	replies := e.HandleText(testUser, "31.02.2024")
	if !strings.Contains(replies[0].Text, "not a valid date") {
		t.Errorf("expected rejection, got %q", replies[0].Text)
	}
	rec, _, _ := st.GetActive(1)
	if rec.Created != "01.07.2024" {
		t.Errorf("date changed to %q on invalid input", rec.Created)
	}

	e.HandleText(testUser, "15.06.2024")
	rec, _, _ = st.GetActive(1)
	if rec.Created != "15.06.2024" {
		t.Errorf("date = %q", rec.Created)
	}
}

func TestEditFlow_NotFound(t *testing.T) {
	e, _ := newTestEngine(t)
	replies := e.HandleCallback(testUser, "edit_repair:99")
	if !strings.Contains(replies[0].Text, "no longer exists") {
		t.Errorf("got %q", replies[0].Text)
	}
}

func TestStaleCallbackIsHarmless(t *testing.T) {
	e, _ := newTestEngine(t)
	replies := e.HandleCallback(testUser, "confirm_cost:500")
	if !strings.Contains(replies[0].Text, "no longer active") {
		t.Errorf("got %q", replies[0].Text)
	}
	replies = e.HandleCallback(testUser, "bogus_action:1")
	if !strings.Contains(replies[0].Text, "no longer active") {
		t.Errorf("got %q", replies[0].Text)
	}
}

func TestCloseRestoreDelete(t *testing.T) {
	e, st := newTestEngine(t)
	if _, err := st.Add(repair.Record{ID: 1, Customer: "X", Created: "01.07.2024"}); err != nil {
		t.Fatal(err)
	}

	e.HandleCallback(testUser, "close_repair:1")
	archived, _ := st.ListArchived(store.SourceAll)
	if len(archived) != 1 || archived[0].Archived != "17.07.2024" {
		t.Fatalf("archived = %+v", archived)
	}

	e.HandleCallback(testUser, "restore_repair:1")
	if _, found, _ := st.GetActive(1); !found {
		t.Fatal("record not restored")
	}

	e.HandleCallback(testUser, "close_repair:1")
	e.HandleCallback(testUser, "delete_archived:1")
	archived, _ = st.ListArchived(store.SourceAll)
	if len(archived) != 0 {
		t.Errorf("archive count = %d after delete", len(archived))
	}
}

func TestArchiveDateEdit(t *testing.T) {
	e, st := newTestEngine(t)
	if _, err := st.Add(repair.Record{ID: 1, Created: "01.07.2024"}); err != nil {
		t.Fatal(err)
	}
	e.HandleCallback(testUser, "close_repair:1")

	e.HandleCallback(testUser, "edit_archive_date:1")
	replies := e.HandleText(testUser, "10.07.2024")
	if !strings.Contains(replies[0].Text, "Archive date updated") {
		t.Fatalf("got %q", replies[0].Text)
	}
	archived, _ := st.ListArchived(store.SourceAll)
	if archived[0].Archived != "10.07.2024" {
		t.Errorf("archive date = %q", archived[0].Archived)
	}
}

func TestReportFlow(t *testing.T) {
	e, st := newTestEngine(t)
	for _, r := range []repair.Record{
		{ID: 1, Source: "avito", Created: "01.07.2024"},
		{ID: 2, Source: "website", Created: "02.07.2024"},
	} {
		if _, err := st.Add(r); err != nil {
			t.Fatal(err)
		}
	}
	e.HandleCallback(testUser, "close_repair:1")
	e.HandleCallback(testUser, "close_repair:2")
	if _, err := st.UpdateArchivedField(1, repair.SetCost(600)); err != nil {
		t.Fatal(err)
	}
	if _, err := st.UpdateArchivedField(2, repair.SetCost(400)); err != nil {
		t.Fatal(err)
	}

	e.HandleText(testUser, MenuReports)
	e.HandleCallback(testUser, "report_filter:all")
	replies := e.HandleCallback(testUser, "report_type:week")

	text := lastText(replies)
	if !strings.Contains(text, "Repairs: 2") || !strings.Contains(text, "Revenue: 1000") {
		t.Errorf("report = %q", text)
	}

	// Filtered: only the avito record counts.
	e.HandleText(testUser, MenuReports)
	e.HandleCallback(testUser, "report_filter:avito")
	replies = e.HandleCallback(testUser, "report_type:week")
	text = lastText(replies)
	if !strings.Contains(text, "Repairs: 1") || !strings.Contains(text, "Revenue: 600") {
		t.Errorf("filtered report = %q", text)
	}
}

func TestReportPeriodWithoutFilterIsStale(t *testing.T) {
	e, _ := newTestEngine(t)
	replies := e.HandleCallback(testUser, "report_type:week")
	if !strings.Contains(replies[0].Text, "no longer active") {
		t.Errorf("got %q", replies[0].Text)
	}
}

func TestShortName(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Ivanov Ivan Ivanovich", "Ivanov I. I."},
		{"Petrov", "Petrov"},
		{"", ""},
	}
	for _, c := range cases {
		if got := ShortName(c.in); got != c.want {
			t.Errorf("ShortName(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
