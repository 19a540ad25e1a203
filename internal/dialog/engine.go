package dialog

import (
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mexan-workshop/mexanbot/internal/session"
	"github.com/mexan-workshop/mexanbot/internal/store"
)

const (
	archiveWindowDays  = 60
	archiveFilterDays  = 365
	reportWeekBuckets  = 4
	reportMonthBuckets = 12
)

const (
	msgInternalError = "😕 Something went wrong, please try again."
	msgNotFound      = "🔍 That repair no longer exists."
	msgStaleAction   = "This button is no longer active. Use the menu below."
)

type Engine struct {
	store      *store.Store
	sessions   *session.Store
	sources    map[string]string
	sourceKeys []string
	log        zerolog.Logger
}

func NewEngine(st *store.Store, sessions *session.Store, sources map[string]string, log zerolog.Logger) *Engine {
	keys := make([]string, 0, len(sources))
	for key := range sources {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return &Engine{
		store:      st,
		sessions:   sessions,
		sources:    sources,
		sourceKeys: keys,
		log:        log.With().Str("component", "dialog").Logger(),
	}
}

func (e *Engine) sourceLabel(key string) string {
	if label, ok := e.sources[key]; ok {
		return label
	}
	return key
}

// HandleText routes one incoming text message. Menu buttons and /start
// abort any in-flight dialog; everything else dispatches on the current
// stage.
func (e *Engine) HandleText(userID int64, text string) []Reply {
	text = strings.TrimSpace(text)

	switch text {
	case "/start", "/menu":
		e.sessions.Clear(userID)
		return []Reply{menuReply("👋 Workshop assistant at your service. Pick an action below.")}
	case MenuNewRepair:
		return e.startCreation(userID)
	case MenuActive:
		e.sessions.Clear(userID)
		return e.listActive()
	case MenuArchive:
		e.sessions.Clear(userID)
		return e.listArchive()
	case MenuReports:
		return e.startReport(userID)
	}

	sess := e.sessions.Get(userID)
	switch sess.Stage {
	case session.StageName, session.StageContact, session.StageBikeName,
		session.StageBreakdowns, session.StageElectricCustom,
		session.StageCost, session.StageNotes:
		return e.creationText(userID, sess, text)
	case session.StageEditName, session.StageEditContact, session.StageEditBikeName,
		session.StageEditBreakdowns, session.StageEditElectricCustom,
		session.StageEditCost, session.StageEditNotes,
		session.StageEditDate, session.StageEditArchiveDate:
		return e.editText(userID, sess, text)
	}
	// Text arrived while a button choice (or nothing) was pending; the
	// pending dialog is abandoned so the menu message tells the truth.
	e.sessions.Clear(userID)
	return []Reply{menuReply("I did not catch that. Pick an action below.")}
}

// HandleCallback routes one inline-button press. Data is a colon-delimited
// tag; unknown or stale tags get a gentle notice, never a crash.
func (e *Engine) HandleCallback(userID int64, data string) []Reply {
	action, args := splitAction(data)
	sess := e.sessions.Get(userID)

	switch action {
	case "new_repair":
		return e.startCreation(userID)
	case "show_repair":
		return e.showRepair(args)
	case "edit_repair":
		return e.startEdit(userID, sess, args)
	case "cancel_edit":
		return e.cancelEdit(userID, args)
	case "close_repair":
		return e.closeRepair(userID, args)
	case "field":
		return e.chooseField(sess, args)
	case "set_source":
		return e.creationSource(sess, args)
	case "edit_source":
		return e.editSource(userID, args)
	case "set_bike_type":
		return e.chooseBikeType(userID, sess, args)
	case "add_problem":
		return e.toggleProblem(sess, args)
	case "custom_breakdowns":
		return e.askCustomBreakdowns(sess)
	case "finish_breakdowns":
		return e.finishBreakdowns(userID, sess)
	case "confirm_cost":
		return e.confirmCost(userID, sess, args)
	case "enter_custom_cost":
		return e.askCustomCost(sess)
	case "skip_notes":
		return e.skipNotes(userID, sess)
	case "restore_repair":
		return e.restoreRepair(args)
	case "edit_archive_date":
		return e.startArchiveDateEdit(sess, args)
	case "delete_archived":
		return e.deleteArchived(args)
	case "archive_filter":
		return e.archiveFiltered(args)
	case "report_filter":
		return e.reportFilter(sess, args)
	case "report_type":
		return e.reportRender(userID, sess, args)
	}

	e.log.Debug().Str("action", action).Msg("unknown callback action")
	return []Reply{textReply(msgStaleAction)}
}

func splitAction(data string) (action, args string) {
	if i := strings.Index(data, ":"); i >= 0 {
		return data[:i], data[i+1:]
	}
	return data, ""
}

func parseID(args string) (int, bool) {
	id, err := strconv.Atoi(args)
	return id, err == nil && id > 0
}

func (e *Engine) internalError(err error, op string) []Reply {
	e.log.Error().Err(err).Str("op", op).Msg("store operation failed")
	return []Reply{textReply(msgInternalError)}
}

func (e *Engine) listActive() []Reply {
	recs, err := e.store.ListActive()
	if err != nil {
		return e.internalError(err, "list active")
	}
	if len(recs) == 0 {
		return []Reply{menuReply("🚲 No active repairs.")}
	}
	replies := make([]Reply, 0, len(recs)+1)
	replies = append(replies, menuReply("🚲 Active repairs:"))
	for _, r := range recs {
		replies = append(replies, keyboardReply(e.Card(r), recordKeyboard(r.ID)))
	}
	return replies
}

func (e *Engine) showRepair(args string) []Reply {
	id, ok := parseID(args)
	if !ok {
		return []Reply{textReply(msgStaleAction)}
	}
	rec, found, err := e.store.GetActive(id)
	if err != nil {
		return e.internalError(err, "get active")
	}
	if !found {
		return []Reply{textReply(msgNotFound)}
	}
	return []Reply{editReply(e.Card(rec), recordKeyboard(rec.ID))}
}

func (e *Engine) closeRepair(userID int64, args string) []Reply {
	id, ok := parseID(args)
	if !ok {
		return []Reply{textReply(msgStaleAction)}
	}
	moved, err := e.store.Archive(id)
	if err != nil {
		return e.internalError(err, "archive")
	}
	if !moved {
		return []Reply{textReply(msgNotFound)}
	}
	e.sessions.Clear(userID)
	return []Reply{menuReply("✅ Repair #" + args + " closed and archived.")}
}
