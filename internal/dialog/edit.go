package dialog

import (
	"strconv"
	"time"

	"github.com/mexan-workshop/mexanbot/internal/repair"
	"github.com/mexan-workshop/mexanbot/internal/session"
)

func (e *Engine) startEdit(userID int64, sess *session.Session, args string) []Reply {
	id, ok := parseID(args)
	if !ok {
		return []Reply{textReply(msgStaleAction)}
	}
	rec, found, err := e.store.GetActive(id)
	if err != nil {
		return e.internalError(err, "get active")
	}
	if !found {
		e.sessions.Clear(userID)
		return []Reply{textReply(msgNotFound)}
	}
	sess.Stage = session.StageEditField
	sess.EditID = id
	return []Reply{editReply(e.Card(rec)+"\n\nWhich field?", fieldChoiceKeyboard(id))}
}

func (e *Engine) cancelEdit(userID int64, args string) []Reply {
	id, ok := parseID(args)
	if !ok {
		return []Reply{textReply(msgStaleAction)}
	}
	e.sessions.Clear(userID)
	rec, found, err := e.store.GetActive(id)
	if err != nil {
		return e.internalError(err, "get active")
	}
	if !found {
		return []Reply{textReply(msgNotFound)}
	}
	return []Reply{editReply(e.Card(rec), recordKeyboard(id))}
}

// chooseField dispatches the field-choice button to the per-field value
// stage. Args are "<wire name>:<id>".
func (e *Engine) chooseField(sess *session.Session, args string) []Reply {
	wire, idPart := splitAction(args)
	id, ok := parseID(idPart)
	if !ok || sess.Stage != session.StageEditField || sess.EditID != id {
		return []Reply{textReply(msgStaleAction)}
	}

	switch wire {
	case "FIO":
		sess.Stage = session.StageEditName
		return []Reply{textReply("👤 New customer name?")}
	case "contact":
		sess.Stage = session.StageEditContact
		return []Reply{textReply("📞 New contact?")}
	case "repair_type":
		sess.Stage = session.StageEditSource
		return []Reply{keyboardReply("📣 New source?", e.sourceKeyboard("edit_source:", idPart))}
	case "isMechanics":
		sess.Stage = session.StageEditBikeType
		return []Reply{keyboardReply("🚲 Bicycle type?", bikeTypeKeyboard())}
	case "namebike":
		sess.Stage = session.StageEditBikeName
		return []Reply{textReply("🏷 New bike name?")}
	case "breakdowns":
		return e.startBreakdownEdit(sess, id)
	case "cost":
		sess.Stage = session.StageEditCost
		return []Reply{textReply("💰 New cost (whole number)?")}
	case "notes":
		sess.Stage = session.StageEditNotes
		return []Reply{textReply("📝 New notes?")}
	case "date":
		sess.Stage = session.StageEditDate
		return []Reply{textReply("📅 New date, DD.MM.YYYY?")}
	}
	return []Reply{textReply(msgStaleAction)}
}

// startBreakdownEdit branches on the record's type: mechanical records take
// a full-list text replacement, electric ones reopen the picker seeded with
// the current list.
func (e *Engine) startBreakdownEdit(sess *session.Session, id int) []Reply {
	rec, found, err := e.store.GetActive(id)
	if err != nil {
		return e.internalError(err, "get active")
	}
	if !found {
		return []Reply{textReply(msgNotFound)}
	}
	if rec.Mechanical {
		sess.Stage = session.StageEditBreakdowns
		return []Reply{textReply("🛠 Send the full breakdown list, comma separated (replaces the old one).\nSend \"-\" to clear it.")}
	}
	return e.startElectricPicker(sess, session.StageEditElectricSelect, rec.Breakdowns)
}

func (e *Engine) editSource(userID int64, args string) []Reply {
	key, idPart := splitAction(args)
	id, ok := parseID(idPart)
	if !ok {
		return []Reply{textReply(msgStaleAction)}
	}
	updated, err := e.store.UpdateField(id, repair.SetSource(key))
	if err != nil {
		return e.internalError(err, "update source")
	}
	if !updated {
		e.sessions.Clear(userID)
		return []Reply{textReply(msgNotFound)}
	}
	return e.finishEdit(userID, id)
}

// editText handles the free-text value stages of the edit flow.
func (e *Engine) editText(userID int64, sess *session.Session, text string) []Reply {
	switch sess.Stage {
	case session.StageEditName:
		return e.persistEdit(userID, sess, repair.SetCustomer(text))
	case session.StageEditContact:
		return e.persistEdit(userID, sess, repair.SetContact(text))
	case session.StageEditBikeName:
		return e.persistEdit(userID, sess, repair.SetBikeName(text))
	case session.StageEditNotes:
		return e.persistEdit(userID, sess, repair.SetNotes(text))

	case session.StageEditCost:
		cost, err := strconv.Atoi(text)
		if err != nil || cost < 0 {
			return []Reply{textReply("💰 Please send the cost as a whole number.")}
		}
		return e.persistEdit(userID, sess, repair.SetCost(cost))

	case session.StageEditDate:
		if !validDate(text) {
			return []Reply{textReply("📅 That is not a valid date. Format: DD.MM.YYYY.")}
		}
		return e.persistEdit(userID, sess, repair.SetCreated(text))

	case session.StageEditArchiveDate:
		if !validDate(text) {
			return []Reply{textReply("📅 That is not a valid date. Format: DD.MM.YYYY.")}
		}
		updated, err := e.store.UpdateArchivedField(sess.EditID, repair.SetArchived(text))
		if err != nil {
			return e.internalError(err, "update archive date")
		}
		e.sessions.Clear(userID)
		if !updated {
			return []Reply{textReply(msgNotFound)}
		}
		return []Reply{menuReply("✅ Archive date updated.")}

	case session.StageEditBreakdowns:
		if text == "-" {
			sess.Working = nil
		} else {
			entries, _ := repair.ParseBreakdowns(text)
			sess.Working = repair.Normalize(entries)
		}
		return e.persistEditedBreakdowns(userID, sess)

	case session.StageEditElectricCustom:
		if text != "-" {
			entries, _ := repair.ParseBreakdowns(text)
			sess.Working = repair.Normalize(append(sess.Working, entries...))
		}
		return e.persistEditedBreakdowns(userID, sess)
	}
	return []Reply{menuReply(msgStaleAction)}
}

// persistEditedBreakdowns saves the working list and rolls into the cost
// confirmation step so the operator can pick up the new price sum.
func (e *Engine) persistEditedBreakdowns(userID int64, sess *session.Session) []Reply {
	sess.Working = repair.Normalize(sess.Working)
	updated, err := e.store.UpdateField(sess.EditID, repair.SetBreakdowns(sess.Working))
	if err != nil {
		return e.internalError(err, "update breakdowns")
	}
	if !updated {
		e.sessions.Clear(userID)
		return []Reply{textReply(msgNotFound)}
	}
	sess.SuggestedCost = repair.SumEmbedded(sess.Working)
	return e.askCost(sess, session.StageEditCost)
}

// persistEdit applies one field update to the session's edit target and
// closes the dialog with the refreshed card.
func (e *Engine) persistEdit(userID int64, sess *session.Session, upd repair.FieldUpdate) []Reply {
	updated, err := e.store.UpdateField(sess.EditID, upd)
	if err != nil {
		return e.internalError(err, "update "+upd.FieldName())
	}
	if !updated {
		e.sessions.Clear(userID)
		return []Reply{textReply(msgNotFound)}
	}
	return e.finishEdit(userID, sess.EditID)
}

func (e *Engine) finishEdit(userID int64, id int) []Reply {
	e.sessions.Clear(userID)
	rec, found, err := e.store.GetActive(id)
	if err != nil {
		return e.internalError(err, "get active")
	}
	if !found {
		return []Reply{textReply(msgNotFound)}
	}
	e.log.Info().Int("id", id).Msg("repair updated")
	return []Reply{
		menuReply("✅ Updated."),
		keyboardReply(e.Card(rec), recordKeyboard(id)),
	}
}

// validDate accepts only real calendar dates in DD.MM.YYYY form; Go's
// parser already rejects out-of-range days like 31.02.
func validDate(text string) bool {
	_, err := time.Parse(repair.DateLayout, text)
	return err == nil
}
