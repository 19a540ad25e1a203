package dialog

import (
	"strconv"

	"github.com/mexan-workshop/mexanbot/internal/repair"
	"github.com/mexan-workshop/mexanbot/internal/session"
)

// startCreation begins a fresh creation dialog, discarding any in-flight
// state.
func (e *Engine) startCreation(userID int64) []Reply {
	e.sessions.Clear(userID)
	sess := e.sessions.Get(userID)
	sess.Stage = session.StageName
	return []Reply{textReply("🔧 New repair.\n👤 Customer name?")}
}

// creationText handles the free-text stages of the creation flow.
func (e *Engine) creationText(userID int64, sess *session.Session, text string) []Reply {
	switch sess.Stage {
	case session.StageName:
		sess.Draft.Customer = text
		sess.Stage = session.StageSource
		return []Reply{keyboardReply("📣 Where did the customer come from?", e.sourceKeyboard("set_source:", ""))}

	case session.StageContact:
		sess.Draft.Contact = text
		sess.Stage = session.StageBikeType
		return []Reply{keyboardReply("🚲 Bicycle type?", bikeTypeKeyboard())}

	case session.StageBikeName:
		sess.Draft.BikeName = text
		sess.Stage = session.StageBreakdowns
		return []Reply{textReply("🛠 List the breakdowns, comma separated.\nA trailing number is read as the price: \"Chain replacement 500, Flat tire\".\nSend \"-\" if there is nothing to list.")}

	case session.StageBreakdowns:
		if text != "-" {
			entries, _ := repair.ParseBreakdowns(text)
			sess.Working = repair.Normalize(entries)
		}
		sess.Draft.Breakdowns = sess.Working
		sess.SuggestedCost = repair.SumEmbedded(sess.Working)
		return e.askCost(sess, session.StageCost)

	case session.StageElectricCustom:
		if text != "-" {
			entries, _ := repair.ParseBreakdowns(text)
			sess.Working = repair.Normalize(append(sess.Working, entries...))
		}
		sess.Draft.Breakdowns = sess.Working
		sess.SuggestedCost = repair.SumEmbedded(sess.Working)
		return e.askCost(sess, session.StageCost)

	case session.StageCost:
		cost, err := strconv.Atoi(text)
		if err != nil || cost < 0 {
			return []Reply{textReply("💰 Please send the cost as a whole number.")}
		}
		sess.Draft.Cost = cost
		sess.Stage = session.StageNotes
		return []Reply{keyboardReply("📝 Any notes?", notesKeyboard())}

	case session.StageNotes:
		sess.Draft.Notes = text
		return e.finalizeCreation(userID, sess)
	}
	return []Reply{menuReply(msgStaleAction)}
}

// askCost moves to the cost stage, offering the embedded-price sum as a
// one-tap total when there is one.
func (e *Engine) askCost(sess *session.Session, stage session.Stage) []Reply {
	sess.Stage = stage
	if sess.SuggestedCost > 0 {
		return []Reply{keyboardReply(
			"💰 Breakdown prices add up to "+strconv.Itoa(sess.SuggestedCost)+". Use that, or send another amount.",
			costConfirmKeyboard(sess.SuggestedCost),
		)}
	}
	return []Reply{textReply("💰 Repair cost?")}
}

func (e *Engine) creationSource(sess *session.Session, key string) []Reply {
	if sess.Stage != session.StageSource {
		return []Reply{textReply(msgStaleAction)}
	}
	sess.Draft.Source = key
	sess.Stage = session.StageContact
	return []Reply{textReply("📞 Contact (phone or telegram)?")}
}

func (e *Engine) chooseBikeType(userID int64, sess *session.Session, kind string) []Reply {
	mechanical := kind == "mechanics"
	if !mechanical && kind != "electric" {
		return []Reply{textReply(msgStaleAction)}
	}

	switch sess.Stage {
	case session.StageBikeType:
		sess.Draft.Mechanical = mechanical
		if mechanical {
			sess.Stage = session.StageBikeName
			return []Reply{textReply("🏷 Bike make and model?")}
		}
		sess.Draft.BikeName = repair.ElectricBikeName
		return e.startElectricPicker(sess, session.StageElectricSelect, nil)

	case session.StageEditBikeType:
		updated, err := e.store.UpdateField(sess.EditID, repair.SetMechanical(mechanical))
		if err != nil {
			return e.internalError(err, "update bike type")
		}
		if !updated {
			e.sessions.Clear(userID)
			return []Reply{textReply(msgNotFound)}
		}
		return e.finishEdit(userID, sess.EditID)
	}
	return []Reply{textReply(msgStaleAction)}
}

// startElectricPicker opens the standard-breakdown picker seeded with an
// existing working list (nil for creation).
func (e *Engine) startElectricPicker(sess *session.Session, stage session.Stage, seed []string) []Reply {
	standard, err := e.store.StandardBreakdowns()
	if err != nil {
		return e.internalError(err, "standard breakdowns")
	}
	sess.Stage = stage
	sess.Working = seed
	return []Reply{keyboardReply(
		"🛠 Pick the breakdowns, then press Done.",
		electricKeyboard(standard, sess.Working),
	)}
}

// toggleProblem flips one standard option in the working list, matching by
// base name so a priced custom variant still toggles off.
func (e *Engine) toggleProblem(sess *session.Session, name string) []Reply {
	if sess.Stage != session.StageElectricSelect && sess.Stage != session.StageEditElectricSelect {
		return []Reply{textReply(msgStaleAction)}
	}
	kept := sess.Working[:0:0]
	removed := false
	for _, entry := range sess.Working {
		if repair.BaseName(entry) == name {
			removed = true
			continue
		}
		kept = append(kept, entry)
	}
	if !removed {
		kept = append(kept, name)
	}
	sess.Working = kept

	standard, err := e.store.StandardBreakdowns()
	if err != nil {
		return e.internalError(err, "standard breakdowns")
	}
	return []Reply{editReply("🛠 Pick the breakdowns, then press Done.", electricKeyboard(standard, sess.Working))}
}

func (e *Engine) askCustomBreakdowns(sess *session.Session) []Reply {
	switch sess.Stage {
	case session.StageElectricSelect:
		sess.Stage = session.StageElectricCustom
	case session.StageEditElectricSelect:
		sess.Stage = session.StageEditElectricCustom
	default:
		return []Reply{textReply(msgStaleAction)}
	}
	return []Reply{textReply("✏️ Type the extra breakdowns, comma separated (trailing number = price).\nSend \"-\" to keep just the selected ones.")}
}

func (e *Engine) finishBreakdowns(userID int64, sess *session.Session) []Reply {
	switch sess.Stage {
	case session.StageElectricSelect:
		sess.Working = repair.Normalize(sess.Working)
		sess.Draft.Breakdowns = sess.Working
		sess.SuggestedCost = repair.SumEmbedded(sess.Working)
		return e.askCost(sess, session.StageCost)
	case session.StageEditElectricSelect:
		return e.persistEditedBreakdowns(userID, sess)
	}
	return []Reply{textReply(msgStaleAction)}
}

func (e *Engine) confirmCost(userID int64, sess *session.Session, args string) []Reply {
	cost, err := strconv.Atoi(args)
	if err != nil || cost < 0 {
		return []Reply{textReply(msgStaleAction)}
	}
	switch sess.Stage {
	case session.StageCost:
		sess.Draft.Cost = cost
		sess.Stage = session.StageNotes
		return []Reply{keyboardReply("📝 Any notes?", notesKeyboard())}
	case session.StageEditCost:
		return e.persistEdit(userID, sess, repair.SetCost(cost))
	}
	return []Reply{textReply(msgStaleAction)}
}

func (e *Engine) askCustomCost(sess *session.Session) []Reply {
	if sess.Stage != session.StageCost && sess.Stage != session.StageEditCost {
		return []Reply{textReply(msgStaleAction)}
	}
	return []Reply{textReply("💰 Send the cost as a whole number.")}
}

func (e *Engine) skipNotes(userID int64, sess *session.Session) []Reply {
	if sess.Stage != session.StageNotes {
		return []Reply{textReply(msgStaleAction)}
	}
	sess.Draft.Notes = "-"
	return e.finalizeCreation(userID, sess)
}

// finalizeCreation is the single persistence point of the creation flow.
func (e *Engine) finalizeCreation(userID int64, sess *session.Session) []Reply {
	rec := sess.Draft.Clone()
	rec.Created = e.store.Today().Format(repair.DateLayout)
	if rec.Source == "" {
		rec.Source = repair.SourceUnknown
	}
	if rec.BikeName == "" {
		rec.BikeName = "-"
	}
	if rec.Notes == "" {
		rec.Notes = "-"
	}

	saved, err := e.store.Add(rec)
	if err != nil {
		return e.internalError(err, "add record")
	}
	e.sessions.Clear(userID)
	e.log.Info().Int("id", saved.ID).Msg("repair created")
	return []Reply{
		menuReply("✅ Repair #" + strconv.Itoa(saved.ID) + " created."),
		keyboardReply(e.Card(saved), recordKeyboard(saved.ID)),
	}
}
