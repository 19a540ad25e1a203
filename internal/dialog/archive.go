package dialog

import (
	"github.com/mexan-workshop/mexanbot/internal/session"
)

// listArchive shows the trailing-60-day archive, one card per record, plus
// a source filter for the longer window.
func (e *Engine) listArchive() []Reply {
	recs, err := e.store.RecentArchived(archiveWindowDays, "")
	if err != nil {
		return e.internalError(err, "recent archived")
	}
	if len(recs) == 0 {
		return []Reply{
			menuReply("📦 Nothing archived in the last 60 days."),
			keyboardReply("Look further back by source:", e.archiveFilterKeyboard()),
		}
	}
	replies := make([]Reply, 0, len(recs)+2)
	replies = append(replies, menuReply("📦 Archived in the last 60 days:"))
	for _, r := range recs {
		replies = append(replies, keyboardReply(e.Card(r), archiveRecordKeyboard(r.ID)))
	}
	replies = append(replies, keyboardReply("Look further back by source:", e.archiveFilterKeyboard()))
	return replies
}

// archiveFiltered is the year-deep view behind the source filter buttons.
func (e *Engine) archiveFiltered(sourceKey string) []Reply {
	recs, err := e.store.RecentArchived(archiveFilterDays, sourceKey)
	if err != nil {
		return e.internalError(err, "recent archived")
	}
	if len(recs) == 0 {
		return []Reply{textReply("📦 No " + e.sourceLabel(sourceKey) + " repairs archived in the last year.")}
	}
	replies := make([]Reply, 0, len(recs)+1)
	replies = append(replies, textReply("📦 "+e.sourceLabel(sourceKey)+", last year:"))
	for _, r := range recs {
		replies = append(replies, keyboardReply(e.Card(r), archiveRecordKeyboard(r.ID)))
	}
	return replies
}

func (e *Engine) restoreRepair(args string) []Reply {
	id, ok := parseID(args)
	if !ok {
		return []Reply{textReply(msgStaleAction)}
	}
	moved, err := e.store.Restore(id)
	if err != nil {
		return e.internalError(err, "restore")
	}
	if !moved {
		return []Reply{textReply(msgNotFound)}
	}
	e.log.Info().Int("id", id).Msg("repair restored")
	return []Reply{menuReply("♻️ Repair #" + args + " is active again.")}
}

func (e *Engine) startArchiveDateEdit(sess *session.Session, args string) []Reply {
	id, ok := parseID(args)
	if !ok {
		return []Reply{textReply(msgStaleAction)}
	}
	sess.Stage = session.StageEditArchiveDate
	sess.EditID = id
	return []Reply{textReply("📅 New archive date, DD.MM.YYYY?")}
}

// deleteArchived removes the record for good; there is no confirmation
// step beyond the button press and no undo.
func (e *Engine) deleteArchived(args string) []Reply {
	id, ok := parseID(args)
	if !ok {
		return []Reply{textReply(msgStaleAction)}
	}
	removed, err := e.store.DeleteArchived(id)
	if err != nil {
		return e.internalError(err, "delete archived")
	}
	if !removed {
		return []Reply{textReply(msgNotFound)}
	}
	e.log.Info().Int("id", id).Msg("archived repair deleted")
	return []Reply{menuReply("🗑 Repair #" + args + " deleted permanently.")}
}
