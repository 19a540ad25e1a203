package dialog

import (
	"github.com/mexan-workshop/mexanbot/internal/session"
	"github.com/mexan-workshop/mexanbot/internal/store"
)

func (e *Engine) startReport(userID int64) []Reply {
	e.sessions.Clear(userID)
	return []Reply{keyboardReply("📊 Report for which source?", e.reportFilterKeyboard())}
}

func (e *Engine) reportFilter(sess *session.Session, sourceKey string) []Reply {
	sess.Stage = session.StageReportPeriod
	sess.ReportFilter = sourceKey
	return []Reply{editReply("📊 Which period?", reportPeriodKeyboard())}
}

func (e *Engine) reportRender(userID int64, sess *session.Session, period string) []Reply {
	if sess.Stage != session.StageReportPeriod {
		return []Reply{textReply(msgStaleAction)}
	}

	var n int
	switch period {
	case store.PeriodWeek:
		n = reportWeekBuckets
	case store.PeriodMonth:
		n = reportMonthBuckets
	default:
		return []Reply{textReply(msgStaleAction)}
	}

	buckets, err := e.store.Report(period, n, sess.ReportFilter)
	if err != nil {
		return e.internalError(err, "report")
	}

	label := "All sources"
	if sess.ReportFilter != store.SourceAll {
		label = e.sourceLabel(sess.ReportFilter)
	}
	e.sessions.Clear(userID)
	return []Reply{menuReply(FormatReport(buckets, label))}
}
