package store

import (
	"fmt"
	"time"

	"github.com/mexan-workshop/mexanbot/internal/repair"
)

const (
	PeriodWeek  = "week"
	PeriodMonth = "month"
)

// ReportBucket is one aggregated period of archived repairs.
type ReportBucket struct {
	Label     string
	Start     time.Time
	End       time.Time
	Count     int
	TotalCost int
}

// Report aggregates archived repairs into n trailing period buckets, oldest
// first. Weekly buckets run Monday through Sunday ending at the current
// week's Sunday; monthly buckets are calendar months ending at the current
// one. Records whose archive date does not parse are skipped.
func (s *Store) Report(period string, n int, sourceFilter string) ([]ReportBucket, error) {
	recs, err := s.ListArchived(sourceFilter)
	if err != nil {
		return nil, err
	}

	var buckets []ReportBucket
	switch period {
	case PeriodWeek:
		buckets = weekBuckets(s.today(), n)
	case PeriodMonth:
		buckets = monthBuckets(s.today(), n)
	default:
		return nil, fmt.Errorf("unknown report period %q", period)
	}

	for _, r := range recs {
		when, err := time.Parse(repair.DateLayout, r.Archived)
		if err != nil {
			continue
		}
		for i := range buckets {
			if !when.Before(buckets[i].Start) && !when.After(buckets[i].End) {
				buckets[i].Count++
				buckets[i].TotalCost += r.Cost
				break
			}
		}
	}
	return buckets, nil
}

func weekBuckets(today time.Time, n int) []ReportBucket {
	daysToSunday := (7 - int(today.Weekday())) % 7
	sunday := today.AddDate(0, 0, daysToSunday)

	buckets := make([]ReportBucket, 0, n)
	for i := n - 1; i >= 0; i-- {
		end := sunday.AddDate(0, 0, -7*i)
		start := end.AddDate(0, 0, -6)
		buckets = append(buckets, ReportBucket{
			Label: start.Format(repair.DateLayout) + " - " + end.Format(repair.DateLayout),
			Start: start,
			End:   end,
		})
	}
	return buckets
}

func monthBuckets(today time.Time, n int) []ReportBucket {
	buckets := make([]ReportBucket, 0, n)
	for i := n - 1; i >= 0; i-- {
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -i, 0)
		last := first.AddDate(0, 1, -1)
		buckets = append(buckets, ReportBucket{
			Label: first.Format("January 2006"),
			Start: first,
			End:   last,
		})
	}
	return buckets
}
