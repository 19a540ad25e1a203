package repair

import (
	"regexp"
	"strconv"
	"strings"
)

var trailingPrice = regexp.MustCompile(`\s+(\d+)$`)

// ParseBreakdowns splits free-form comma-separated input into breakdown
// entries. A segment ending in whitespace plus digits carries an embedded
// price; the segment is kept whole (text and price) and the price is added
// to the returned total. Segments without a price are kept verbatim.
// The "-" skip sentinel is the caller's business, not the parser's.
func ParseBreakdowns(text string) ([]string, int) {
	parts := strings.Split(text, ",")
	entries := make([]string, 0, len(parts))
	total := 0
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if m := trailingPrice.FindStringSubmatch(part); m != nil {
			if price, err := strconv.Atoi(m[1]); err == nil {
				total += price
			}
		}
		entries = append(entries, part)
	}
	return entries, total
}

// BaseName strips a trailing embedded price from a breakdown entry, so a
// standard entry that was later given a price still matches its button.
func BaseName(entry string) string {
	if loc := trailingPrice.FindStringIndex(entry); loc != nil {
		return entry[:loc[0]]
	}
	return entry
}

// HasPrice reports whether the entry carries an embedded price.
func HasPrice(entry string) bool {
	return trailingPrice.MatchString(entry)
}

// SumEmbedded totals the embedded prices across a breakdown list.
func SumEmbedded(entries []string) int {
	total := 0
	for _, entry := range entries {
		if m := trailingPrice.FindStringSubmatch(entry); m != nil {
			if price, err := strconv.Atoi(m[1]); err == nil {
				total += price
			}
		}
	}
	return total
}

// Normalize de-duplicates a breakdown list on base name. Order follows the
// first occurrence of each base name; a later variant (typically the priced
// one) replaces an earlier bare entry with the same base.
func Normalize(entries []string) []string {
	order := make([]string, 0, len(entries))
	byBase := make(map[string]string, len(entries))
	for _, entry := range entries {
		base := BaseName(entry)
		if _, seen := byBase[base]; !seen {
			order = append(order, base)
		}
		byBase[base] = entry
	}
	out := make([]string, 0, len(order))
	for _, base := range order {
		out = append(out, byBase[base])
	}
	return out
}
