// Package story holds the normalized headline model and the pure
// merge/dedupe logic shared by the refresh pipeline and its tests.
package story

import (
	"sort"
	"time"
)

// Story is one normalized feed item bound to a state.
type Story struct {
	ID       string `json:"id"`
	FeedID   string `json:"feedId"`
	State    string `json:"state"`
	Title    string `json:"title"`
	Link     string `json:"link"`
	PubDate  string `json:"pubDate"`
	Source   string `json:"source"`
	IsDefcon bool   `json:"isDefcon"`
}

// pubDateLayouts are tried in order when parsing feed timestamps. RSS most
// commonly uses RFC1123 variants; Atom feeds carry RFC3339.
var pubDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2006-01-02 15:04:05",
}

// ParseTime parses a story pubDate string. Unparseable or absent dates
// return the zero time, which sorts to the end of a merged list.
func ParseTime(pubDate string) time.Time {
	if pubDate == "" {
		return time.Time{}
	}
	for _, layout := range pubDateLayouts {
		if t, err := time.Parse(layout, pubDate); err == nil {
			return t
		}
	}
	return time.Time{}
}

// DedupeKey is the identity used to collapse duplicates across refreshes:
// the link when present, otherwise title joined with pubDate.
func DedupeKey(s Story) string {
	if s.Link != "" {
		return s.Link
	}
	return s.Title + "-" + s.PubDate
}

// Merge combines existing and incoming stories, dropping duplicates and
// sorting by descending publish time. The existing list is scanned first,
// so a story already known is never replaced by a refetched copy even if
// its other fields differ. Merge is pure and idempotent over already-seen
// stories.
func Merge(existing, incoming []Story) []Story {
	merged := make([]Story, 0, len(existing)+len(incoming))
	seen := make(map[string]struct{}, len(existing)+len(incoming))

	for _, lists := range [][]Story{existing, incoming} {
		for _, s := range lists {
			key := DedupeKey(s)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, s)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return ParseTime(merged[i].PubDate).After(ParseTime(merged[j].PubDate))
	})

	return merged
}
