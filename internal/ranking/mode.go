package ranking

import "time"

// Mode selects how Rank orders a listing.
type Mode string

const (
	TopAllTime   Mode = "top-all-time"
	TopPastYear  Mode = "top-past-year"
	TopPastMonth Mode = "top-past-month"
	TopPastWeek  Mode = "top-past-week"
	TopPastDay   Mode = "top-past-day"
	Newest       Mode = "newest"
	Oldest       Mode = "oldest"
	Hot          Mode = "hot"
)

// Modes lists every supported mode, default first.
var Modes = []Mode{Hot, TopAllTime, TopPastYear, TopPastMonth, TopPastWeek, TopPastDay, Newest, Oldest}

var windows = map[Mode]time.Duration{
	TopPastYear:  365 * 24 * time.Hour,
	TopPastMonth: 31 * 24 * time.Hour,
	TopPastWeek:  7 * 24 * time.Hour,
	TopPastDay:   24 * time.Hour,
}

// ParseMode maps a query string to a Mode. Anything unknown, including the
// empty string, is Hot.
func ParseMode(s string) Mode {
	m := Mode(s)
	switch m {
	case TopAllTime, TopPastYear, TopPastMonth, TopPastWeek, TopPastDay, Newest, Oldest:
		return m
	}
	return Hot
}

// Window returns the age limit of a top-past-* mode.
func (m Mode) Window() (time.Duration, bool) {
	d, ok := windows[m]
	return d, ok
}

// IsTop reports whether the mode orders by raw score.
func (m Mode) IsTop() bool {
	if m == TopAllTime {
		return true
	}
	_, ok := windows[m]
	return ok
}

// Cutoff is the oldest creation time a top-past-* mode keeps.
func (m Mode) Cutoff(now time.Time) (time.Time, bool) {
	d, ok := m.Window()
	if !ok {
		return time.Time{}, false
	}
	return now.Add(-d), true
}
