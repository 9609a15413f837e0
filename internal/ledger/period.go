package ledger

import (
	"fmt"
	"strings"
	"time"
)

// Grouping selects the report bucket size.
type Grouping int

const (
	GroupDay Grouping = iota
	GroupWeek
	GroupMonth
)

func (g Grouping) String() string {
	switch g {
	case GroupDay:
		return "day"
	case GroupWeek:
		return "week"
	case GroupMonth:
		return "month"
	default:
		return "day"
	}
}

// ParseGrouping parses a group_by value.
func ParseGrouping(s string) (Grouping, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "day", "daily":
		return GroupDay, nil
	case "week", "weekly":
		return GroupWeek, nil
	case "month", "monthly":
		return GroupMonth, nil
	default:
		return GroupDay, fmt.Errorf("unknown group_by %q", s)
	}
}

// Bucket returns the bucket label a date falls into. Weeks use ISO
// week/year, months the calendar year/month.
func (g Grouping) Bucket(t time.Time) string {
	switch g {
	case GroupWeek:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case GroupMonth:
		return t.Format("2006-01")
	default:
		return t.Format("2006-01-02")
	}
}
