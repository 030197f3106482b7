// Package parse holds small total parsing helpers for the time and money
// formats the deal sources emit. Parse failures are reported via the ok
// return, never an error or panic.
package parse

import (
	"fmt"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time with no date or zone attached. Values are
// comparable with ==, which is how award and cash departure times are matched.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// Clock12 renders the time in "03:04 PM" form for display.
func (t TimeOfDay) Clock12() string {
	ref := time.Date(2000, 1, 1, t.Hour, t.Minute, t.Second, 0, time.UTC)
	return ref.Format("03:04 PM")
}

// clockLayouts covers the timestamp formats seen across sources: ISO-8601
// with and without a zone suffix, and 12-hour clock strings.
var clockLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"3:04 PM",
	"03:04 PM",
	"15:04",
	"15:04:05",
}

// Clock extracts the time-of-day from s. Zone offsets are ignored: the
// comparison the pipeline needs is on the local wall clock both sides print.
func Clock(s string) (TimeOfDay, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TimeOfDay{}, false
	}
	for _, layout := range clockLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, true
	}
	return TimeOfDay{}, false
}
