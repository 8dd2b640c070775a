// Package grouping assigns recordings to weekend keys and sweeps finished
// weekends for homilies that diverge from one another.
package grouping

import (
	"fmt"
	"strings"
	"time"

	"github.com/starford/homilyd/internal/apperr"
)

// KeyLayout is the group key format.
const KeyLayout = "2006-01-02"

const (
	DefaultVigilHour    = 15
	DefaultDeadlineHour = 21
)

// Rule maps recording times to group keys in a reference time zone.
type Rule struct {
	Location *time.Location
	// VigilHour is the Saturday hour from which recordings belong to Sunday.
	VigilHour int
	// DeadlineHour is the hour on the key date after which a group is closed.
	DeadlineHour int
}

// DefaultRule returns the built-in rule in loc.
func DefaultRule(loc *time.Location) Rule {
	return Rule{Location: loc, VigilHour: DefaultVigilHour, DeadlineHour: DefaultDeadlineHour}
}

// Key returns the group key for t under the default rule.
func Key(t time.Time, loc *time.Location) string {
	return DefaultRule(loc).Key(t)
}

func (r Rule) loc() *time.Location {
	if r.Location == nil {
		return time.UTC
	}
	return r.Location
}

// Key returns the ISO date t is grouped under. Saturday recordings from the
// vigil hour onward join the following Sunday; every other recording keeps
// its own date.
func (r Rule) Key(t time.Time) string {
	local := t.In(r.loc())
	if local.Weekday() == time.Saturday && local.Hour() >= r.VigilHour {
		local = local.AddDate(0, 0, 1)
	}
	return local.Format(KeyLayout)
}

// ParseKey parses a group key as midnight in the rule's zone.
func (r Rule) ParseKey(key string) (time.Time, error) {
	d, err := time.ParseInLocation(KeyLayout, strings.TrimSpace(key), r.loc())
	if err != nil {
		return time.Time{}, fmt.Errorf("grouping: key %q: %w", key, apperr.ErrInvalidGroupKey)
	}
	return d, nil
}

// Deadline returns DeadlineHour:00 on the key date.
func (r Rule) Deadline(key string) (time.Time, error) {
	d, err := r.ParseKey(key)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), r.DeadlineHour, 0, 0, 0, r.loc()), nil
}

// Due reports whether now has reached the key's deadline.
func (r Rule) Due(key string, now time.Time) (bool, error) {
	deadline, err := r.Deadline(key)
	if err != nil {
		return false, err
	}
	return !now.Before(deadline), nil
}
