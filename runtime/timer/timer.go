// Package timer computes job due dates from timer expressions.
package timer

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sosodev/duration"
	"github.com/viant/bpmn/model/graph"
)

var (
	// ErrNoExpression is returned when a timer has no expression
	ErrNoExpression = errors.New("timer: no date, duration or cycle expression")
	// ErrAmbiguousExpression is returned when a timer has more than one expression
	ErrAmbiguousExpression = errors.New("timer: date, duration and cycle are mutually exclusive")
	// ErrNoFutureOccurrence is returned when a cycle has no occurrence after now
	ErrNoFutureOccurrence = errors.New("timer: no future occurrence")
)

var cronParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Cycle yields successive occurrences of a recurring timer
type Cycle interface {
	Next(after time.Time) (time.Time, bool)
}

type cronCycle struct {
	schedule cron.Schedule
}

func (c *cronCycle) Next(after time.Time) (time.Time, bool) {
	next := c.schedule.Next(after)
	return next, !next.IsZero()
}

// ParseCycle parses either an ISO-8601 repeating interval or a cron expression
func ParseCycle(expr string) (Cycle, error) {
	if IsRepeatingInterval(expr) {
		return ParseRepeatingInterval(expr)
	}
	schedule, err := cronParser.Parse(strings.TrimSpace(expr))
	if err != nil {
		return nil, fmt.Errorf("invalid cycle %q: %w", expr, err)
	}
	return &cronCycle{schedule: schedule}, nil
}

// ParseDate parses an ISO-8601 date time, taken literally
func ParseDate(expr string) (time.Time, error) {
	expr = strings.TrimSpace(expr)
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, expr); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", expr)
}

// AddDuration adds an ISO-8601 duration using calendar arithmetic for date parts
func AddDuration(at time.Time, d *duration.Duration) time.Time {
	sign := 1.0
	if d.Negative {
		sign = -1.0
	}
	years, yearFraction := math.Modf(d.Years)
	months, monthFraction := math.Modf(d.Months)
	days, dayFraction := math.Modf(d.Weeks*7 + d.Days)
	ret := at.AddDate(int(sign*years), int(sign*months), int(sign*days))
	rest := yearFraction*365*24*float64(time.Hour) +
		monthFraction*30*24*float64(time.Hour) +
		dayFraction*24*float64(time.Hour) +
		d.Hours*float64(time.Hour) +
		d.Minutes*float64(time.Minute) +
		d.Seconds*float64(time.Second)
	return ret.Add(time.Duration(sign * rest))
}

// CalculateDueDate returns the due date of the single active timer expression
func CalculateDueDate(t *graph.Timer, now time.Time) (time.Time, error) {
	return NextDueDate(t, now, now)
}

// NextDueDate computes the due date; for cycles the occurrence is strictly
// after the later of now and previous
func NextDueDate(t *graph.Timer, now time.Time, previous time.Time) (time.Time, error) {
	switch t.ExpressionCount() {
	case 0:
		return time.Time{}, ErrNoExpression
	case 1:
	default:
		return time.Time{}, ErrAmbiguousExpression
	}
	switch {
	case t.Duration != "":
		d, err := duration.Parse(strings.TrimSpace(t.Duration))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid duration %q: %w", t.Duration, err)
		}
		return AddDuration(now, d), nil
	case t.Date != "":
		return ParseDate(t.Date)
	}
	cycle, err := ParseCycle(t.Cycle)
	if err != nil {
		return time.Time{}, err
	}
	after := now
	if previous.After(after) {
		after = previous
	}
	next, ok := cycle.Next(after)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %v", ErrNoFutureOccurrence, t.Cycle)
	}
	return next, nil
}

// CheckSyntax checks that exactly one well formed expression is present
// without evaluating it against a point in time; cycleOnly restricts timers
// to cycle expressions
func CheckSyntax(t *graph.Timer, cycleOnly bool) error {
	if cycleOnly {
		if t.Cycle == "" {
			return fmt.Errorf("%w: cycle is required", ErrNoExpression)
		}
		if t.Date != "" || t.Duration != "" {
			return ErrAmbiguousExpression
		}
	}
	switch t.ExpressionCount() {
	case 0:
		return ErrNoExpression
	case 1:
	default:
		return ErrAmbiguousExpression
	}
	var err error
	switch {
	case t.Duration != "":
		if _, err = duration.Parse(strings.TrimSpace(t.Duration)); err != nil {
			err = fmt.Errorf("invalid duration %q: %w", t.Duration, err)
		}
	case t.Date != "":
		_, err = ParseDate(t.Date)
	default:
		_, err = ParseCycle(t.Cycle)
	}
	return err
}

// Validate checks the expression syntax, then computes the due date at now,
// rejecting cycles with no future occurrence
func Validate(t *graph.Timer, now time.Time, cycleOnly bool) error {
	if err := CheckSyntax(t, cycleOnly); err != nil {
		return err
	}
	_, err := CalculateDueDate(t, now)
	return err
}
