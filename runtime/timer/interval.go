package timer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sosodev/duration"
	"github.com/viant/parsly"
)

// RepeatingInterval is an ISO-8601 repeating interval: R[n]/start/period
type RepeatingInterval struct {
	// Repetitions is the number of occurrences, negative for unbounded
	Repetitions int
	Start       time.Time
	Period      *duration.Duration
}

// Next returns the first occurrence strictly after the supplied time
func (r *RepeatingInterval) Next(after time.Time) (time.Time, bool) {
	occurrence := r.Start
	for i := 0; r.Repetitions < 0 || i < r.Repetitions; i++ {
		if occurrence.After(after) {
			return occurrence, true
		}
		next := AddDuration(occurrence, r.Period)
		if !next.After(occurrence) {
			return time.Time{}, false
		}
		occurrence = next
	}
	return time.Time{}, false
}

// IsRepeatingInterval returns true for expressions starting with R
func IsRepeatingInterval(expr string) bool {
	return strings.HasPrefix(strings.TrimSpace(expr), "R")
}

// ParseRepeatingInterval parses R[n]/start/period
func ParseRepeatingInterval(expr string) (*RepeatingInterval, error) {
	cursor := parsly.NewCursor("", []byte(strings.TrimSpace(expr)), 0)
	if matched := cursor.MatchOne(repeatToken); matched.Code != repeatToken.Code {
		return nil, cursor.NewError(repeatToken)
	}
	ret := &RepeatingInterval{Repetitions: -1}
	matched := cursor.MatchAny(countToken, slashToken)
	switch matched.Code {
	case countToken.Code:
		count, err := strconv.Atoi(matched.Text(cursor))
		if err != nil {
			return nil, fmt.Errorf("invalid repetitions %q: %w", matched.Text(cursor), err)
		}
		ret.Repetitions = count
		if matched = cursor.MatchOne(slashToken); matched.Code != slashToken.Code {
			return nil, cursor.NewError(slashToken)
		}
	case slashToken.Code:
	default:
		return nil, cursor.NewError(countToken)
	}

	matched = cursor.MatchOne(segmentToken)
	if matched.Code != segmentToken.Code {
		return nil, cursor.NewError(segmentToken)
	}
	start, err := ParseDate(matched.Text(cursor))
	if err != nil {
		return nil, err
	}
	ret.Start = start

	if matched = cursor.MatchOne(slashToken); matched.Code != slashToken.Code {
		return nil, cursor.NewError(slashToken)
	}
	matched = cursor.MatchOne(segmentToken)
	if matched.Code != segmentToken.Code {
		return nil, cursor.NewError(segmentToken)
	}
	if ret.Period, err = duration.Parse(matched.Text(cursor)); err != nil {
		return nil, fmt.Errorf("invalid period %q: %w", matched.Text(cursor), err)
	}
	if cursor.Pos < cursor.InputSize {
		return nil, fmt.Errorf("unexpected %q in %q", string(cursor.Input[cursor.Pos:]), expr)
	}
	return ret, nil
}
