package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/viant/bpmn/model/graph"
)

func TestCalculateDueDate(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	testCases := []struct {
		name      string
		timer     *graph.Timer
		expect    time.Time
		expectErr error
		hasErr    bool
	}{
		{
			name:   "duration minutes",
			timer:  &graph.Timer{Duration: "PT5M"},
			expect: time.Date(2024, 1, 1, 0, 5, 0, 0, time.UTC),
		},
		{
			name:   "duration with calendar parts",
			timer:  &graph.Timer{Duration: "P1M2DT3H"},
			expect: time.Date(2024, 2, 3, 3, 0, 0, 0, time.UTC),
		},
		{
			name:   "date",
			timer:  &graph.Timer{Date: "2024-03-11T14:13:00Z"},
			expect: time.Date(2024, 3, 11, 14, 13, 0, 0, time.UTC),
		},
		{
			name:   "cron cycle",
			timer:  &graph.Timer{Cycle: "*/15 * * * *"},
			expect: time.Date(2024, 1, 1, 0, 15, 0, 0, time.UTC),
		},
		{
			name:   "repeating interval",
			timer:  &graph.Timer{Cycle: "R4/2024-01-01T00:00/PT5M"},
			expect: time.Date(2024, 1, 1, 0, 5, 0, 0, time.UTC),
		},
		{
			name:      "no expression",
			timer:     &graph.Timer{},
			expectErr: ErrNoExpression,
		},
		{
			name:      "duration and date",
			timer:     &graph.Timer{Duration: "PT5M", Date: "2024-03-11T14:13:00Z"},
			expectErr: ErrAmbiguousExpression,
		},
		{
			name:      "exhausted interval",
			timer:     &graph.Timer{Cycle: "R2/2016-03-11T14:13/PT5M"},
			expectErr: ErrNoFutureOccurrence,
		},
		{
			name:   "malformed duration",
			timer:  &graph.Timer{Duration: "5 minutes"},
			hasErr: true,
		},
		{
			name:   "malformed cron",
			timer:  &graph.Timer{Cycle: "every minute"},
			hasErr: true,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			actual, err := CalculateDueDate(testCase.timer, now)
			if testCase.expectErr != nil {
				assert.ErrorIs(t, err, testCase.expectErr)
				return
			}
			if testCase.hasErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, testCase.expect, actual)
			again, _ := CalculateDueDate(testCase.timer, now)
			assert.Equal(t, actual, again)
		})
	}
}

func TestRepeatingInterval_Next(t *testing.T) {
	interval, err := ParseRepeatingInterval("R4/2016-03-11T14:13/PT5M")
	assert.NoError(t, err)
	assert.Equal(t, 4, interval.Repetitions)

	var occurrences []time.Time
	after := time.Date(2016, 3, 11, 14, 0, 0, 0, time.UTC)
	for {
		next, ok := interval.Next(after)
		if !ok {
			break
		}
		assert.True(t, next.After(after))
		occurrences = append(occurrences, next)
		after = next
	}
	assert.Equal(t, []time.Time{
		time.Date(2016, 3, 11, 14, 13, 0, 0, time.UTC),
		time.Date(2016, 3, 11, 14, 18, 0, 0, time.UTC),
		time.Date(2016, 3, 11, 14, 23, 0, 0, time.UTC),
		time.Date(2016, 3, 11, 14, 28, 0, 0, time.UTC),
	}, occurrences)
}

func TestParseRepeatingInterval(t *testing.T) {
	testCases := []struct {
		name        string
		expr        string
		repetitions int
		hasErr      bool
	}{
		{name: "bounded", expr: "R3/2024-01-01T00:00:00Z/PT1H", repetitions: 3},
		{name: "unbounded", expr: "R/2024-01-01T00:00/P1D", repetitions: -1},
		{name: "missing period", expr: "R3/2024-01-01T00:00", hasErr: true},
		{name: "bad start", expr: "R3/tomorrow/PT1H", hasErr: true},
		{name: "bad period", expr: "R3/2024-01-01T00:00/1h", hasErr: true},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			actual, err := ParseRepeatingInterval(testCase.expr)
			if testCase.hasErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, testCase.repetitions, actual.Repetitions)
		})
	}
}

func TestValidate(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	testCases := []struct {
		name      string
		timer     *graph.Timer
		cycleOnly bool
		hasErr    bool
	}{
		{name: "duration", timer: &graph.Timer{Duration: "PT1H"}},
		{name: "cycle only accepts cycle", timer: &graph.Timer{Cycle: "0 9 * * *"}, cycleOnly: true},
		{name: "cycle only rejects duration", timer: &graph.Timer{Duration: "PT1H"}, cycleOnly: true, hasErr: true},
		{name: "both expressions", timer: &graph.Timer{Duration: "PT1H", Cycle: "0 9 * * *"}, hasErr: true},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			err := Validate(testCase.timer, now, testCase.cycleOnly)
			assert.Equal(t, testCase.hasErr, err != nil)
		})
	}
}

func TestCheckSyntax(t *testing.T) {
	testCases := []struct {
		name      string
		timer     *graph.Timer
		cycleOnly bool
		expectErr error
		hasErr    bool
	}{
		{name: "duration", timer: &graph.Timer{Duration: "PT5M"}},
		{name: "date", timer: &graph.Timer{Date: "2030-01-01T10:00:00"}},
		{name: "expired repeating interval", timer: &graph.Timer{Cycle: "R4/2016-03-11T14:13/PT5M"}, cycleOnly: true},
		{name: "cron", timer: &graph.Timer{Cycle: "0 9 * * *"}},
		{name: "no expression", timer: &graph.Timer{}, expectErr: ErrNoExpression},
		{name: "ambiguous", timer: &graph.Timer{Duration: "PT5M", Date: "2030-01-01"}, expectErr: ErrAmbiguousExpression},
		{name: "malformed duration", timer: &graph.Timer{Duration: "5 minutes"}, hasErr: true},
		{name: "malformed cycle", timer: &graph.Timer{Cycle: "R4/never/PT5M"}, hasErr: true},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			err := CheckSyntax(testCase.timer, testCase.cycleOnly)
			switch {
			case testCase.expectErr != nil:
				assert.ErrorIs(t, err, testCase.expectErr)
			case testCase.hasErr:
				assert.Error(t, err)
			default:
				assert.NoError(t, err)
			}
		})
	}

	expired := &graph.Timer{Cycle: "R4/2016-03-11T14:13/PT5M"}
	assert.ErrorIs(t, Validate(expired, time.Date(2016, 3, 11, 15, 0, 0, 0, time.UTC), true), ErrNoFutureOccurrence)
}
