package timer

import (
	"github.com/viant/parsly"
	"github.com/viant/parsly/matcher"
)

const (
	repeatCode = iota
	countCode
	slashCode
	segmentCode
)

var (
	repeatToken  = parsly.NewToken(repeatCode, "R", matcher.NewByte('R'))
	countToken   = parsly.NewToken(countCode, "Count", &digitsMatcher{})
	slashToken   = parsly.NewToken(slashCode, "/", matcher.NewByte('/'))
	segmentToken = parsly.NewToken(segmentCode, "Segment", &segmentMatcher{})
)

// digitsMatcher matches a run of decimal digits
type digitsMatcher struct{}

func (m *digitsMatcher) Match(cursor *parsly.Cursor) int {
	matched := 0
	for i := cursor.Pos; i < cursor.InputSize; i++ {
		if cursor.Input[i] < '0' || cursor.Input[i] > '9' {
			break
		}
		matched++
	}
	return matched
}

// segmentMatcher matches everything up to the next slash
type segmentMatcher struct{}

func (m *segmentMatcher) Match(cursor *parsly.Cursor) int {
	matched := 0
	for i := cursor.Pos; i < cursor.InputSize; i++ {
		if cursor.Input[i] == '/' {
			break
		}
		matched++
	}
	return matched
}
