package scheduler

import (
	"fmt"
	"strconv"
	"strings"
)

type fieldKind int

const (
	fieldWildcard fieldKind = iota
	fieldExact
	fieldStep
)

// fieldMatcher is a tagged variant for one of the five cron expression
// fields: wildcard (*), an exact value, or a step (*/N).
type fieldMatcher struct {
	kind  fieldKind
	value int
	step  int
}

func (f fieldMatcher) matches(v int) bool {
	switch f.kind {
	case fieldWildcard:
		return true
	case fieldExact:
		return v == f.value
	case fieldStep:
		return f.step > 0 && v%f.step == 0
	}
	return false
}

func parseField(raw string) (fieldMatcher, error) {
	if raw == "*" {
		return fieldMatcher{kind: fieldWildcard}, nil
	}
	if step, ok := strings.CutPrefix(raw, "*/"); ok {
		n, err := strconv.Atoi(step)
		if err != nil || n <= 0 {
			return fieldMatcher{}, fmt.Errorf("cron: invalid step field %q", raw)
		}
		return fieldMatcher{kind: fieldStep, step: n}, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fieldMatcher{}, fmt.Errorf("cron: invalid field %q", raw)
	}
	return fieldMatcher{kind: fieldExact, value: n}, nil
}

// expression is a parsed 5-field minute-hour-dom-month-dow cron expression.
type expression struct {
	minute fieldMatcher
	hour   fieldMatcher
	dom    fieldMatcher
	month  fieldMatcher
	dow    fieldMatcher
}

// parseExpression parses a 5-field minute hour dom month dow string.
func parseExpression(expr string) (*expression, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return nil, fmt.Errorf("cron: expected 5 fields, got %d in %q", len(fields), expr)
	}

	parsed := make([]fieldMatcher, 5)
	for i, f := range fields {
		m, err := parseField(f)
		if err != nil {
			return nil, err
		}
		parsed[i] = m
	}

	return &expression{
		minute: parsed[0],
		hour:   parsed[1],
		dom:    parsed[2],
		month:  parsed[3],
		dow:    parsed[4],
	}, nil
}

// matches reports whether the expression matches the given time fields.
// dow uses 0=Sunday per the conventional cron convention.
func (e *expression) matches(minute, hour, dom, month, dow int) bool {
	return e.minute.matches(minute) &&
		e.hour.matches(hour) &&
		e.dom.matches(dom) &&
		e.month.matches(month) &&
		e.dow.matches(dow)
}
