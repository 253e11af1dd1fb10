package scheduler

import (
	"testing"
	"time"
)

func TestExpressionStepMatch(t *testing.T) {
	expr, err := parseExpression("*/5 * * * *")
	if err != nil {
		t.Fatalf("parseExpression error: %v", err)
	}
	if !expr.matches(15, 0, 1, 1, 0) {
		t.Error("expected minute 15 to match */5")
	}
	if expr.matches(17, 0, 1, 1, 0) {
		t.Error("expected minute 17 not to match */5")
	}
}

func TestExpressionExactMatch(t *testing.T) {
	expr, err := parseExpression("30 * * * *")
	if err != nil {
		t.Fatalf("parseExpression error: %v", err)
	}
	if !expr.matches(30, 0, 1, 1, 0) {
		t.Error("expected minute 30 to match exact field 30")
	}
	if expr.matches(29, 0, 1, 1, 0) {
		t.Error("expected minute 29 not to match exact field 30")
	}
}

func TestParseExpressionRejectsWrongFieldCount(t *testing.T) {
	if _, err := parseExpression("* * * *"); err == nil {
		t.Error("expected error for 4-field expression")
	}
}

func TestParseExpressionRejectsBadStep(t *testing.T) {
	if _, err := parseExpression("*/0 * * * *"); err == nil {
		t.Error("expected error for zero step")
	}
	if _, err := parseExpression("*/x * * * *"); err == nil {
		t.Error("expected error for non-numeric step")
	}
}

func TestSchedulerAddRejectsBeyondCapacity(t *testing.T) {
	s := New()
	for i := 0; i < maxJobs; i++ {
		if !s.Add("job", "* * * * *", func(any) {}, nil) {
			t.Fatalf("expected job %d to register", i)
		}
	}
	if s.Add("overflow", "* * * * *", func(any) {}, nil) {
		t.Error("expected job table to reject beyond capacity")
	}
}

func TestSchedulerAddRejectsBadExpression(t *testing.T) {
	s := New()
	if s.Add("bad", "not a cron", func(any) {}, nil) {
		t.Error("expected invalid expression to be rejected")
	}
}

func TestSchedulerTickFiresOncePerMinute(t *testing.T) {
	s := New()
	fired := 0
	s.Add("every-minute", "* * * * *", func(any) { fired++ }, nil)

	base, err := time.Parse(time.RFC3339, "2026-07-30T12:00:30Z")
	if err != nil {
		t.Fatalf("time.Parse error: %v", err)
	}
	s.tick(base)
	s.tick(base.Add(10 * time.Second))
	if fired != 1 {
		t.Errorf("expected 1 fire within the same minute, got %d", fired)
	}

	s.tick(base.Add(time.Minute))
	if fired != 2 {
		t.Errorf("expected 2nd fire in the next minute, got %d", fired)
	}
}
