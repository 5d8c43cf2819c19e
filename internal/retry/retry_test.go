package retry

import (
	"errors"
	"testing"
	"time"
)

func TestDo_SucceedsFirstTry(t *testing.T) {
	calls := 0
	v, err := Do(3, time.Millisecond, nil, func() (int, error) {
		calls++
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 42 {
		t.Fatalf("expected 42, got %d", v)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	v, err := Do(5, time.Millisecond, nil, func() (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("not yet")
		}
		return 7, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 7 || calls != 3 {
		t.Fatalf("expected v=7 calls=3, got v=%d calls=%d", v, calls)
	}
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	calls := 0
	wantErr := errors.New("boom")
	_, err := Do(3, time.Millisecond, nil, func() (int, error) {
		calls++
		return 0, wantErr
	})
	if err != wantErr {
		t.Fatalf("expected final error to surface, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestDo_ConditionStopsEarly(t *testing.T) {
	calls := 0
	_, err := Do(5, time.Millisecond, func(triesLeft int, lastErr error) bool {
		return false
	}, func() (int, error) {
		calls++
		return 0, errors.New("fail")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected condition to stop after first failure, got %d calls", calls)
	}
}
