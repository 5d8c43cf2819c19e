package completer

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestWait_ResolvesOnSet(t *testing.T) {
	c := New[int]()
	done := make(chan struct{})
	var got int
	var err error
	go func() {
		got, err = c.Wait(time.Second, errors.New("timeout"))
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	v := 7
	c.Set(&v)

	<-done
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 7 {
		t.Fatalf("expected 7, got %d", got)
	}
}

func TestWait_TimesOut(t *testing.T) {
	c := New[int]()
	wantErr := errors.New("timed out")
	_, err := c.Wait(10*time.Millisecond, wantErr)
	if err != wantErr {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestSet_NilIsNoOp(t *testing.T) {
	c := New[int]()
	c.Set(nil)
	if c.IsSet() {
		t.Fatal("expected Set(nil) to be a no-op")
	}
	_, err := c.Wait(10*time.Millisecond, errors.New("timeout"))
	if err == nil {
		t.Fatal("expected timeout since no value was ever set")
	}
}

func TestSet_IdempotentOnSecondValue(t *testing.T) {
	c := New[int]()
	a, b := 1, 2
	c.Set(&a)
	c.Set(&b)

	got, err := c.Wait(10*time.Millisecond, errors.New("timeout"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 1 {
		t.Fatalf("expected first-set value 1 to stick, got %d", got)
	}
}

func TestReset_CancelsPendingWaiters(t *testing.T) {
	c := New[int]()
	done := make(chan struct{})
	var err error
	go func() {
		_, err = c.Wait(time.Second, errors.New("timeout"))
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	c.Reset()

	<-done
	if err != ErrReset {
		t.Fatalf("expected ErrReset, got %v", err)
	}
}

func TestReset_RearmsForNextWait(t *testing.T) {
	c := New[int]()
	v := 1
	c.Set(&v)
	c.Reset()

	if c.IsSet() {
		t.Fatal("expected reset to clear done flag")
	}

	_, err := c.Wait(10*time.Millisecond, errors.New("timeout"))
	if err == nil {
		t.Fatal("expected a fresh wait after reset to time out, not see the old value")
	}

	v2 := 99
	c.Set(&v2)
	got, err := c.Wait(10*time.Millisecond, errors.New("timeout"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 99 {
		t.Fatalf("expected 99, got %d", got)
	}
}

func TestWait_ConcurrentCallersObserveSameValue(t *testing.T) {
	c := New[string]()
	const n = 20
	var wg sync.WaitGroup
	results := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.Wait(time.Second, errors.New("timeout"))
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			results[i] = v
		}(i)
	}

	time.Sleep(10 * time.Millisecond)
	val := "hello"
	c.Set(&val)
	wg.Wait()

	for i, r := range results {
		if r != "hello" {
			t.Fatalf("caller %d observed %q, want %q", i, r, "hello")
		}
	}
}
