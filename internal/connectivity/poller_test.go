package connectivity

import "testing"

func TestEqualAddrs(t *testing.T) {
	cases := []struct {
		name string
		a, b []string
		want bool
	}{
		{"both empty", nil, nil, true},
		{"same", []string{"1.2.3.4/24"}, []string{"1.2.3.4/24"}, true},
		{"different length", []string{"1.2.3.4/24"}, nil, false},
		{"different value", []string{"1.2.3.4/24"}, []string{"1.2.3.5/24"}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := equalAddrs(c.a, c.b); got != c.want {
				t.Errorf("equalAddrs(%v, %v) = %v, want %v", c.a, c.b, got, c.want)
			}
		})
	}
}

func TestPoller_StartStopIsSafeAndIdempotent(t *testing.T) {
	p := New(0)
	p.Start()
	p.Start() // second call must be a no-op, not a panic
	p.Stop()
	p.Stop() // idempotent
}

func TestPoller_OnPathChangedRegistersCallback(t *testing.T) {
	p := New(0)
	called := false
	p.OnPathChanged(func() { called = true })

	p.mu.Lock()
	n := len(p.callbacks)
	p.mu.Unlock()
	if n != 1 {
		t.Fatalf("expected 1 registered callback, got %d", n)
	}
	_ = called // invoked only on a detected address-set change, not exercised here
}
