package core

import "testing"

func TestRoundUp(t *testing.T) {
	reg := DefaultRegistry()
	up, ok := reg.Get(RoundUp)
	if !ok {
		t.Fatal("up strategy not registered")
	}
	cases := []struct {
		in   any
		want int64
	}{
		{4.3, 5},
		{4.7, 5},
		{43, 43},
		{"4.3", 5},
		{-4.3, -4},
	}
	for _, c := range cases {
		if got := up.Round(c.in); got != c.want {
			t.Fatalf("Round(%v) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestRoundDown(t *testing.T) {
	reg := DefaultRegistry()
	down, _ := reg.Get(RoundDown)
	if got := down.Round(4.7); got != 4 {
		t.Fatalf("want 4 got %d", got)
	}
	if got := down.Round(-4.3); got != -5 {
		t.Fatalf("want -5 got %d", got)
	}
	if got := down.Round(7); got != 7 {
		t.Fatalf("want 7 got %d", got)
	}
}

func TestRoundNearestHalfAwayFromZero(t *testing.T) {
	reg := DefaultRegistry()
	nearest, _ := reg.Get(RoundNearest)
	if got := nearest.Round(1.5); got != 2 {
		t.Fatalf("want 2 got %d", got)
	}
	if got := nearest.Round(-1.5); got != -2 {
		t.Fatalf("want -2 got %d", got)
	}
	if got := nearest.Round(2.4); got != 2 {
		t.Fatalf("want 2 got %d", got)
	}
}

func TestRegistryLookup(t *testing.T) {
	reg := DefaultRegistry()
	if !reg.IsRegistered(RoundNearest) || !reg.IsRegistered(RoundUp) || !reg.IsRegistered(RoundDown) {
		t.Fatal("builtins missing")
	}
	if reg.IsRegistered("banker") {
		t.Fatal("unexpected strategy")
	}
	if len(reg.All()) != 3 {
		t.Fatalf("want 3 strategies, got %d", len(reg.All()))
	}
}

type truncStrategy struct{}

func (truncStrategy) Key() string   { return "down" }
func (truncStrategy) Title() string { return "Truncate" }
func (truncStrategy) Round(v any) int64 {
	f, _ := ToNumber(v)
	return int64(f)
}

func TestRegistryReRegisterOverwrites(t *testing.T) {
	reg := DefaultRegistry()
	reg.Register(truncStrategy{})
	s, ok := reg.Get("down")
	if !ok {
		t.Fatal("down missing after re-register")
	}
	if s.Title() != "Truncate" {
		t.Fatalf("last registration should win, got %q", s.Title())
	}
}
