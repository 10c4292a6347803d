package clock

import (
	"testing"
	"time"
)

func TestFakeClock_AdvanceAndSet(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := Fake(start)

	if got := c.Now(); !got.Equal(start) {
		t.Fatalf("Now() = %v; want %v", got, start)
	}

	c.Advance(90 * time.Second)
	if got, want := c.Now(), start.Add(90*time.Second); !got.Equal(want) {
		t.Errorf("after Advance Now() = %v; want %v", got, want)
	}

	later := start.Add(24 * time.Hour)
	c.Set(later)
	if got := c.Now(); !got.Equal(later) {
		t.Errorf("after Set Now() = %v; want %v", got, later)
	}
}

func TestReal_ReturnsUTC(t *testing.T) {
	if loc := Real().Now().Location(); loc != time.UTC {
		t.Errorf("Real().Now() location = %v; want UTC", loc)
	}
}
