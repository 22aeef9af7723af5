package segment

import (
	"errors"
	"testing"
)

func TestToClock(t *testing.T) {
	cases := []struct {
		seconds int
		want    string
	}{
		{0, "00:00"},
		{5, "00:05"},
		{65, "01:05"},
		{90, "01:30"},
		{3599, "59:59"},
		{3600, "60:00"}, // no hour rollover
		{5025, "83:45"},
	}
	for _, c := range cases {
		if got := ToClock(c.seconds); got != c.want {
			t.Errorf("ToClock(%d) = %q, want %q", c.seconds, got, c.want)
		}
	}
}

func TestToSeconds(t *testing.T) {
	cases := []struct {
		clock string
		want  int
	}{
		{"00:00", 0},
		{"01:30", 90},
		{"05:45", 345},
		{"60:00", 3600},
	}
	for _, c := range cases {
		got, err := ToSeconds(c.clock)
		if err != nil {
			t.Fatalf("ToSeconds(%q): %v", c.clock, err)
		}
		if got != c.want {
			t.Errorf("ToSeconds(%q) = %d, want %d", c.clock, got, c.want)
		}
	}
}

func TestToSecondsInvalid(t *testing.T) {
	for _, clock := range []string{"", "90", "1:2:3", "aa:bb", "01:xx", "-1:30"} {
		_, err := ToSeconds(clock)
		if err == nil {
			t.Errorf("ToSeconds(%q): expected error, got nil", clock)
			continue
		}
		var fe *FormatError
		if !errors.As(err, &fe) {
			t.Errorf("ToSeconds(%q): error %v is not a FormatError", clock, err)
		}
	}
}

func TestClockRoundTrip(t *testing.T) {
	for s := 0; s <= 7200; s++ {
		got, err := ToSeconds(ToClock(s))
		if err != nil {
			t.Fatalf("round trip %d: %v", s, err)
		}
		if got != s {
			t.Fatalf("round trip %d: got %d", s, got)
		}
	}
}
