package loans

import (
	"testing"
	"time"
)

func TestDaysLate(t *testing.T) {
	due := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		now  time.Time
		want int
	}{
		{"before due", due.Add(-time.Hour), 0},
		{"exactly due", due, 0},
		{"same day, hours late", due.Add(3 * time.Hour), 1},
		{"next day", due.AddDate(0, 0, 1), 1},
		{"ten days", due.AddDate(0, 0, 10), 10},
		{"just past midnight", time.Date(2025, 3, 11, 0, 0, 1, 0, time.UTC), 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DaysLate(tc.now, due); got != tc.want {
				t.Errorf("DaysLate = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestFineFor(t *testing.T) {
	due := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	if got := FineFor(due.AddDate(0, 0, 10), due, 0.75); got != 7.5 {
		t.Errorf("FineFor = %v, want 7.5", got)
	}
	if got := FineFor(due.AddDate(0, 0, 10), due, 0.0); got != 0.0 {
		t.Errorf("FineFor at zero rate = %v, want 0", got)
	}
	if got := FineFor(due.Add(-time.Minute), due, 5.0); got != 0.0 {
		t.Errorf("FineFor before due = %v, want 0", got)
	}
}
