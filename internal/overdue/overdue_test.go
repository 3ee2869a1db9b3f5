package overdue

import (
	"testing"
	"time"
)

func TestDays(t *testing.T) {
	t.Parallel()

	due := time.Date(2024, time.January, 16, 15, 4, 5, 0, time.UTC)

	tests := []struct {
		name string
		at   time.Time
		want int
	}{
		{"before due date", due.Add(-time.Hour), 0},
		{"at due instant", due, 0},
		{"later the same day", due.Add(8 * time.Hour), 0},
		{"next day shortly after midnight", time.Date(2024, time.January, 17, 1, 0, 0, 0, time.UTC), 1},
		{"three days later", due.AddDate(0, 0, 3), 3},
		{"eastern zone maps to same UTC date", due.Add(8 * time.Hour).In(time.FixedZone("JST", 9*3600)), 0},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Days(due, tc.at); got != tc.want {
				t.Fatalf("expected %d days, got %d", tc.want, got)
			}
		})
	}
}

func TestAmountCents(t *testing.T) {
	t.Parallel()

	if got := AmountCents(3, 50); got != 150 {
		t.Fatalf("expected 150, got %d", got)
	}
	if got := AmountCents(0, 50); got != 0 {
		t.Fatalf("expected 0 for zero days, got %d", got)
	}
	if got := AmountCents(5, 0); got != 0 {
		t.Fatalf("expected 0 for zero rate, got %d", got)
	}
}
