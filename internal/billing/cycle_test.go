package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ptrTime(t time.Time) *time.Time { return &t }

func timeMustParse(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("bad test time %q: %v", value, err)
	}
	return parsed.UTC()
}

func TestCycleStart_TableTests(t *testing.T) {
	anchor := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		anchor *time.Time
		now    time.Time
		want   time.Time
	}{
		{
			name:   "no anchor aligns to calendar month",
			anchor: nil,
			now:    time.Date(2025, 5, 20, 18, 30, 0, 0, time.UTC),
			want:   time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "anchor in current cycle",
			anchor: ptrTime(anchor),
			now:    time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC),
			want:   anchor,
		},
		{
			name:   "anchor rolls two boundaries forward",
			anchor: ptrTime(anchor),
			now:    time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC),
			want:   time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC),
		},
		{
			name:   "now exactly at boundary starts new cycle",
			anchor: ptrTime(anchor),
			now:    time.Date(2025, 2, 15, 10, 0, 0, 0, time.UTC),
			want:   time.Date(2025, 2, 15, 10, 0, 0, 0, time.UTC),
		},
		{
			name:   "one instant before boundary keeps old cycle",
			anchor: ptrTime(anchor),
			now:    time.Date(2025, 2, 15, 9, 59, 59, 0, time.UTC),
			want:   anchor,
		},
		{
			name:   "end of month anchor clamps through february",
			anchor: ptrTime(time.Date(2025, 1, 31, 12, 0, 0, 0, time.UTC)),
			now:    time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			want:   time.Date(2025, 2, 28, 12, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CycleStart(tt.anchor, tt.now))
		})
	}
}

func TestCycleEnd(t *testing.T) {
	anchor := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	now := time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)

	got := CycleEnd(&anchor, now)
	assert.Equal(t, time.Date(2025, 4, 15, 10, 0, 0, 0, time.UTC), got)
}
