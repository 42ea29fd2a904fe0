package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPriorityFor(t *testing.T) {
	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	cases := []struct {
		days int
		want Priority
	}{
		{-5, PriorityP0}, // overdue
		{0, PriorityP0},
		{3, PriorityP0},
		{4, PriorityP1},
		{7, PriorityP1},
		{8, PriorityP2},
		{14, PriorityP2},
		{15, PriorityP3},
		{30, PriorityP3},
		{31, PriorityP4},
		{120, PriorityP4},
	}
	for _, c := range cases {
		due := now.AddDate(0, 0, c.days)
		assert.Equal(t, c.want, PriorityFor(due, now), "days=%d", c.days)
	}
}

func TestPrioritasRecomputedFromDueDate(t *testing.T) {
	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	mr := &MaterialRequest{DueDate: now.AddDate(0, 0, 2)}
	assert.Equal(t, PriorityP0, mr.Prioritas(now))

	mr.DueDate = now.AddDate(0, 0, 60)
	assert.Equal(t, PriorityP4, mr.Prioritas(now))
}
