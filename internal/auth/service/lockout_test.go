package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLockoutDuration(t *testing.T) {
	cases := []struct {
		attempts int
		want     time.Duration
	}{
		{0, 0},
		{1, 0},
		{4, 0},
		{5, 15 * time.Minute},
		{9, 15 * time.Minute},
		{10, 30 * time.Minute},
		{14, 30 * time.Minute},
		{15, 60 * time.Minute},
		{100, 60 * time.Minute},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, LockoutDuration(tc.attempts), "attempts=%d", tc.attempts)
	}
}

func TestLockoutDurationMonotonic(t *testing.T) {
	prev := time.Duration(0)
	for attempts := 0; attempts <= 50; attempts++ {
		d := LockoutDuration(attempts)
		assert.GreaterOrEqual(t, d, prev, "duration must never decrease as attempts grow")
		prev = d
	}
}
