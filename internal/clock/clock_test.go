package clock_test

import (
	"testing"
	"time"

	"github.com/Gunvolt24/ordersync/internal/clock"
	"github.com/stretchr/testify/require"
)

func TestManual(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.FixedZone("MSK", 3*3600))
	c := clock.NewManual(start)

	require.Equal(t, time.UTC, c.Now().Location())
	require.True(t, c.Now().Equal(start))

	c.Advance(time.Minute)
	require.True(t, c.Now().Equal(start.Add(time.Minute)))

	c.Set(start.Add(-time.Hour))
	require.True(t, c.Now().Equal(start.Add(-time.Hour)))
}

func TestSystem_UTC(t *testing.T) {
	require.Equal(t, time.UTC, clock.NewSystem().Now().Location())
}
