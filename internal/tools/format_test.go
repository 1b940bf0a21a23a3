package tools

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPctChange(t *testing.T) {
	require.Equal(t, "N/A", pctChange(100, 0))
	require.Equal(t, "N/A", pctChange(100, -5))
	require.Equal(t, "+25.0%", pctChange(125, 100))
	require.Equal(t, "-50.0%", pctChange(50, 100))
	require.Equal(t, "+0.0%", pctChange(100, 100))
}

func TestMarginPct(t *testing.T) {
	require.Equal(t, "N/A", marginPct(0, 2))
	require.Equal(t, "60.0%", marginPct(10, 4))
}

func TestMirrorPeriod(t *testing.T) {
	from, to, err := mirrorPeriod("2024-02-01", "2024-02-29")
	require.NoError(t, err)
	require.Equal(t, "2024-01-03", from)
	require.Equal(t, "2024-01-31", to)

	// Single day mirrors to the previous day.
	from, to, err = mirrorPeriod("2024-03-15", "2024-03-15")
	require.NoError(t, err)
	require.Equal(t, "2024-03-14", from)
	require.Equal(t, "2024-03-14", to)

	_, _, err = mirrorPeriod("2024-03-15", "2024-03-10")
	require.Error(t, err)

	_, _, err = mirrorPeriod("not-a-date", "2024-03-10")
	require.Error(t, err)
}

func TestDaysBetween(t *testing.T) {
	require.Equal(t, 31, daysBetween("2024-01-01", "2024-01-31"))
	require.Equal(t, 1, daysBetween("2024-01-01", "2024-01-01"))
	require.Equal(t, 0, daysBetween("bad", "2024-01-01"))
}

func TestCapRows(t *testing.T) {
	short := []int{1, 2, 3}
	got, truncated := capRows(short, 0)
	require.False(t, truncated)
	require.Len(t, got, 3)

	long := make([]int, defaultRows+5)
	got, truncated = capRows(long, 0)
	require.True(t, truncated)
	require.Len(t, got, defaultRows)

	// An explicit limit wins over the default.
	got, truncated = capRows(long, defaultRows+5)
	require.False(t, truncated)
	require.Len(t, got, defaultRows+5)

	got, truncated = capRows(long, 2)
	require.True(t, truncated)
	require.Len(t, got, 2)
}
