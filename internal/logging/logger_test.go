package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("debug", "json")
	require.NoError(t, err)
	require.True(t, logger.Core().Enabled(-1)) // debug

	logger, err = NewLogger("warn", "console")
	require.NoError(t, err)
	require.False(t, logger.Core().Enabled(0)) // info disabled at warn

	_, err = NewLogger("shouting", "json")
	require.Error(t, err)
}
