package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFull(t *testing.T) {
	full := Full()
	require.Contains(t, full, Version)
	require.Contains(t, full, "commit "+Commit)
	require.Contains(t, full, "built "+BuildDate)
}
