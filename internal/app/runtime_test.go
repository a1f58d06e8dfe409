package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	_ "github.com/tillward/tillward/internal/testing/guard"
)

func TestInTestMode(t *testing.T) {
	t.Setenv("TILLWARD_TEST_MODE", "1")
	RefreshTestMode()
	require.True(t, InTestMode())

	t.Setenv("TILLWARD_TEST_MODE", "")
	RefreshTestMode()
	require.False(t, InTestMode())

	t.Setenv("TILLWARD_TEST_MODE", "1")
	RefreshTestMode()
}
