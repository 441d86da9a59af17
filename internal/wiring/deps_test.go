package wiring_test

import (
	"context"
	"testing"

	"github.com/grindlemire/graft"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/protobuild/internal/app"
	"go.trai.ch/protobuild/internal/core/domain"
	_ "go.trai.ch/protobuild/internal/wiring"
)

// TestComponentsGraph builds the same graph the command line uses.
func TestComponentsGraph(t *testing.T) {
	t.Setenv(domain.CacheEnvVar, t.TempDir())

	c, _, err := graft.ExecuteFor[*app.Components](context.Background())
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.NotNil(t, c.App)
	assert.NotNil(t, c.Logger)
}
