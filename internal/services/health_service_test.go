package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"salespulse/internal/config"
	"salespulse/pkg/contracts"
)

type fakeHub struct{ clients int }

func (f fakeHub) ClientCount() int { return f.clients }

func testPaths(t *testing.T) *config.Paths {
	t.Helper()
	dir := t.TempDir()
	uploads := filepath.Join(dir, "uploads")
	require.NoError(t, os.MkdirAll(uploads, 0o755))
	return &config.Paths{BaseDir: dir, DataDir: dir, UploadsDir: uploads, Database: filepath.Join(dir, "sales.db")}
}

func TestHealthCheck(t *testing.T) {
	hs := NewHealthService(testPaths(t), new(MockTransactionStore), fakeHub{}, nil)

	status := hs.HealthCheck(context.Background())
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, contracts.Version, status.Version)
}

func TestReadinessCheck(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		store := new(MockTransactionStore)
		store.On("Ping", mock.Anything).Return(nil)
		hs := NewHealthService(testPaths(t), store, fakeHub{clients: 2}, nil)

		status := hs.ReadinessCheck(context.Background())
		assert.Equal(t, "ready", status.Status)
		assert.Equal(t, "2 client(s) connected", status.Services["websocket"].Message)
	})

	t.Run("database down", func(t *testing.T) {
		store := new(MockTransactionStore)
		store.On("Ping", mock.Anything).Return(errors.New("database is closed"))
		hs := NewHealthService(testPaths(t), store, nil, nil)

		status := hs.ReadinessCheck(context.Background())
		assert.Equal(t, "not_ready", status.Status)
		assert.Equal(t, "not_ready", status.Services["database"].Status)
	})

	t.Run("uploads missing", func(t *testing.T) {
		store := new(MockTransactionStore)
		store.On("Ping", mock.Anything).Return(nil)
		paths := testPaths(t)
		paths.UploadsDir = filepath.Join(paths.BaseDir, "missing")
		hs := NewHealthService(paths, store, nil, nil)

		status := hs.ReadinessCheck(context.Background())
		assert.Equal(t, "not_ready", status.Services["data"].Status)
	})
}

func TestLivenessAndVersion(t *testing.T) {
	hs := NewHealthService(testPaths(t), nil, nil, nil)

	live := hs.LivenessCheck(context.Background())
	assert.Equal(t, "alive", live.Status)
	assert.Contains(t, live.Runtime, "goroutines")

	v := hs.Version()
	assert.Equal(t, contracts.Version, v["version"])
	assert.Equal(t, contracts.VersionStage, v["stage"])
}
