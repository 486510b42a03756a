package main

import (
	"bytes"
	"context"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/soshbru/soshbru/pkg/config"
	"github.com/soshbru/soshbru/pkg/store"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	logger = zap.NewNop()
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	return cfg
}

func TestSecondaryCommandsWhileServing(t *testing.T) {
	cfg := testConfig(t)

	// Stands in for a running server holding the data dir.
	held, err := store.Open(store.DefaultConfig(cfg.DataDir))
	require.NoError(t, err)
	defer held.Close()

	_, err = newApp(cfg, storeWrite, false)
	assert.Error(t, err)

	a, err := newApp(cfg, storeNone, false)
	require.NoError(t, err)
	assert.Nil(t, a.store)
	a.Close()

	a, err = newApp(cfg, storeReadOnly, false)
	require.NoError(t, err)
	assert.Nil(t, a.store)
	assert.Nil(t, a.social)

	detail, err := a.discovery.Cafe(context.Background(), "3", "")
	require.NoError(t, err)
	assert.Equal(t, "Zen Zone", detail.Cafe.Name)
	a.Close()
}

func TestReadOnlyStoreWhenFree(t *testing.T) {
	cfg := testConfig(t)

	w, err := newApp(cfg, storeWrite, true)
	require.NoError(t, err)
	require.NotNil(t, w.store)
	require.NotNil(t, w.metrics)
	w.Close()

	r, err := newApp(cfg, storeReadOnly, false)
	require.NoError(t, err)
	defer r.Close()
	assert.NotNil(t, r.store)
	assert.NotNil(t, r.social)
}

func TestCloseDropsSessions(t *testing.T) {
	a, err := newApp(testConfig(t), storeNone, false)
	require.NoError(t, err)

	_, err = a.discovery.CreateSession([]string{"open"}, "")
	require.NoError(t, err)
	require.Equal(t, 1, a.sessions.Len())

	a.Close()
	assert.Equal(t, 0, a.sessions.Len())
}

func TestHangupRefreshesCafes(t *testing.T) {
	a, err := newApp(testConfig(t), storeNone, false)
	require.NoError(t, err)
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err = a.snapshot.Cafes(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, a.snapshot.Refreshes())

	a.reloadOnHangup(ctx)
	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGHUP))

	assert.Eventually(t, func() bool {
		_, _ = a.snapshot.Cafes(ctx)
		return a.snapshot.Refreshes() == 2
	}, time.Second, 10*time.Millisecond)
}

func TestPrintFilters(t *testing.T) {
	cfg := testConfig(t)
	color.NoColor = true

	a, err := newApp(cfg, storeNone, false)
	require.NoError(t, err)
	defer a.Close()

	var out bytes.Buffer
	require.NoError(t, printFilters(context.Background(), a.discovery, "", &out))
	assert.Contains(t, out.String(), "quietZone")
	assert.Contains(t, out.String(), "Quiet Zone")
	assert.Regexp(t, `all\s+All\s+6`, out.String())
}
