package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/warp/vending-engine/config"
)

func testConfig(addr string) *config.Config {
	return &config.Config{
		HTTP:    config.HTTPConfig{Addr: addr, ShutdownTimeout: time.Second},
		Log:     config.LogConfig{Level: "error"},
		DB:      config.DBConfig{Path: ":memory:"},
		Machine: config.MachineConfig{Preset: "default"},
		Lane:    config.LaneConfig{Buffer: 4},
	}
}

func TestRun_ListenFailureReturnsError(t *testing.T) {
	// GIVEN an address the listener cannot bind
	cfg := testConfig("127.0.0.1:-1")

	// WHEN the server runs
	done := make(chan error, 1)
	go func() { done <- run(context.Background(), cfg, zap.NewNop()) }()

	// THEN run returns the listen error instead of waiting for a signal
	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after listen failure")
	}
}

func TestRun_CancelledContextStopsCleanly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := run(ctx, testConfig("127.0.0.1:0"), zap.NewNop())

	assert.NoError(t, err)
}
