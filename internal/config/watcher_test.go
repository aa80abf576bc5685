// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Tests for the config file watcher.
package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestWatch_ReloadsOnChange tests that an atomic save of the watched
// file reaches the apply callback.
func TestWatch_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, SaveToPath(DefaultConfig(), path))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	applied := make(chan *Config, 1)
	go func() {
		_ = Watch(ctx, path, func(cfg *Config) {
			select {
			case applied <- cfg:
			default:
			}
		})
	}()
	time.Sleep(100 * time.Millisecond) // let the watch establish

	cfg := DefaultConfig()
	cfg.AutoLock.TimeoutSecs = 60
	require.NoError(t, SaveToPath(cfg, path))

	select {
	case got := <-applied:
		require.Equal(t, 60, got.AutoLock.TimeoutSecs)
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not deliver the updated config")
	}
}

// TestWatch_IgnoresInvalidConfig tests that a broken edit is skipped and
// a later valid save still comes through.
func TestWatch_IgnoresInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, SaveToPath(DefaultConfig(), path))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	applied := make(chan *Config, 4)
	go func() {
		_ = Watch(ctx, path, func(cfg *Config) { applied <- cfg })
	}()
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("not toml = ["), 0600))
	time.Sleep(400 * time.Millisecond) // past the debounce; reload must be skipped

	cfg := DefaultConfig()
	cfg.AutoLock.TimeoutSecs = 90
	require.NoError(t, SaveToPath(cfg, path))

	select {
	case got := <-applied:
		require.Equal(t, 90, got.AutoLock.TimeoutSecs)
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not recover after invalid config")
	}
}

// TestWatch_IgnoresOtherFiles tests that sibling files in the watched
// directory do not trigger a reload.
func TestWatch_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, SaveToPath(DefaultConfig(), path))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	applied := make(chan *Config, 1)
	go func() {
		_ = Watch(ctx, path, func(cfg *Config) { applied <- cfg })
	}()
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0600))

	select {
	case <-applied:
		t.Fatal("unrelated file triggered a reload")
	case <-time.After(500 * time.Millisecond):
	}
}

// TestWatch_StopsOnCancel tests that cancellation unblocks Watch.
func TestWatch_StopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(*Config) {})
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Watch did not return on cancel")
	}
}
