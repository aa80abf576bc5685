// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Config file watcher. Desktop settings dialogs edit config.toml; the
// watcher reloads it and hands the parsed result to a callback so a
// running monitor picks up auto-lock timeout changes without a restart.
package config

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow coalesces the write bursts editors produce into one
// reload.
const debounceWindow = 250 * time.Millisecond

// Watch monitors the config file at path and invokes apply with each
// successfully reloaded config. It blocks until ctx is cancelled.
// Parse or validation failures are logged and skipped; the previous
// configuration stays in effect.
func Watch(ctx context.Context, path string, apply func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory, not the file: atomic saves replace the file
	// and would otherwise drop the watch.
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch config directory: %w", err)
	}

	var debounce *time.Timer
	reload := func() {
		cfg, err := LoadFromPath(path)
		if err != nil {
			log.Printf("CONFIG_RELOAD: ignoring invalid config: %v", err)
			return
		}
		apply(cfg)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceWindow, reload)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("CONFIG_RELOAD: watcher error: %v", err)
		}
	}
}
