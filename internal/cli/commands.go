// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// commands.go - command handlers for safenode.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/jeranaias/safenode/internal/audit"
	"github.com/jeranaias/safenode/internal/biometric"
	"github.com/jeranaias/safenode/internal/config"
	"github.com/jeranaias/safenode/internal/secret"
	"github.com/jeranaias/safenode/internal/vault"
)

// App wires the core components for the command handlers.
type App struct {
	Config     *config.Config
	ConfigPath string
	Store      secret.Store
	Auth       biometric.Authenticator
	Auditor    *audit.Logger
}

// NewApp loads configuration and constructs the collaborators.
func NewApp(args Args) (*App, error) {
	path := args.ConfigPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg, err := config.LoadFromPath(path)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:     cfg,
		ConfigPath: path,
		Store:      secret.NewSystemStore(),
		Auth:       biometric.Default(),
	}

	if cfg.Audit.Enabled {
		logger, err := audit.NewLogger(cfg.Audit.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open audit log: %w", err)
		}
		app.Auditor = logger
	}

	return app, nil
}

// Close releases the app's resources.
func (a *App) Close() {
	if err := a.Auditor.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to close audit log: %v\n", err)
	}
}

// newGate builds a credential gate from the loaded configuration.
func (a *App) newGate() *vault.Gate {
	opts := []vault.Option{
		vault.WithAuditLogger(a.Auditor),
	}
	if timeout, ok := a.Config.AutoLock.Timeout(); ok {
		opts = append(opts, vault.WithAutoLockTimeout(timeout))
	} else {
		opts = append(opts, vault.WithAutoLockDisabled())
	}
	if a.Config.Lockout.Enabled {
		opts = append(opts, vault.WithLockout(
			vault.NewLockout(a.Config.Lockout.MaxAttempts, a.Config.Lockout.Duration()),
		))
	}
	return vault.NewGate(vault.NewFileKeeper(a.Config.Vault.Path), opts...)
}

// =============================================================================
// INIT / STATUS / UNLOCK
// =============================================================================

// RunInit creates a new sealed vault.
func (a *App) RunInit() error {
	keeper := vault.NewFileKeeper(a.Config.Vault.Path)
	if keeper.Exists() {
		return fmt.Errorf("vault already exists at %s", keeper.Path())
	}

	secret1, err := readSecret("Choose unlock secret: ")
	if err != nil {
		return err
	}
	defer vault.ZeroBytes(secret1)

	secret2, err := readSecret("Repeat unlock secret: ")
	if err != nil {
		return err
	}
	defer vault.ZeroBytes(secret2)

	if string(secret1) != string(secret2) {
		return errors.New("secrets do not match")
	}
	if len(secret1) == 0 {
		return errors.New("unlock secret must not be empty")
	}

	// A fresh vault starts with an empty entry set.
	if err := keeper.Seal(secret1, []byte("{}")); err != nil {
		return err
	}

	fmt.Printf("Vault created at %s\n", keeper.Path())
	return nil
}

// RunStatus prints vault and auto-lock state.
func (a *App) RunStatus() error {
	keeper := vault.NewFileKeeper(a.Config.Vault.Path)
	if keeper.Exists() {
		fmt.Printf("Vault:     %s\n", keeper.Path())
	} else {
		fmt.Println("Vault:     not initialized")
	}

	if timeout, ok := a.Config.AutoLock.Timeout(); ok {
		fmt.Printf("Auto-lock: after %s idle (poll %s)\n",
			timeout, a.Config.AutoLock.PollInterval())
	} else {
		fmt.Println("Auto-lock: disabled")
	}

	if a.Config.Lockout.Enabled {
		fmt.Printf("Lockout:   %d attempts, %s cooldown\n",
			a.Config.Lockout.MaxAttempts, a.Config.Lockout.Duration())
	} else {
		fmt.Println("Lockout:   disabled")
	}
	return nil
}

// RunUnlock performs a one-shot unlock check against the sealed vault.
func (a *App) RunUnlock() error {
	gate := a.newGate()

	candidate, err := readSecret("Unlock secret: ")
	if err != nil {
		return err
	}
	defer vault.ZeroBytes(candidate)

	ok, err := gate.Unlock(candidate)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("DENIED")
		os.Exit(1)
	}
	fmt.Println("OK")
	gate.Lock()
	return nil
}

// =============================================================================
// TIMEOUT
// =============================================================================

// RunTimeout gets or sets the auto-lock timeout in the config file.
// A running session picks the change up through the config watcher.
func (a *App) RunTimeout(args Args) error {
	switch args.Subcommand {
	case "", "get":
		if timeout, ok := a.Config.AutoLock.Timeout(); ok {
			fmt.Printf("auto-lock after %s idle\n", timeout)
		} else {
			fmt.Println("auto-lock disabled")
		}
		return nil

	case "set":
		if len(args.Raw) != 1 {
			return errors.New("usage: safenode timeout set <secs>")
		}
		secs, err := strconv.Atoi(args.Raw[0])
		if err != nil || secs < 0 {
			return fmt.Errorf("invalid timeout %q: want seconds >= 0", args.Raw[0])
		}
		if secs == 0 {
			// The config encoding reserves 0 for "unset"; the immediate
			// lock a zero timeout gives is a live-session command.
			return errors.New("use 'timeout off' to disable auto-lock; minimum timeout is 1s")
		}
		a.Config.AutoLock.TimeoutSecs = secs
		if err := config.SaveToPath(a.Config, a.ConfigPath); err != nil {
			return err
		}
		fmt.Printf("auto-lock set to %s\n", time.Duration(secs)*time.Second)
		return nil

	case "off":
		// Disabled is encoded as -1 on disk; 0 would read back as unset.
		a.Config.AutoLock.TimeoutSecs = -1
		if err := config.SaveToPath(a.Config, a.ConfigPath); err != nil {
			return err
		}
		fmt.Println("auto-lock disabled")
		return nil

	default:
		return fmt.Errorf("unknown timeout subcommand: %s", args.Subcommand)
	}
}

// =============================================================================
// SECRET STORE
// =============================================================================

// RunSecret proxies to the OS credential vault.
func (a *App) RunSecret(args Args) error {
	if len(args.Raw) != 1 {
		return errors.New("usage: safenode secret <set|get|rm> <account>")
	}
	service := a.Config.Keyring.Service
	account := args.Raw[0]

	switch args.Subcommand {
	case "set":
		value, err := readSecret(fmt.Sprintf("Secret for %s/%s: ", service, account))
		if err != nil {
			return err
		}
		defer vault.ZeroBytes(value)
		if err := a.Store.Save(service, account, string(value)); err != nil {
			return err
		}
		fmt.Println("stored")
		return nil

	case "get":
		value, found, err := a.Store.Get(service, account)
		if err != nil {
			return err
		}
		if !found {
			fmt.Println("not found")
			os.Exit(1)
		}
		fmt.Println(value)
		return nil

	case "rm":
		if err := a.Store.Delete(service, account); err != nil {
			return err
		}
		fmt.Println("deleted")
		return nil

	default:
		return fmt.Errorf("unknown secret subcommand: %s", args.Subcommand)
	}
}

// =============================================================================
// BIOMETRIC
// =============================================================================

// RunBiometric probes or invokes the platform biometric capability.
// Authentication success is a capability signal only; it never unlocks
// the vault by itself.
func (a *App) RunBiometric(args Args) error {
	switch args.Subcommand {
	case "check":
		avail, err := a.Auth.IsAvailable()
		if err != nil {
			return err
		}
		a.Auditor.Log(audit.EventBiometricCheck, avail.Available, map[string]string{
			"kind":     string(avail.Kind),
			"enrolled": strconv.FormatBool(avail.Enrolled),
		})
		fmt.Printf("available: %t\nkind:      %s\nenrolled:  %t\n",
			avail.Available, avail.Kind, avail.Enrolled)
		return nil

	case "auth":
		prompt := "Unlock SafeNode"
		if len(args.Raw) > 0 {
			prompt = strings.Join(args.Raw, " ")
		}
		result, err := a.Auth.Authenticate(prompt)
		if err != nil {
			return err
		}
		a.Auditor.Log(audit.EventBiometricAuth, result.Success, map[string]string{
			"method": result.Method,
			"error":  result.Error,
		})
		if result.Success {
			fmt.Printf("authenticated via %s\n", result.Method)
			return nil
		}
		fmt.Printf("not authenticated: %s\n", result.Error)
		os.Exit(1)
		return nil

	default:
		return fmt.Errorf("unknown biometric subcommand: %s (want check|auth)", args.Subcommand)
	}
}

// =============================================================================
// RUN (LONG-LIVED SESSION)
// =============================================================================

// RunSession unlocks the vault and keeps the session open with the
// auto-lock monitor and the config watcher running. Stdin lines are
// session commands; every line counts as user activity.
func (a *App) RunSession() error {
	gate := a.newGate()

	candidate, err := readSecret("Unlock secret: ")
	if err != nil {
		return err
	}
	ok, err := gate.Unlock(candidate)
	vault.ZeroBytes(candidate)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("invalid unlock secret")
	}
	fmt.Println("unlocked")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	monitor := vault.NewMonitor(gate,
		vault.WithPollInterval(a.Config.AutoLock.PollInterval()))
	monitor.Start(ctx)

	// Settings edits (including 'safenode timeout set' from another
	// shell) reach the live gate through the watcher.
	go func() {
		err := config.Watch(ctx, a.ConfigPath, func(cfg *config.Config) {
			if timeout, ok := cfg.AutoLock.Timeout(); ok {
				gate.SetAutoLockTimeout(timeout)
			} else {
				gate.DisableAutoLock()
			}
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "config watcher stopped: %v\n", err)
		}
	}()

	// Event observer: the presentation layer reacts to transitions, the
	// core never calls back into it.
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-gate.Events():
				switch ev.Kind {
				case vault.EventAutoLocked:
					fmt.Printf("\n[auto-locked after %s idle; secret views hidden]\n", ev.Idle.Round(time.Second))
				case vault.EventLocked:
					fmt.Println("[locked]")
				case vault.EventUnlocked:
					fmt.Println("[unlocked]")
				}
			}
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		gate.RecordActivity()

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "quit", "exit":
			gate.Lock()
			return nil
		case "lock":
			gate.Lock()
		case "unlock":
			candidate, err := readSecret("Unlock secret: ")
			if err != nil {
				return err
			}
			ok, err := gate.Unlock(candidate)
			vault.ZeroBytes(candidate)
			if err != nil {
				fmt.Fprintf(os.Stderr, "unlock failed: %v\n", err)
			} else if !ok {
				fmt.Println("invalid unlock secret")
			}
		case "status":
			if gate.Status() {
				idle, _ := gate.IdleDuration()
				fmt.Printf("unlocked (idle %s)\n", idle.Round(time.Second))
			} else {
				fmt.Println("locked")
			}
		case "timeout":
			if len(fields) != 2 {
				fmt.Println("usage: timeout <secs|off>")
				continue
			}
			if fields[1] == "off" {
				gate.DisableAutoLock()
				fmt.Println("auto-lock disabled")
				continue
			}
			secs, err := strconv.Atoi(fields[1])
			if err != nil || secs < 0 {
				fmt.Printf("invalid timeout %q\n", fields[1])
				continue
			}
			gate.SetAutoLockTimeout(time.Duration(secs) * time.Second)
			fmt.Printf("auto-lock set to %ds\n", secs)
		default:
			fmt.Println("commands: lock, unlock, status, timeout <secs|off>, quit")
		}
	}

	gate.Lock()
	return scanner.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

// readSecret reads a secret without echo when stdin is a terminal, and
// falls back to a plain line read otherwise (tests, pipes).
func readSecret(prompt string) ([]byte, error) {
	fmt.Print(prompt)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return nil, fmt.Errorf("failed to read secret: %w", err)
		}
		return secret, nil
	}

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return nil, fmt.Errorf("failed to read secret: %w", err)
	}
	return []byte(strings.TrimRight(line, "\r\n")), nil
}
