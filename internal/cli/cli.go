// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing for safenode.
//
// The CLI is the thin presentation surface over the session-lock core:
// every core operation is reachable from a command, and nothing here
// holds session state of its own.
package cli

import (
	"fmt"
	"os"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdRun Command = iota
	CmdInit
	CmdStatus
	CmdUnlock
	CmdTimeout
	CmdSecret
	CmdBiometric
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Subcommand is the first argument after the command
	// (e.g. "set" for "timeout set").
	Subcommand string

	// Raw holds the remaining positional arguments.
	Raw []string

	// ConfigPath overrides the default config location (--config).
	ConfigPath string
}

const usageText = `safenode - session-lock core for a desktop secret vault

Usage:
  safenode <command> [arguments]

Commands:
  run                      Unlock the vault and keep the session open.
                           The auto-lock monitor runs in the background;
                           stdin lines are session commands and count as
                           activity: lock, unlock, status,
                           timeout <secs|off>, quit.
  init                     Create a new sealed vault.
  status                   Show whether a sealed vault exists and the
                           configured auto-lock timeout.
  unlock                   Verify the unlock secret against the vault
                           (one-shot; prints OK or DENIED).
  timeout get              Print the configured auto-lock timeout.
  timeout set <secs>       Set the auto-lock timeout in seconds.
  timeout off              Disable auto-lock.
  secret set <account>     Store a secret in the OS credential vault.
  secret get <account>     Read a secret from the OS credential vault.
  secret rm <account>      Delete a secret from the OS credential vault.
  biometric check          Probe platform biometric capability.
  biometric auth [prompt]  Attempt biometric authentication.
  version                  Print version information.
  help                     Show this help.

Flags:
  --config <path>          Use an alternate config file.

The vault, config and audit log live under ~/.safenode/.
`

// Parse parses os.Args into a command and its arguments.
func Parse() (Command, Args) {
	return parseArgs(os.Args[1:])
}

// parseArgs is the testable core of Parse.
func parseArgs(argv []string) (Command, Args) {
	args := Args{}

	// Peel off global flags first.
	var positional []string
	for i := 0; i < len(argv); i++ {
		switch argv[i] {
		case "--config":
			if i+1 < len(argv) {
				args.ConfigPath = argv[i+1]
				i++
			}
		case "-h", "--help":
			return CmdHelp, args
		default:
			positional = append(positional, argv[i])
		}
	}

	if len(positional) == 0 {
		return CmdHelp, args
	}

	cmd := CmdHelp
	switch positional[0] {
	case "run":
		cmd = CmdRun
	case "init":
		cmd = CmdInit
	case "status":
		cmd = CmdStatus
	case "unlock":
		cmd = CmdUnlock
	case "timeout":
		cmd = CmdTimeout
	case "secret":
		cmd = CmdSecret
	case "biometric":
		cmd = CmdBiometric
	case "version", "--version", "-v":
		cmd = CmdVersion
	case "help":
		cmd = CmdHelp
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", positional[0])
		return CmdHelp, args
	}

	if len(positional) > 1 {
		args.Subcommand = positional[1]
	}
	if len(positional) > 2 {
		args.Raw = positional[2:]
	}
	return cmd, args
}

// PrintUsage writes the usage text to stdout.
func PrintUsage() {
	fmt.Print(usageText)
}

// PrintVersion writes version information to stdout.
func PrintVersion() {
	fmt.Printf("safenode %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
}
