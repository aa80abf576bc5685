// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// safenode - session-locked secret vault with auto-lock and OS
// keychain integration.
package main

import (
	"fmt"
	"os"

	"github.com/jeranaias/safenode/internal/cli"
)

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdHelp:
		cli.PrintUsage()
		return
	case cli.CmdVersion:
		cli.PrintVersion()
		return
	}

	app, err := cli.NewApp(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "safenode: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	switch cmd {
	case cli.CmdRun:
		err = app.RunSession()
	case cli.CmdInit:
		err = app.RunInit()
	case cli.CmdStatus:
		err = app.RunStatus()
	case cli.CmdUnlock:
		err = app.RunUnlock()
	case cli.CmdTimeout:
		err = app.RunTimeout(args)
	case cli.CmdSecret:
		err = app.RunSecret(args)
	case cli.CmdBiometric:
		err = app.RunBiometric(args)
	default:
		cli.PrintUsage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "safenode: %v\n", err)
		os.Exit(1)
	}
}
