// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build linux

// Linux biometric support via fprintd over the system D-Bus.
//
// Availability means the fprintd daemon answers and reports at least
// one fingerprint device. Verification claims the default device, runs
// a VerifyStart round and waits for the VerifyStatus signal.
package biometric

import (
	"time"

	"github.com/godbus/dbus/v5"
)

const (
	fprintService      = "net.reactivated.Fprint"
	fprintManagerPath  = "/net/reactivated/Fprint/Manager"
	fprintManagerIface = "net.reactivated.Fprint.Manager"
	fprintDeviceIface  = "net.reactivated.Fprint.Device"

	// verifyTimeout bounds how long one verification round may wait for
	// a finger on the reader.
	verifyTimeout = 30 * time.Second
)

type linuxAuthenticator struct{}

func newPlatformAuthenticator() Authenticator {
	return linuxAuthenticator{}
}

// IsAvailable asks fprintd for its device list. A missing bus or daemon
// means no capability, not an infrastructure error.
func (linuxAuthenticator) IsAvailable() (Availability, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return Availability{Available: false, Kind: KindUnknown, Enrolled: false}, nil
	}

	manager := conn.Object(fprintService, fprintManagerPath)
	var devices []dbus.ObjectPath
	if err := manager.Call(fprintManagerIface+".GetDevices", 0).Store(&devices); err != nil {
		return Availability{Available: false, Kind: KindUnknown, Enrolled: false}, nil
	}
	if len(devices) == 0 {
		return Availability{Available: false, Kind: KindUnknown, Enrolled: false}, nil
	}

	// Enrollment check: any fingers enrolled for the calling user on the
	// first device. Errors here degrade to "not enrolled".
	enrolled := false
	device := conn.Object(fprintService, devices[0])
	var fingers []string
	if err := device.Call(fprintDeviceIface+".ListEnrolledFingers", 0, "").Store(&fingers); err == nil {
		enrolled = len(fingers) > 0
	}

	return Availability{
		Available: true,
		Kind:      KindFingerprint,
		Enrolled:  enrolled,
	}, nil
}

// Authenticate runs one fprintd verification round against the default
// device. Mismatch, missing daemon and reader trouble are all reported
// in the Result; only a broken platform query would be an error.
func (linuxAuthenticator) Authenticate(prompt string) (Result, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return Result{
			Success: false,
			Error:   "biometric authentication requires fprintd; system D-Bus is unavailable",
		}, nil
	}

	manager := conn.Object(fprintService, fprintManagerPath)
	var devicePath dbus.ObjectPath
	if err := manager.Call(fprintManagerIface+".GetDefaultDevice", 0).Store(&devicePath); err != nil {
		return Result{
			Success: false,
			Error:   "biometric authentication requires fprintd; install fprintd to enable fingerprint authentication",
		}, nil
	}

	device := conn.Object(fprintService, devicePath)
	if call := device.Call(fprintDeviceIface+".Claim", 0, ""); call.Err != nil {
		return Result{
			Success: false,
			Error:   "failed to claim fingerprint device: " + call.Err.Error(),
		}, nil
	}
	defer device.Call(fprintDeviceIface+".Release", 0)

	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(devicePath),
		dbus.WithMatchInterface(fprintDeviceIface),
		dbus.WithMatchMember("VerifyStatus"),
	); err != nil {
		return Result{
			Success: false,
			Error:   "failed to subscribe to verification signals: " + err.Error(),
		}, nil
	}

	signals := make(chan *dbus.Signal, 8)
	conn.Signal(signals)
	defer conn.RemoveSignal(signals)

	if call := device.Call(fprintDeviceIface+".VerifyStart", 0, "any"); call.Err != nil {
		return Result{
			Success: false,
			Error:   "failed to start fingerprint verification: " + call.Err.Error(),
		}, nil
	}
	defer device.Call(fprintDeviceIface+".VerifyStop", 0)

	timeout := time.After(verifyTimeout)
	for {
		select {
		case sig := <-signals:
			if sig == nil || len(sig.Body) == 0 {
				continue
			}
			status, _ := sig.Body[0].(string)
			switch status {
			case "verify-match":
				return Result{Success: true, Method: "fprintd fingerprint"}, nil
			case "verify-no-match":
				return Result{Success: false, Error: "fingerprint did not match"}, nil
			case "verify-disconnected", "verify-unknown-error":
				return Result{Success: false, Error: "fingerprint verification failed: " + status}, nil
			default:
				// verify-retry-scan and friends: keep waiting.
			}
		case <-timeout:
			return Result{Success: false, Error: "fingerprint verification timed out"}, nil
		}
	}
}
