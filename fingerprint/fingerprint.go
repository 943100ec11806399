// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package fingerprint derives a best-effort client identifier from the host
// environment. Two clients can share an id and one client can change id after
// a configuration change, so an id is only ever a hint.
package fingerprint

import (
	"os"
	"os/exec"
	"os/user"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/danielhkuo/tvorozhniki/auth"
)

// capabilityProbes are looked up on PATH; the set that resolves plays the
// role a browser's plugin list played.
var capabilityProbes = []string{
	"curl", "git", "python3", "node", "docker", "ssh", "gpg", "xdg-open", "open",
}

// Signals are the environment characteristics that feed the hash.
type Signals struct {
	OS           string
	Arch         string
	CPUs         int
	Hostname     string
	Username     string
	Language     string
	TimeZone     string
	Terminal     string
	Capabilities []string
}

// Probe reads the current environment. Unreadable values are left empty.
func Probe() Signals {
	s := Signals{
		OS:       runtime.GOOS,
		Arch:     runtime.GOARCH,
		CPUs:     runtime.NumCPU(),
		Terminal: os.Getenv("TERM"),
	}

	if h, err := os.Hostname(); err == nil {
		s.Hostname = h
	}
	if u, err := user.Current(); err == nil {
		s.Username = u.Username
	}

	s.Language = os.Getenv("LC_ALL")
	if s.Language == "" {
		s.Language = os.Getenv("LANG")
	}

	name, offset := time.Now().Zone()
	s.TimeZone = name + strconv.Itoa(offset)

	for _, tool := range capabilityProbes {
		if _, err := exec.LookPath(tool); err == nil {
			s.Capabilities = append(s.Capabilities, tool)
		}
	}

	return s
}

// FromSignals hashes a set of signals into an id.
func FromSignals(s Signals) string {
	return auth.HashSignals(
		s.OS,
		s.Arch,
		strconv.Itoa(s.CPUs),
		s.Hostname,
		s.Username,
		s.Language,
		s.TimeZone,
		s.Terminal,
		strings.Join(s.Capabilities, ","),
	)
}

// Generate returns the fingerprint of the current environment.
func Generate() string {
	return FromSignals(Probe())
}
