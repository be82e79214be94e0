// Package picker implements the interactive Tailscale peer selector: peer
// discovery via `tailscale status`, fuzzy filtering, the Bubble Tea TUI, and
// the handoff to the system ssh client.
package picker

import (
	"errors"
	"fmt"
	"net"
	"os/exec"
	"strings"
)

// PeerStatus is the reachability state reported by the mesh client.
type PeerStatus int

const (
	StatusUnknown PeerStatus = iota
	StatusOnline
	StatusIdle
	StatusOffline
)

func (s PeerStatus) String() string {
	switch s {
	case StatusOnline:
		return "online"
	case StatusIdle:
		return "idle"
	case StatusOffline:
		return "offline"
	default:
		return "unknown"
	}
}

// Peer is one node from the mesh status output. Immutable once parsed;
// identity is the hostname.
type Peer struct {
	// Hostname as reported by the mesh client (first DNS label, usually).
	Hostname string

	// Addr is the mesh IP used as the ssh destination.
	Addr string

	// SuggestedUser is the login name the status output advertises for the
	// node (the "user@" column). May be empty.
	SuggestedUser string

	// OS as reported (linux, macOS, ...). Informational only.
	OS string

	Status PeerStatus
}

// normalizeHostname returns a representation suitable for matching:
// trimmed, lower-cased, trailing FQDN dot removed. It deliberately does not
// touch the value used as the display name or ssh destination.
func normalizeHostname(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ".")
	return strings.ToLower(s)
}

// statusFromToken maps a raw status column token to a PeerStatus.
// Tokens may carry trailing separators ("active;" etc) from the tabular output.
func statusFromToken(tok string) PeerStatus {
	tok = strings.ToLower(strings.Trim(tok, ";,"))
	switch tok {
	case "active", "online":
		return StatusOnline
	case "idle", "-":
		// "-" is what the client prints for reachable nodes without an
		// established connection (including the local node).
		return StatusIdle
	case "offline":
		return StatusOffline
	default:
		return StatusUnknown
	}
}

// ParseStatus parses the line-oriented `tailscale status` output into peers.
//
// Expected per-line shape (whitespace separated):
//
//	100.74.180.3  build-host-1  ops@  linux  offline
//	[IP]          [HOSTNAME]    [USER@] [OS] [STATUS...]
//
// Parsing is per-line fallible: header lines, comments, tag/subnet notes and
// anything that does not tokenize into the expected columns is skipped, never
// fatal. The returned order is the output order (it is the identity order for
// ranking ties).
func ParseStatus(text string) []Peer {
	var peers []Peer
	for _, line := range strings.Split(text, "\n") {
		if p, ok := parseStatusLine(line); ok {
			peers = append(peers, p)
		}
	}
	return peers
}

func parseStatusLine(line string) (Peer, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return Peer{}, false
	}
	// Route/ACL annotations are not peers.
	if strings.Contains(trimmed, "tagmap") || strings.Contains(trimmed, "subnet") {
		return Peer{}, false
	}

	fields := strings.Fields(trimmed)
	if len(fields) < 5 {
		return Peer{}, false
	}

	// Column 0 must be an IP literal; this is what separates peer rows from
	// headers and free-form notes.
	ip := net.ParseIP(fields[0])
	if ip == nil {
		return Peer{}, false
	}

	host := fields[1]
	if normalizeHostname(host) == "" {
		return Peer{}, false
	}

	// The user column is usually "login@", but tagged nodes print
	// "tagged-devices" and shared nodes a full "user@domain" login. All are
	// real peers; the IP gate above is the shape check.
	user := strings.TrimSuffix(fields[2], "@")
	if user == "tagged-devices" {
		user = ""
	}

	return Peer{
		Hostname:      host,
		Addr:          ip.String(),
		SuggestedUser: user,
		OS:            fields[3],
		Status:        statusFromToken(fields[4]),
	}, true
}

// FetchPeers runs the configured status command and parses its output.
// Failures here are environment errors: the caller reports them and exits
// before any raw-mode UI is entered.
func FetchPeers(cfg *Config) ([]Peer, error) {
	argv := cfg.EffectiveStatusCommand()
	if len(argv) == 0 {
		return nil, errors.New("empty status command")
	}

	bin, err := exec.LookPath(argv[0])
	if err != nil {
		return nil, fmt.Errorf("%s not found in PATH (is the mesh client installed?)", argv[0])
	}

	out, err := exec.Command(bin, argv[1:]...).Output()
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) && len(ee.Stderr) > 0 {
			return nil, fmt.Errorf("%s failed: %s", strings.Join(argv, " "), strings.TrimSpace(string(ee.Stderr)))
		}
		return nil, fmt.Errorf("run %s: %w", strings.Join(argv, " "), err)
	}

	return ParseStatus(string(out)), nil
}
