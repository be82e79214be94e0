package picker

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Persistent state for tailssh: the single remembered preference is the
// username used for the last successful connection. Stored as JSON under the
// user's config dir:
//
//	~/.config/tailssh/state.json
//
// On systems honoring XDG, $XDG_CONFIG_HOME is used instead of ~/.config.

const defaultStateFilename = "state.json"

// State represents the on-disk JSON structure.
// Keep fields stable for backward compatibility.
type State struct {
	// Version allows future migrations.
	Version int `json:"version,omitempty"`

	// DefaultUsername is offered as the prompt default for the next session.
	DefaultUsername string `json:"default_username,omitempty"`

	// Updated tracks the last update time in RFC3339.
	Updated string `json:"updated,omitempty"`
}

// DefaultConfigDir returns the directory path for this application's config.
// Precedence:
//  1. $XDG_CONFIG_HOME/tailssh
//  2. ~/.config/tailssh
func DefaultConfigDir() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, defaultConfigDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".config", defaultConfigDirName), nil
}

// DefaultStatePath returns the full path to the state.json file.
func DefaultStatePath() (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, defaultStateFilename), nil
}

// LoadState reads the state JSON from path. If path is empty, the default
// path is used. A missing file returns an empty state and nil error; callers
// treat any returned error as "start from an empty state" as well, since the
// preference is never load-bearing.
func LoadState(path string) (*State, error) {
	if strings.TrimSpace(path) == "" {
		var err error
		path, err = DefaultStatePath()
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &State{Version: 1}, nil
		}
		return nil, fmt.Errorf("read state %s: %w", path, err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parse state %s: %w", path, err)
	}
	if st.Version == 0 {
		st.Version = 1
	}
	return &st, nil
}

// SaveState writes the state JSON to path atomically (temp file + rename).
// If path is empty, the default path is used. The parent directory is created
// with 0700 permissions if missing.
func SaveState(path string, st *State) error {
	if st == nil {
		return errors.New("nil state")
	}
	if strings.TrimSpace(path) == "" {
		var err error
		path, err = DefaultStatePath()
		if err != nil {
			return err
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create state dir %s: %w", dir, err)
	}

	st2 := *st
	if st2.Version == 0 {
		st2.Version = 1
	}
	st2.Updated = time.Now().UTC().Format(time.RFC3339)
	payload, err := json.MarshalIndent(st2, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	payload = append(payload, '\n')

	tmp := path + fmt.Sprintf(".tmp-%d-%d", os.Getpid(), time.Now().UnixNano())
	if err := os.WriteFile(tmp, payload, 0o600); err != nil {
		return fmt.Errorf("write temp state %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("atomic rename to %s: %w", path, err)
	}
	return nil
}
