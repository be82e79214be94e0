package picker

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the optional YAML configuration for tailssh.
//
// Example YAML:
//
// default_user: ops
// max_results: 20
// log_sessions: true
// status_command: ["tailscale", "status"]
type Config struct {
	// DefaultUser is the username offered when no preference has been saved
	// yet and the peer does not advertise one.
	DefaultUser string `yaml:"default_user,omitempty"`

	// StatusCommand overrides the argv used to list mesh peers.
	// Defaults to ["tailscale", "status"].
	StatusCommand []string `yaml:"status_command,omitempty"`

	// SSHCommand overrides the ssh binary name/path. Defaults to "ssh".
	SSHCommand string `yaml:"ssh_command,omitempty"`

	// MaxResults caps the number of rows the selector shows at once.
	MaxResults int `yaml:"max_results,omitempty"`

	// LogSessions enables per-host daily transcript logs under the config
	// dir. When set, ssh runs under a PTY so output can be teed to the log.
	LogSessions bool `yaml:"log_sessions,omitempty"`
}

const (
	defaultConfigDirName  = "tailssh"
	defaultConfigFilename = "config.yaml"
)

// ErrConfigNotFound is returned when no configuration file can be located.
// Callers treat it as "use defaults", not as a failure.
var ErrConfigNotFound = errors.New("config not found")

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{MaxResults: 20}
}

// LoadConfig discovers and loads the YAML configuration.
// If explicitPath is empty, it searches common locations in order:
// 1. $TAILSSH_CONFIG
// 2. $XDG_CONFIG_HOME/tailssh/config.yaml
// 3. ~/.config/tailssh/config.yaml
//
// Returns the parsed Config and the path that was used. A missing file yields
// ErrConfigNotFound; a present-but-invalid file is a real error.
func LoadConfig(explicitPath string) (*Config, string, error) {
	var lastErr error
	for _, p := range ConfigPathCandidates(explicitPath) {
		if p == "" {
			continue
		}
		data, err := os.ReadFile(p)
		if err != nil {
			lastErr = err
			continue
		}
		var cfg Config
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, p, fmt.Errorf("parse yaml %s: %w", p, err)
		}
		if err := cfg.Validate(); err != nil {
			return nil, p, fmt.Errorf("invalid config %s: %w", p, err)
		}
		if cfg.MaxResults <= 0 {
			cfg.MaxResults = 20
		}
		return &cfg, p, nil
	}
	if lastErr == nil || errors.Is(lastErr, os.ErrNotExist) {
		lastErr = ErrConfigNotFound
	}
	return nil, "", lastErr
}

// ConfigPathCandidates returns possible configuration file paths, in priority
// order. If explicitPath is provided, it is returned first.
func ConfigPathCandidates(explicitPath string) []string {
	var out []string
	if explicitPath != "" {
		out = append(out, explicitPath)
	}
	if env := os.Getenv("TAILSSH_CONFIG"); env != "" {
		out = append(out, env)
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		out = append(out, filepath.Join(xdg, defaultConfigDirName, defaultConfigFilename))
	}
	if home, _ := os.UserHomeDir(); home != "" {
		out = append(out, filepath.Join(home, ".config", defaultConfigDirName, defaultConfigFilename))
	}
	return out
}

// Validate performs basic sanity checks on the configuration.
func (c *Config) Validate() error {
	if c.MaxResults < 0 {
		return fmt.Errorf("max_results: must be >= 0, got %d", c.MaxResults)
	}
	for i, tok := range c.StatusCommand {
		if strings.TrimSpace(tok) == "" {
			return fmt.Errorf("status_command[%d]: empty token", i)
		}
	}
	if c.SSHCommand != "" && strings.TrimSpace(c.SSHCommand) == "" {
		return errors.New("ssh_command: blank")
	}
	return nil
}

// EffectiveStatusCommand returns the argv for listing peers.
func (c *Config) EffectiveStatusCommand() []string {
	if len(c.StatusCommand) > 0 {
		return c.StatusCommand
	}
	return []string{"tailscale", "status"}
}

// EffectiveSSHCommand returns the ssh binary to launch.
func (c *Config) EffectiveSSHCommand() string {
	if strings.TrimSpace(c.SSHCommand) != "" {
		return strings.TrimSpace(c.SSHCommand)
	}
	return "ssh"
}
