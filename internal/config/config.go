// Package config holds user-facing settings. A Settings value is built
// once at startup and injected into the coordinator and commands; nothing
// reads configuration ambiently.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ccpulse/ccpulse/internal/types"
)

const (
	MinRefreshIntervalSeconds = 1
	MaxRefreshIntervalSeconds = 30

	DefaultRefreshIntervalSeconds = 3
	DefaultSessionDurationHours   = 5
	DefaultCostPrecision          = 2
	MaxCostPrecision              = 6
)

// Settings is the flat key-value preference surface. All fields
// round-trip exactly through Export/Import; enum-valued fields serialize
// as their string tags.
type Settings struct {
	RefreshIntervalSeconds int            `json:"refresh_interval_seconds"`
	SessionDurationHours   int            `json:"session_duration_hours"`
	DataPath               string         `json:"data_path,omitempty"`
	TokenLimit             int            `json:"token_limit,omitempty"`
	CostMode               types.CostMode `json:"cost_mode"`
	CostPrecision          int            `json:"cost_precision"`
}

// Default returns the default settings.
func Default() Settings {
	return Settings{
		RefreshIntervalSeconds: DefaultRefreshIntervalSeconds,
		SessionDurationHours:   DefaultSessionDurationHours,
		CostMode:               types.CostModeAuto,
		CostPrecision:          DefaultCostPrecision,
	}
}

// Clamped returns a copy with out-of-range values pulled back into their
// sane bounds. Loading never fails on a weird-but-parseable file.
func (s Settings) Clamped() Settings {
	if s.RefreshIntervalSeconds < MinRefreshIntervalSeconds {
		s.RefreshIntervalSeconds = MinRefreshIntervalSeconds
	}
	if s.RefreshIntervalSeconds > MaxRefreshIntervalSeconds {
		s.RefreshIntervalSeconds = MaxRefreshIntervalSeconds
	}
	if s.SessionDurationHours <= 0 {
		s.SessionDurationHours = DefaultSessionDurationHours
	}
	if !s.CostMode.Valid() {
		s.CostMode = types.CostModeAuto
	}
	if s.CostPrecision < 0 {
		s.CostPrecision = 0
	}
	if s.CostPrecision > MaxCostPrecision {
		s.CostPrecision = MaxCostPrecision
	}
	return s
}

// validate rejects values Import must not accept. Clamping is for local
// files we own; imported blobs are user-supplied and fail loudly instead.
func (s Settings) validate() error {
	if s.RefreshIntervalSeconds < MinRefreshIntervalSeconds || s.RefreshIntervalSeconds > MaxRefreshIntervalSeconds {
		return fmt.Errorf("%w: refresh_interval_seconds %d out of range [%d,%d]",
			types.ErrInvalidConfig, s.RefreshIntervalSeconds,
			MinRefreshIntervalSeconds, MaxRefreshIntervalSeconds)
	}
	if s.SessionDurationHours <= 0 {
		return fmt.Errorf("%w: session_duration_hours must be positive", types.ErrInvalidConfig)
	}
	if !s.CostMode.Valid() {
		return fmt.Errorf("%w: unknown cost_mode %q", types.ErrInvalidConfig, s.CostMode)
	}
	if s.CostPrecision < 0 || s.CostPrecision > MaxCostPrecision {
		return fmt.Errorf("%w: cost_precision %d out of range [0,%d]",
			types.ErrInvalidConfig, s.CostPrecision, MaxCostPrecision)
	}
	return nil
}

// Export serializes the settings as a flat JSON blob.
func (s Settings) Export() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// Import replaces the receiver with the decoded blob. On any decode or
// validation error the receiver is left untouched.
func (s *Settings) Import(data []byte) error {
	decoded := Default()
	if err := json.Unmarshal(data, &decoded); err != nil {
		return fmt.Errorf("%w: %v", types.ErrInvalidConfig, err)
	}
	if err := decoded.validate(); err != nil {
		return err
	}
	*s = decoded
	return nil
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "ccpulse")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "ccpulse")
}

// Path returns the full path to the settings file.
func Path() string {
	return filepath.Join(Dir(), "settings.json")
}

// Load reads the settings file, returning defaults if it doesn't exist.
// Out-of-range values in an existing file are clamped, not rejected.
func Load() (Settings, error) {
	s := Default()

	data, err := os.ReadFile(Path())
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, fmt.Errorf("reading settings: %w", err)
	}

	if err := json.Unmarshal(data, &s); err != nil {
		return Default(), fmt.Errorf("parsing settings: %w", err)
	}
	return s.Clamped(), nil
}

// Save writes the settings to disk.
func Save(s Settings) error {
	if err := os.MkdirAll(Dir(), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	data, err := s.Export()
	if err != nil {
		return err
	}
	if err := os.WriteFile(Path(), data, 0o600); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	return nil
}
