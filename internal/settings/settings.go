// Package settings supplies the user-configured durations that drive time
// derivation.
package settings

import (
	"context"
	"fmt"
	"time"

	"github.com/dwsmith1983/alarmd/pkg/types"
)

// Source returns the settings in effect right now. Implementations must be
// safe for concurrent use.
type Source interface {
	Current(ctx context.Context) (types.Settings, error)
}

// Static always returns the same settings.
type Static types.Settings

// Current implements Source.
func (s Static) Current(context.Context) (types.Settings, error) {
	return types.Settings(s), nil
}

// Validate checks settings before they are used to derive wake times.
func Validate(s types.Settings) error {
	if s.ReminderLeadMinutes < 0 {
		return fmt.Errorf("reminderLeadMinutes must be >= 0, got %d", s.ReminderLeadMinutes)
	}
	if s.SnoozeMinutes <= 0 {
		return fmt.Errorf("snoozeMinutes must be > 0, got %d", s.SnoozeMinutes)
	}
	if !s.Timeout.Valid() {
		return fmt.Errorf("invalid timeout policy %d", int(s.Timeout))
	}
	if _, err := Location(s); err != nil {
		return err
	}
	return nil
}

// Location resolves the settings timezone. An empty timezone means time.Local.
func Location(s types.Settings) (*time.Location, error) {
	if s.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", s.Timezone, err)
	}
	return loc, nil
}
