package config

import (
	"fmt"
	"time"
)

// ScheduleConfig tunes instance generation. Zero values fall back to the
// service defaults.
type ScheduleConfig struct {
	InstanceCap  int    `env:"BADYETLY_SCHEDULE_INSTANCE_CAP"`
	PreviewCount int    `env:"BADYETLY_SCHEDULE_PREVIEW_COUNT"`
	StrictDates  bool   `env:"BADYETLY_SCHEDULE_STRICT_DATES"`
	Timezone     string `env:"BADYETLY_TIMEZONE" default:"UTC"`

	location *time.Location
}

// Validate checks the bounds and resolves Timezone.
func (c *ScheduleConfig) Validate() error {
	if c.InstanceCap < 0 {
		return fmt.Errorf("BADYETLY_SCHEDULE_INSTANCE_CAP must not be negative, got %d", c.InstanceCap)
	}
	if c.PreviewCount < 0 {
		return fmt.Errorf("BADYETLY_SCHEDULE_PREVIEW_COUNT must not be negative, got %d", c.PreviewCount)
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("invalid BADYETLY_TIMEZONE %q: %w", c.Timezone, err)
	}
	c.location = loc
	return nil
}

// Location is the zone that decides which calendar day is "today".
// It is UTC until Validate has resolved Timezone.
func (c *ScheduleConfig) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}
