// killwatch - Hell Let Loose kill-rate watcher
// Copyright 2026 The killwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks field constraints and the cross-field rules struct tags
// cannot express.
func (c *Config) Validate() error {
	if err := getValidator().Struct(c); err != nil {
		return formatValidationError(err)
	}

	if err := c.validateDetection(); err != nil {
		return err
	}
	if err := c.validateWatch(); err != nil {
		return err
	}
	return c.validateNotify()
}

func (c *Config) validateDetection() error {
	if c.Detection.SeverityMaxRate <= c.Detection.Threshold {
		return fmt.Errorf("detection.severity_max_rate (%.2f) must be greater than detection.threshold (%.2f)",
			c.Detection.SeverityMaxRate, c.Detection.Threshold)
	}
	return nil
}

func (c *Config) validateWatch() error {
	if c.Watch.Interval < MinWatchInterval {
		return fmt.Errorf("watch.interval must be at least %s, got %s", MinWatchInterval, c.Watch.Interval)
	}
	return nil
}

// validateNotify requires a usable URL for every enabled endpoint.
// Disabled or missing entries are valid: the dispatcher treats them as a no-op.
func (c *Config) validateNotify() error {
	if strings.Count(c.Notify.ProfileURLTemplate, "%s") != 1 {
		return fmt.Errorf("notify.profile_url_template must contain exactly one %%s")
	}
	if t := c.Notify.AvatarURLTemplate; t != "" && strings.Count(t, "%s") != 1 {
		return fmt.Errorf("notify.avatar_url_template must contain exactly one %%s")
	}

	for number, server := range c.Notify.Servers {
		if !server.Enabled {
			continue
		}
		if server.URL == "" {
			return fmt.Errorf("notify.servers.%s.url is required when enabled", number)
		}
		if err := validateHTTPURL(server.URL, "notify.servers."+number+".url"); err != nil {
			return err
		}
	}
	return nil
}

// formatValidationError turns validator errors into one readable error
// naming each failing field and rule.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	messages := make([]string, 0, len(validationErrs))
	for _, fieldErr := range validationErrs {
		msg := fmt.Sprintf("%s failed %q", fieldErr.Namespace(), fieldErr.Tag())
		if fieldErr.Param() != "" {
			msg += " (" + fieldErr.Param() + ")"
		}
		messages = append(messages, msg)
	}
	return errors.New(strings.Join(messages, "; "))
}
