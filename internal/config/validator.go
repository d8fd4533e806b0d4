package config

import (
	"fmt"
	"net"
	"slices"
	"strings"

	"github.com/Iron-Ham/mindnode/internal/layout"
	"github.com/Iron-Ham/mindnode/internal/storage"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "storage.backend")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateStorage()...)
	errors = append(errors, c.validateLayout()...)
	errors = append(errors, c.validateAutosave()...)
	errors = append(errors, c.validateWatch()...)
	errors = append(errors, c.validateServer()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

func (c *Config) validateStorage() []ValidationError {
	var errors []ValidationError

	if !slices.Contains(storage.ValidBackends(), strings.ToLower(c.Storage.Backend)) {
		errors = append(errors, ValidationError{
			Field:   "storage.backend",
			Value:   c.Storage.Backend,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(storage.ValidBackends(), ", ")),
		})
	}

	if strings.TrimSpace(c.Storage.Key) == "" {
		errors = append(errors, ValidationError{
			Field:   "storage.key",
			Value:   c.Storage.Key,
			Message: "must not be empty",
		})
	}

	return errors
}

func (c *Config) validateLayout() []ValidationError {
	if _, err := layout.ParseDirection(c.Layout.Direction); err != nil {
		return []ValidationError{{
			Field:   "layout.direction",
			Value:   c.Layout.Direction,
			Message: "must be TB or LR",
		}}
	}
	return nil
}

func (c *Config) validateAutosave() []ValidationError {
	var errors []ValidationError

	if c.Autosave.DebounceMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "autosave.debounce_ms",
			Value:   c.Autosave.DebounceMs,
			Message: "must be non-negative",
		})
	}

	// A minute of unsaved edits is already a lot to lose
	const maxAutosaveMs = 60000
	if c.Autosave.DebounceMs > maxAutosaveMs {
		errors = append(errors, ValidationError{
			Field:   "autosave.debounce_ms",
			Value:   c.Autosave.DebounceMs,
			Message: fmt.Sprintf("exceeds maximum of %dms", maxAutosaveMs),
		})
	}

	return errors
}

func (c *Config) validateWatch() []ValidationError {
	if c.Watch.DebounceMs < 0 {
		return []ValidationError{{
			Field:   "watch.debounce_ms",
			Value:   c.Watch.DebounceMs,
			Message: "must be non-negative",
		}}
	}
	return nil
}

func (c *Config) validateServer() []ValidationError {
	var errors []ValidationError

	if _, _, err := net.SplitHostPort(c.Server.Addr); err != nil {
		errors = append(errors, ValidationError{
			Field:   "server.addr",
			Value:   c.Server.Addr,
			Message: "must be a host:port listen address",
		})
	}

	for i, origin := range c.Server.AllowedOrigins {
		if strings.TrimSpace(origin) == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("server.allowed_origins[%d]", i),
				Value:   origin,
				Message: "must not be empty",
			})
		}
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	// Validate log level
	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	// Max size must be positive
	if c.Logging.MaxSizeMB <= 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be positive",
		})
	}

	// Reasonable upper bound for log file size
	const maxLogSizeMB = 1000 // 1GB
	if c.Logging.MaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB),
		})
	}

	// Max backups must be non-negative
	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}
