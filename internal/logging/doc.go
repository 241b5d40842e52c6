// Package logging builds the slog loggers used throughout reelforge: a
// compact console handler for interactive use, a JSON handler for machine
// consumption, and attr helpers with standardized field names.
package logging
