// Package speech provides text-to-speech engines used to announce face regions.
package speech

import (
	"context"
	"errors"
)

// Default speech settings.
const (
	// DefaultRate is the speaking rate in words per minute.
	DefaultRate = 200
	// DefaultVolume is the output volume as a fraction of the engine's normal level.
	DefaultVolume = 0.9
	// DefaultTimeoutMs bounds a single utterance.
	DefaultTimeoutMs = 10000
)

var (
	// ErrNoSynthesizer is returned when no supported synthesizer is installed.
	ErrNoSynthesizer = errors.New("no speech synthesizer found")
	// ErrInterrupted is returned by Speak when Stop cut the utterance short.
	ErrInterrupted = errors.New("speech interrupted")
)

// Engine converts text to audible speech.
type Engine interface {
	// Speak plays text and blocks until playback finishes, fails, or ctx ends.
	Speak(ctx context.Context, text string) error

	// Stop interrupts the utterance in progress, if any.
	Stop() error

	// Close releases any resources held by the engine.
	Close() error
}

// Config holds engine settings.
type Config struct {
	// Rate is the speaking rate in words per minute (default: 200).
	Rate int

	// Volume is the output level in [0,1] (default: 0.9).
	Volume float64

	// Voice selects a synthesizer voice. Empty uses the system default.
	Voice string

	// Command overrides synthesizer discovery with a specific program.
	// The utterance text is written to its stdin.
	Command string

	// Args are extra arguments passed to Command.
	Args []string

	// TimeoutMs bounds a single utterance (default: 10000).
	TimeoutMs int
}

// DefaultConfig returns a Config with the default rate and volume.
func DefaultConfig() Config {
	return Config{
		Rate:      DefaultRate,
		Volume:    DefaultVolume,
		TimeoutMs: DefaultTimeoutMs,
	}
}

func (c Config) withDefaults() Config {
	if c.Rate <= 0 {
		c.Rate = DefaultRate
	}
	if c.Volume <= 0 || c.Volume > 1 {
		c.Volume = DefaultVolume
	}
	if c.TimeoutMs <= 0 {
		c.TimeoutMs = DefaultTimeoutMs
	}
	return c
}
