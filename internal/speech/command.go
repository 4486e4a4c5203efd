package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"
)

// synthesizers are tried in order when no command is configured.
var synthesizers = []string{"espeak-ng", "espeak", "say"}

// CommandEngine speaks by running a local synthesizer process per utterance.
type CommandEngine struct {
	config  Config
	program string
	args    []string

	// embedVolume prefixes the text with a volume command for tools without a volume flag.
	embedVolume bool

	mu     sync.Mutex
	cancel context.CancelFunc
	closed bool
}

// NewEngine returns a CommandEngine for cfg.Command, or for the first
// synthesizer found on PATH when no command is set.
func NewEngine(cfg Config) (*CommandEngine, error) {
	cfg = cfg.withDefaults()

	if cfg.Command != "" {
		path, err := exec.LookPath(cfg.Command)
		if err != nil {
			return nil, fmt.Errorf("find speech command %q: %w", cfg.Command, err)
		}
		return &CommandEngine{config: cfg, program: path, args: cfg.Args}, nil
	}

	for _, name := range synthesizers {
		path, err := exec.LookPath(name)
		if err != nil {
			continue
		}
		return &CommandEngine{
			config:      cfg,
			program:     path,
			args:        synthesizerArgs(name, cfg),
			embedVolume: name == "say",
		}, nil
	}

	return nil, ErrNoSynthesizer
}

// synthesizerArgs maps rate, volume and voice onto each tool's flags.
// All tools read the text from stdin.
func synthesizerArgs(name string, cfg Config) []string {
	switch name {
	case "espeak-ng", "espeak":
		// espeak amplitude 100 is the normal level.
		args := []string{
			"-s", strconv.Itoa(cfg.Rate),
			"-a", strconv.Itoa(int(cfg.Volume * 100)),
		}
		if cfg.Voice != "" {
			args = append(args, "-v", cfg.Voice)
		}
		return append(args, "--stdin")
	case "say":
		args := []string{"-r", strconv.Itoa(cfg.Rate)}
		if cfg.Voice != "" {
			args = append(args, "-v", cfg.Voice)
		}
		return append(args, "-f", "-")
	}
	return nil
}

// input returns the text written to the synthesizer's stdin.
func (e *CommandEngine) input(text string) string {
	if e.embedVolume {
		return fmt.Sprintf("[[volm %.2f]] %s", e.config.Volume, text)
	}
	return text
}

// Program returns the resolved synthesizer path.
func (e *CommandEngine) Program() string {
	return e.program
}

// Speak runs the synthesizer and waits for it to finish.
func (e *CommandEngine) Speak(ctx context.Context, text string) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return errors.New("speech engine closed")
	}
	runCtx, cancel := context.WithTimeout(ctx, time.Duration(e.config.TimeoutMs)*time.Millisecond)
	e.cancel = cancel
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.cancel = nil
		e.mu.Unlock()
		cancel()
	}()

	cmd := exec.CommandContext(runCtx, e.program, e.args...)
	cmd.Stdin = strings.NewReader(e.input(text))

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("speech timeout after %dms", e.config.TimeoutMs)
	}
	if errors.Is(runCtx.Err(), context.Canceled) {
		return ErrInterrupted
	}
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("speech synthesis failed: %w, stderr: %s", err, msg)
		}
		return fmt.Errorf("speech synthesis failed: %w", err)
	}

	return nil
}

// Stop kills the synthesizer process of the utterance in progress.
func (e *CommandEngine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
	}
	return nil
}

// Close stops playback and rejects further utterances.
func (e *CommandEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
	}
	e.closed = true
	return nil
}
