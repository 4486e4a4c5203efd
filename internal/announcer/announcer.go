// Package announcer speaks detected face regions without blocking the frame loop.
//
// An Announcer holds a single utterance slot. A request is dispatched only when
// the slot is free and the region differs from the last one spoken or the
// cooldown has elapsed. Requests arriving while an utterance is in progress are
// dropped, never queued, so the voice feed stays current.
package announcer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/facepoint/internal/logging"
	"github.com/ayusman/facepoint/internal/region"
	"github.com/ayusman/facepoint/internal/speech"
)

// DefaultCooldown is the minimum gap before the same region is announced again.
const DefaultCooldown = 200 * time.Millisecond

// Utterance describes a finished announcement.
type Utterance struct {
	ID       string
	Region   region.Name
	Distance float64
	Started  time.Time
	Duration time.Duration
	Err      error
}

// Config holds announcer settings.
type Config struct {
	Engine   speech.Engine
	Cooldown time.Duration
}

// Announcer gates and dispatches spoken region names.
type Announcer struct {
	engine   speech.Engine
	cooldown time.Duration

	mu            sync.Mutex
	lastSpoken    region.Name
	lastSpeakTime time.Time
	busy          bool
	muted         bool
	pending       int           // utterances whose subscribers have not returned
	drained       chan struct{} // closed when pending drops to zero
	subscribers   []func(Utterance)
	muteListeners []func(bool)

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates an Announcer. A zero Cooldown selects DefaultCooldown.
func New(cfg Config) *Announcer {
	cooldown := cfg.Cooldown
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Announcer{
		engine:   cfg.Engine,
		cooldown: cooldown,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Announce requests that name be spoken. now is the detection time.
// It returns true if an utterance was dispatched.
func (a *Announcer) Announce(name region.Name, now time.Time) bool {
	return a.AnnounceDetection(name, 0, now)
}

// AnnounceDetection is Announce with the fingertip distance carried into the
// resulting Utterance.
func (a *Announcer) AnnounceDetection(name region.Name, distance float64, now time.Time) bool {
	if name == "" || name == region.None {
		return false
	}

	a.mu.Lock()
	if !a.shouldSpeak(name, now) {
		a.mu.Unlock()
		return false
	}

	a.busy = true
	a.lastSpoken = name
	a.lastSpeakTime = now
	if a.pending == 0 {
		a.drained = make(chan struct{})
	}
	a.pending++
	a.mu.Unlock()

	logging.Infow("Detected", "region", string(name), "distance", distance)

	u := Utterance{
		ID:       uuid.NewString(),
		Region:   name,
		Distance: distance,
	}
	go a.speak(u)

	return true
}

// shouldSpeak applies the gate. Callers hold a.mu.
func (a *Announcer) shouldSpeak(name region.Name, now time.Time) bool {
	if a.busy || a.muted || a.engine == nil || a.ctx.Err() != nil {
		return false
	}
	if a.lastSpoken == "" {
		return true
	}
	return name != a.lastSpoken || now.Sub(a.lastSpeakTime) > a.cooldown
}

// speak runs one utterance in the slot and signals completion.
func (a *Announcer) speak(u Utterance) {
	u.Started = time.Now()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("speech engine panic: %v", r)
			}
		}()
		return a.engine.Speak(a.ctx, string(u.Region))
	}()

	u.Duration = time.Since(u.Started)
	u.Err = err
	if err != nil {
		logging.Errorw("speech failed", "region", string(u.Region), "err", err)
	}

	a.complete(u)
}

// complete frees the slot and notifies subscribers outside the lock. The
// utterance stays pending until every subscriber has returned.
func (a *Announcer) complete(u Utterance) {
	a.mu.Lock()
	a.busy = false
	subs := make([]func(Utterance), len(a.subscribers))
	copy(subs, a.subscribers)
	a.mu.Unlock()

	for _, fn := range subs {
		fn(u)
	}

	a.mu.Lock()
	a.pending--
	if a.pending == 0 {
		close(a.drained)
		a.drained = nil
	}
	a.mu.Unlock()
}

// Subscribe registers fn to be called after every utterance completes.
// Callbacks run on the utterance goroutine and must not block for long.
// Wait and Close block until they return, so a callback must not call either.
func (a *Announcer) Subscribe(fn func(Utterance)) {
	if fn == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.subscribers = append(a.subscribers, fn)
}

// Busy reports whether an utterance is in progress.
func (a *Announcer) Busy() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.busy
}

// LastSpoken returns the last region dispatched and when.
func (a *Announcer) LastSpoken() (region.Name, time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastSpoken, a.lastSpeakTime
}

// SetMuted drops every request while muted. The last-spoken memory is kept.
// Mute listeners are called when the state changes.
func (a *Announcer) SetMuted(muted bool) {
	a.mu.Lock()
	if a.muted == muted {
		a.mu.Unlock()
		return
	}
	a.muted = muted
	listeners := make([]func(bool), len(a.muteListeners))
	copy(listeners, a.muteListeners)
	a.mu.Unlock()

	for _, fn := range listeners {
		fn(muted)
	}
}

// OnMuteChange registers fn to be called with the new state whenever SetMuted
// changes it.
func (a *Announcer) OnMuteChange(fn func(muted bool)) {
	if fn == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.muteListeners = append(a.muteListeners, fn)
}

// Muted reports whether the announcer is muted.
func (a *Announcer) Muted() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.muted
}

// Wait blocks until every dispatched utterance has completed and its
// subscribers have returned, or ctx ends.
func (a *Announcer) Wait(ctx context.Context) error {
	a.mu.Lock()
	drained := a.drained
	a.mu.Unlock()

	if drained == nil {
		return nil
	}

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close interrupts any utterance, waits for it and its subscribers to finish
// and closes the engine.
func (a *Announcer) Close(ctx context.Context) error {
	a.cancel()
	if a.engine == nil {
		return nil
	}
	if err := a.engine.Stop(); err != nil {
		logging.Warnw("speech stop failed", "err", err)
	}
	if err := a.Wait(ctx); err != nil {
		return err
	}
	return a.engine.Close()
}
