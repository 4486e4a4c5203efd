// Package tray provides a system tray interface for facepoint.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/facepoint/internal/region"
)

// Tray represents the system tray application.
type Tray struct {
	onMute  func(muted bool)
	onOpen  func()
	onQuit  func()
	onReady func()
	muted   bool
	last    region.Name
	mu      sync.RWMutex

	// Menu items stored for later updates
	menuMute *systray.MenuItem
	menuLast *systray.MenuItem
}

// New creates a new Tray instance with announcing unmuted.
func New() *Tray {
	return &Tray{}
}

// OnMute sets the callback function to be called when the mute state is toggled.
func (t *Tray) OnMute(fn func(muted bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onMute = fn
}

// OnOpen sets the callback function to be called when the status menu item is clicked.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// OnReady sets a callback run once the tray menu is built.
func (t *Tray) OnReady(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onReady = fn
}

// Run starts the system tray application on the calling goroutine, which
// must be the main one. It blocks until Quit is called.
func (t *Tray) Run() {
	systray.Run(t.ready, t.exit)
}

// Quit closes the tray and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

func muteTitle(muted bool) string {
	if muted {
		return "○ Muted"
	}
	return "● Announcing"
}

func lastTitle(name region.Name) string {
	if name == "" || name == region.None {
		return "Last: none"
	}
	return "Last: " + string(name)
}

// ready is called when the system tray is ready. It sets up the menu structure.
func (t *Tray) ready() {
	systray.SetTitle("Facepoint")
	systray.SetTooltip("Facepoint face region announcer")

	t.mu.Lock()
	t.menuMute = systray.AddMenuItem(muteTitle(t.muted), "Toggle spoken announcements")
	systray.AddSeparator()

	t.menuLast = systray.AddMenuItem(lastTitle(t.last), "Last announced region")
	t.menuLast.Disable()
	onReady := t.onReady
	t.mu.Unlock()
	systray.AddSeparator()

	// A nil channel never fires when the status item is absent.
	var openClicked chan struct{}
	if t.showOpen() {
		openClicked = systray.AddMenuItem("Open Status...", "Open the status page in a browser").ClickedCh
		systray.AddSeparator()
	}

	menuQuit := systray.AddMenuItem("Quit", "Quit Facepoint")

	go func() {
		for {
			select {
			case <-t.menuMute.ClickedCh:
				t.handleMute()
			case <-openClicked:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()

	if onReady != nil {
		onReady()
	}
}

func (t *Tray) exit() {}

// showOpen reports whether the status item has an action to run.
func (t *Tray) showOpen() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.onOpen != nil
}

// handleMute flips the mute state and notifies the callback.
func (t *Tray) handleMute() {
	t.mu.Lock()
	t.muted = !t.muted
	muted := t.muted
	if t.menuMute != nil {
		t.menuMute.SetTitle(muteTitle(muted))
	}
	callback := t.onMute
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(muted)
	}
}

func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetMuted sets the mute state shown in the menu without calling OnMute.
func (t *Tray) SetMuted(muted bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.muted = muted
	if t.menuMute != nil {
		t.menuMute.SetTitle(muteTitle(muted))
	}
}

// SetLastRegion updates the last announced region in the menu.
func (t *Tray) SetLastRegion(name region.Name) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = name
	if t.menuLast != nil {
		t.menuLast.SetTitle(lastTitle(name))
	}
}

// LastRegion returns the last region passed to SetLastRegion.
func (t *Tray) LastRegion() region.Name {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}

// IsMuted returns the current mute state.
func (t *Tray) IsMuted() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.muted
}
