package overlay

import (
	"sync"

	"gocv.io/x/gocv"
)

// WindowTitle is the title of the preview window.
const WindowTitle = "Face Parts Detection"

// NoKey is returned by PollKey when no key was pressed.
const NoKey = -1

// Display shows annotated frames and reports key presses.
type Display interface {
	Show(frame *gocv.Mat)
	// PollKey waits briefly for a key press and returns its low byte, or NoKey.
	PollKey() int
	Close() error
}

// Window is a Display backed by an OpenCV highgui window. It must be used
// from the thread that created it.
type Window struct {
	window *gocv.Window
}

// NewWindow opens the preview window.
func NewWindow() *Window {
	return &Window{window: gocv.NewWindow(WindowTitle)}
}

func (w *Window) Show(frame *gocv.Mat) {
	if frame == nil || frame.Empty() {
		return
	}
	w.window.IMShow(*frame)
}

func (w *Window) PollKey() int {
	key := w.window.WaitKey(1)
	if key < 0 {
		return NoKey
	}
	return key & 0xff
}

func (w *Window) Close() error {
	w.window.Close()
	return nil
}

// Headless is a Display that shows nothing. Keys can be injected with Press.
type Headless struct {
	mu     sync.Mutex
	keys   []int
	shown  int
	closed bool
}

// NewHeadless creates a Headless display.
func NewHeadless() *Headless {
	return &Headless{}
}

func (h *Headless) Show(frame *gocv.Mat) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.shown++
}

// Press queues a key to be returned by a later PollKey.
func (h *Headless) Press(key int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.keys = append(h.keys, key)
}

func (h *Headless) PollKey() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.keys) == 0 {
		return NoKey
	}
	key := h.keys[0]
	h.keys = h.keys[1:]
	return key
}

func (h *Headless) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

// Shown returns how many frames were shown.
func (h *Headless) Shown() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.shown
}

// Closed reports whether Close was called.
func (h *Headless) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}
