package multichat

import (
	"fmt"
	"sync"

	"github.com/janhq/multichat/pkg/protocol"
	"github.com/janhq/multichat/pkg/sse"
)

// Failure entry shown in place of every model when the request itself fails.
const (
	FailureName    = "Error"
	FailureMessage = "Failed to fetch responses from LLMs"
)

// maxFrameLine bounds one frame line on the client side.
const maxFrameLine = 1 << 20

// Status is the display state of one model.
type Status string

const (
	StatusPending   Status = "pending"
	StatusStreaming Status = "streaming"
	StatusDone      Status = "done"
	StatusError     Status = "error"
)

// ModelState is the accumulated answer of one model.
type ModelState struct {
	ID    string
	Name  string
	Text  string
	Error string
	Done  bool
}

// Status derives the display state.
func (m ModelState) Status() Status {
	switch {
	case m.Error != "":
		return StatusError
	case m.Done:
		return StatusDone
	case m.Text != "":
		return StatusStreaming
	default:
		return StatusPending
	}
}

// Snapshot is a copy of a session's visible state.
type Snapshot struct {
	Models  []ModelState
	Loading bool
	// Failed is set when the request failed as a whole; Models then holds
	// the single failure entry.
	Failed bool
}

// Model returns the state for id.
func (s Snapshot) Model(id string) (ModelState, bool) {
	for _, m := range s.Models {
		if m.ID == id {
			return m, true
		}
	}
	return ModelState{}, false
}

// Demultiplexer routes the frames of one session into per-model state. It
// accepts raw stream bytes split at arbitrary points. After Cancel or a
// terminal call nothing changes any more.
type Demultiplexer struct {
	mu       sync.Mutex
	lines    *sse.LineBuffer
	order    []string
	models   map[string]*ModelState
	loading  bool
	failed   bool
	stopped  bool
	onUpdate func(Snapshot)
}

// NewDemultiplexer prepares empty state for models in order. Duplicate ids
// keep their first entry. onUpdate, when set, is called with a fresh
// snapshot after every visible change while the lock is held, so it must not
// call back into the demultiplexer.
func NewDemultiplexer(models []protocol.CatalogModel, onUpdate func(Snapshot)) *Demultiplexer {
	d := &Demultiplexer{
		lines:    sse.NewLineBuffer(maxFrameLine),
		models:   make(map[string]*ModelState, len(models)),
		loading:  true,
		onUpdate: onUpdate,
	}
	for _, m := range models {
		if _, dup := d.models[m.ID]; dup {
			continue
		}
		name := m.Name
		if name == "" {
			name = m.ID
		}
		d.order = append(d.order, m.ID)
		d.models[m.ID] = &ModelState{ID: m.ID, Name: name}
	}
	return d
}

// Write feeds raw stream bytes. Complete lines are decoded and applied;
// undecodable lines are skipped. It fails only when a single line grows past
// the buffer limit.
func (d *Demultiplexer) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return len(p), nil
	}
	lines, err := d.lines.Feed(p)
	changed := false
	for _, line := range lines {
		frame, ok := protocol.Decode(line)
		if !ok {
			continue
		}
		if d.apply(frame) {
			changed = true
		}
	}
	if changed {
		d.notify()
	}
	if err != nil {
		return len(p), fmt.Errorf("read frame: %w", err)
	}
	return len(p), nil
}

// Apply routes one decoded frame and reports whether state changed.
func (d *Demultiplexer) Apply(frame protocol.Frame) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return false
	}
	changed := d.apply(frame)
	if changed {
		d.notify()
	}
	return changed
}

func (d *Demultiplexer) apply(frame protocol.Frame) bool {
	switch frame.Kind() {
	case protocol.KindComplete:
		if !d.loading {
			return false
		}
		d.loading = false
		return true
	case protocol.KindContent:
		m, ok := d.models[frame.ModelID]
		if !ok || m.Done || m.Error != "" {
			return false
		}
		m.Text += frame.Content
		return true
	case protocol.KindError:
		m, ok := d.models[frame.ModelID]
		if !ok || m.Done || m.Error != "" {
			return false
		}
		m.Error = frame.Error
		return true
	case protocol.KindDone:
		m, ok := d.models[frame.ModelID]
		if !ok || m.Done || m.Error != "" {
			return false
		}
		m.Done = true
		return true
	default:
		return false
	}
}

// Finish marks the end of the byte stream. Loading ends even when the
// complete frame never arrived.
func (d *Demultiplexer) Finish() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lines.Reset()
	if d.stopped {
		return
	}
	d.stopped = true
	if d.loading {
		d.loading = false
		d.notify()
	}
}

// Fail replaces all model state with the single failure entry.
func (d *Demultiplexer) Fail(cause error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lines.Reset()
	if d.stopped {
		return
	}
	d.stopped = true
	d.failed = true
	d.loading = false
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	d.order = []string{FailureName}
	d.models = map[string]*ModelState{
		FailureName: {ID: FailureName, Name: FailureName, Text: FailureMessage, Error: msg},
	}
	d.notify()
}

// Cancel freezes the state silently. Frames that are still in flight and
// any partially buffered line are dropped, and no callback fires.
func (d *Demultiplexer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lines.Reset()
	d.stopped = true
	d.loading = false
}

// Snapshot returns a copy of the current state.
func (d *Demultiplexer) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshot()
}

func (d *Demultiplexer) snapshot() Snapshot {
	models := make([]ModelState, len(d.order))
	for i, id := range d.order {
		models[i] = *d.models[id]
	}
	return Snapshot{Models: models, Loading: d.loading, Failed: d.failed}
}

func (d *Demultiplexer) notify() {
	if d.onUpdate != nil {
		d.onUpdate(d.snapshot())
	}
}
