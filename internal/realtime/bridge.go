package realtime

import (
	"collaborative-notes/internal/note"
	"collaborative-notes/internal/worker"
	"context"
	"log"
	"sync"
	"time"
)

// NoteUpdater is the slice of the note store the bridge writes through.
// note.Service satisfies it.
type NoteUpdater interface {
	UpdateNote(ctx context.Context, noteID uint64, userID uint64, patch note.Patch) (*note.Note, error)
}

// pendingSave accumulates the latest unsaved title/content for one
// connection while its quiet-period timer runs.
type pendingSave struct {
	timer   *time.Timer
	noteID  uint64
	userID  uint64
	title   *string
	content *string
}

// Bridge turns the high-frequency edit stream into infrequent durable
// writes. Each connection debounces independently; commits run on the
// worker pool so the relay path never waits on the database.
//
// A failed commit is reported to the initiating connection and dropped.
// The next keystroke is the de facto retry.
type Bridge struct {
	store  NoteUpdater
	pool   *worker.WorkerPool
	delay  time.Duration
	notify func(connID string, noteID uint64, err error)

	mu      sync.Mutex
	pending map[string]*pendingSave
}

func NewBridge(store NoteUpdater, pool *worker.WorkerPool, delay time.Duration) *Bridge {
	return &Bridge{
		store:   store,
		pool:    pool,
		delay:   delay,
		notify:  func(string, uint64, error) {},
		pending: make(map[string]*pendingSave),
	}
}

// onCommitError installs the error callback. Set once during wiring,
// before any traffic.
func (b *Bridge) onCommitError(fn func(connID string, noteID uint64, err error)) {
	b.notify = fn
}

func (b *Bridge) EditContent(connID string, noteID uint64, userID uint64, content string) {
	b.touch(connID, noteID, userID, func(p *pendingSave) {
		p.content = &content
	})
}

func (b *Bridge) EditTitle(connID string, noteID uint64, userID uint64, title string) {
	b.touch(connID, noteID, userID, func(p *pendingSave) {
		p.title = &title
	})
}

// touch records the latest value and restarts the quiet-period timer.
func (b *Bridge) touch(connID string, noteID uint64, userID uint64, apply func(*pendingSave)) {
	var displaced *pendingSave

	b.mu.Lock()
	p := b.pending[connID]
	if p != nil && p.noteID != noteID {
		// The connection moved to another note; commit the old one now
		p.timer.Stop()
		delete(b.pending, connID)
		displaced = p
		p = nil
	}
	if p == nil {
		p = &pendingSave{noteID: noteID, userID: userID}
		b.pending[connID] = p
	}
	apply(p)
	if p.timer != nil {
		p.timer.Stop()
	}
	p.timer = time.AfterFunc(b.delay, func() {
		b.Flush(connID)
	})
	b.mu.Unlock()

	if displaced != nil {
		b.commit(connID, displaced)
	}
}

// Flush commits the connection's pending write immediately, if any.
// Called by the timer on expiry and by the coordinator on disconnect.
func (b *Bridge) Flush(connID string) {
	b.mu.Lock()
	p := b.pending[connID]
	if p != nil {
		p.timer.Stop()
		delete(b.pending, connID)
	}
	b.mu.Unlock()

	if p != nil {
		b.commit(connID, p)
	}
}

// CommitVisibility persists a visibility toggle right away; it is an
// explicit, user-confirmed action and skips the debounce.
func (b *Bridge) CommitVisibility(connID string, noteID uint64, userID uint64, public bool) {
	b.submit(connID, noteID, userID, note.Patch{Public: &public})
}

func (b *Bridge) commit(connID string, p *pendingSave) {
	patch := note.Patch{Title: p.title, Content: p.content}
	if patch.IsEmpty() {
		return
	}
	b.submit(connID, p.noteID, p.userID, patch)
}

func (b *Bridge) submit(connID string, noteID uint64, userID uint64, patch note.Patch) {
	b.pool.Submit(func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		_, err := b.store.UpdateNote(ctx, noteID, userID, patch)
		if err != nil {
			log.Printf("Saving note %d for user %d failed: %v", noteID, userID, err)
			b.notify(connID, noteID, err)
		}
		// error already surfaced to the initiating client; don't let the
		// pool double-log it
		return nil
	})
}
