package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ignite/vcfbot/internal/domain"
	"github.com/ignite/vcfbot/internal/pkg/logger"
)

const (
	DefaultMailboxSize = 32
	DefaultIdleTTL     = 30 * time.Minute
	DefaultAbandonTTL  = 24 * time.Hour
)

// RegistryConfig tunes the per-key workers.
type RegistryConfig struct {
	// MailboxSize is the buffered event capacity per session.
	MailboxSize int
	// IdleTTL is how long an idle session's worker lingers before it is
	// dropped. A dropped session is recreated empty on its next event.
	IdleTTL time.Duration
	// AbandonTTL is how long a session may sit mid-conversation without an
	// event before it is reset and dropped. Never shorter than IdleTTL.
	AbandonTTL time.Duration
}

// Registry owns all sessions and runs one worker goroutine per session key.
// Events for one key are handled strictly in arrival order; different keys
// proceed concurrently.
type Registry struct {
	machine *Machine
	cfg     RegistryConfig

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	actors map[string]*actor
	closed bool
}

type actor struct {
	session *Session
	mailbox chan Event
	// inflight counts events enqueued but not yet handled. Guarded by
	// Registry.mu; a worker only retires at zero.
	inflight int
	// lastEvent is touched only by the worker goroutine.
	lastEvent time.Time
}

// NewRegistry creates a registry driving m. The registry becomes m's
// scheduler unless one was configured.
func NewRegistry(ctx context.Context, m *Machine, cfg RegistryConfig) *Registry {
	if cfg.MailboxSize <= 0 {
		cfg.MailboxSize = DefaultMailboxSize
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultIdleTTL
	}
	if cfg.AbandonTTL <= 0 {
		cfg.AbandonTTL = DefaultAbandonTTL
	}
	cfg.AbandonTTL = max(cfg.AbandonTTL, cfg.IdleTTL)
	ctx, cancel := context.WithCancel(ctx)
	r := &Registry{
		machine: m,
		cfg:     cfg,
		ctx:     ctx,
		cancel:  cancel,
		actors:  make(map[string]*actor),
	}
	if m.sched == nil {
		m.sched = r
	}
	return r
}

// OnMenuEvent delivers a menu selection.
func (r *Registry) OnMenuEvent(ctx context.Context, key string, choice domain.Choice, messageID int64) error {
	return r.Dispatch(ctx, key, MenuEvent(choice, messageID))
}

// OnFileEvent delivers an uploaded file. fetchErr reports a transport
// failure to download it.
func (r *Registry) OnFileEvent(ctx context.Context, key, name string, data []byte, fetchErr error) error {
	return r.Dispatch(ctx, key, FileEvent(name, data, fetchErr))
}

// OnTextEvent delivers a text message.
func (r *Registry) OnTextEvent(ctx context.Context, key, text string) error {
	return r.Dispatch(ctx, key, TextEvent(text))
}

// Dispatch enqueues ev for key, starting the key's worker if needed. It
// blocks while the mailbox is full.
func (r *Registry) Dispatch(ctx context.Context, key string, ev Event) error {
	if ctx == nil {
		ctx = r.ctx
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrRegistryClosed
	}
	a, ok := r.actors[key]
	if !ok {
		a = &actor{
			session: NewSession(key),
			mailbox: make(chan Event, r.cfg.MailboxSize),
		}
		r.actors[key] = a
		r.wg.Add(1)
		go r.run(key, a)
	}
	a.inflight++
	r.mu.Unlock()

	select {
	case a.mailbox <- ev:
		return nil
	case <-ctx.Done():
		r.release(a)
		return ctx.Err()
	case <-r.ctx.Done():
		r.release(a)
		return ErrRegistryClosed
	}
}

// After implements Scheduler with a timer that dispatches ev when it fires.
func (r *Registry) After(d time.Duration, key string, ev Event) {
	time.AfterFunc(d, func() {
		if err := r.Dispatch(r.ctx, key, ev); err != nil && !errors.Is(err, ErrRegistryClosed) {
			logger.Warn("scheduled event dropped", "session", key, "error", err)
		}
	})
}

// Len returns the number of live session workers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.actors)
}

// Close stops every worker and waits for in-progress handlers to return.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.cancel()
	r.wg.Wait()
}

func (r *Registry) release(a *actor) {
	r.mu.Lock()
	a.inflight--
	r.mu.Unlock()
}

func (r *Registry) run(key string, a *actor) {
	defer r.wg.Done()

	a.lastEvent = time.Now()
	idle := time.NewTimer(r.cfg.IdleTTL)
	defer idle.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case ev := <-a.mailbox:
			r.handle(a, ev)
			r.release(a)
			a.lastEvent = time.Now()
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(r.cfg.IdleTTL)
		case <-idle.C:
			if r.retire(key, a) {
				return
			}
			idle.Reset(r.cfg.IdleTTL)
		}
	}
}

// retire removes the worker when nothing is queued and its session is idle,
// or has been mid-conversation without events for AbandonTTL. An abandoned
// session is reset first so its collected data is released.
func (r *Registry) retire(key string, a *actor) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.inflight > 0 {
		return false
	}
	if !a.session.IsIdle() {
		quiet := time.Since(a.lastEvent)
		if quiet < r.cfg.AbandonTTL {
			return false
		}
		logger.Info("abandoned session reset", "session", key, "state", string(a.session.State), "quiet", quiet.Round(time.Second))
		a.session.Reset()
	}
	delete(r.actors, key)
	return true
}

func (r *Registry) handle(a *actor, ev Event) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error("session handler panic", "session", a.session.Key, "panic", fmt.Sprint(p))
			a.session.Reset()
		}
	}()
	r.machine.Handle(r.ctx, a.session, ev)
}
