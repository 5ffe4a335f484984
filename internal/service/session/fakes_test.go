package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/ignite/vcfbot/internal/domain"
	"github.com/ignite/vcfbot/internal/replies"
	"github.com/ignite/vcfbot/internal/service/upload"
)

// ============================================
// FAKE GATEWAY
// ============================================

type sentText struct {
	key  string
	text string
	opts domain.MessageOptions
}

type sentFile struct {
	key     string
	name    string
	data    string
	caption string
}

type editCall struct {
	handle domain.StatusHandle
	text   string
	opts   domain.MessageOptions
}

type fakeGateway struct {
	mu       sync.Mutex
	texts    []sentText
	files    []sentFile
	created  []sentText
	edits    []editCall
	nextID   int64
	editErr  error
	failFile map[string]bool
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{nextID: 100, failFile: map[string]bool{}}
}

func (g *fakeGateway) SendText(_ context.Context, key, text string, opts domain.MessageOptions) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.texts = append(g.texts, sentText{key: key, text: text, opts: opts})
	return nil
}

func (g *fakeGateway) SendFile(_ context.Context, key, name string, data []byte, caption string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failFile[name] {
		return errors.New("telegram: 502 bad gateway")
	}
	g.files = append(g.files, sentFile{key: key, name: name, data: string(data), caption: caption})
	return nil
}

func (g *fakeGateway) CreateStatus(_ context.Context, key, text string, opts domain.MessageOptions) (domain.StatusHandle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextID++
	g.created = append(g.created, sentText{key: key, text: text, opts: opts})
	return domain.StatusHandle{SessionKey: key, MessageID: g.nextID}, nil
}

func (g *fakeGateway) EditStatus(_ context.Context, h domain.StatusHandle, text string, opts domain.MessageOptions) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.editErr != nil {
		return g.editErr
	}
	g.edits = append(g.edits, editCall{handle: h, text: text, opts: opts})
	return nil
}

func (g *fakeGateway) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.texts) + len(g.files) + len(g.created) + len(g.edits)
}

func (g *fakeGateway) lastText() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.texts) == 0 {
		return ""
	}
	return g.texts[len(g.texts)-1].text
}

func (g *fakeGateway) lastEdit() editCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.edits) == 0 {
		return editCall{}
	}
	return g.edits[len(g.edits)-1]
}

func (g *fakeGateway) fileNames() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []string
	for _, f := range g.files {
		out = append(out, f.name)
	}
	return out
}

func (g *fakeGateway) textsContaining(sub string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, t := range g.texts {
		if strings.Contains(t.text, sub) {
			n++
		}
	}
	for _, e := range g.edits {
		if strings.Contains(e.text, sub) {
			n++
		}
	}
	return n
}

// ============================================
// MANUAL CLOCK AND SCHEDULER
// ============================================

type manualClock struct{ t time.Time }

func (c *manualClock) Now() time.Time          { return c.t }
func (c *manualClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type scheduled struct {
	delay time.Duration
	key   string
	ev    Event
}

type manualScheduler struct{ queue []scheduled }

func (s *manualScheduler) After(d time.Duration, key string, ev Event) {
	s.queue = append(s.queue, scheduled{delay: d, key: key, ev: ev})
}

// drain returns and clears every scheduled event.
func (s *manualScheduler) drain() []scheduled {
	q := s.queue
	s.queue = nil
	return q
}

type fakeArchiver struct{ names []string }

func (a *fakeArchiver) Archive(_ context.Context, _ string, f domain.OutputFile) error {
	a.names = append(a.names, f.Name)
	return nil
}

type fakeRecorder struct{ jobs []domain.JobSummary }

func (r *fakeRecorder) Record(_ context.Context, job domain.JobSummary) error {
	r.jobs = append(r.jobs, job)
	return nil
}

// ============================================
// HARNESS
// ============================================

type harness struct {
	gw       *fakeGateway
	clock    *manualClock
	sched    *manualScheduler
	archiver *fakeArchiver
	recorder *fakeRecorder
	m        *Machine
	s        *Session
	ctx      context.Context
}

func newHarness(cfg upload.Config) *harness {
	h := &harness{
		gw:       newFakeGateway(),
		clock:    &manualClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)},
		sched:    &manualScheduler{},
		archiver: &fakeArchiver{},
		recorder: &fakeRecorder{},
		s:        NewSession("42"),
		ctx:      context.Background(),
	}
	h.m = NewMachine(Options{
		Gateway:   h.gw,
		Replies:   replies.MustNew(),
		Uploads:   upload.NewAggregator(cfg, nil),
		Scheduler: h.sched,
		Archiver:  h.archiver,
		Recorder:  h.recorder,
		Clock:     h.clock.Now,
		SendDelay: -1,
	})
	return h
}

func (h *harness) menu(c domain.Choice) { h.m.Handle(h.ctx, h.s, MenuEvent(c, 0)) }
func (h *harness) text(t string)        { h.m.Handle(h.ctx, h.s, TextEvent(t)) }
func (h *harness) file(name, body string) {
	h.m.Handle(h.ctx, h.s, FileEvent(name, []byte(body), nil))
}

// settle advances past the check delay and fires every scheduled check.
func (h *harness) settle() {
	h.clock.Advance(upload.DefaultCheckDelay)
	for _, sc := range h.sched.drain() {
		h.m.Handle(h.ctx, h.s, sc.ev)
	}
}
