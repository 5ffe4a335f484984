package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ignite/vcfbot/internal/convert"
	"github.com/ignite/vcfbot/internal/domain"
	"github.com/ignite/vcfbot/internal/naming"
	"github.com/ignite/vcfbot/internal/phone"
	"github.com/ignite/vcfbot/internal/pkg/logger"
	"github.com/ignite/vcfbot/internal/replies"
	"github.com/ignite/vcfbot/internal/service/upload"
)

const (
	// DefaultSendDelay separates consecutive file sends within one job.
	DefaultSendDelay = 300 * time.Millisecond

	// listLimit caps the per-file lines in completion messages.
	listLimit = 10
	// previewLimit is how many custom names are shown before "... hingga".
	previewLimit = 5
)

// Options wires a Machine.
type Options struct {
	Gateway   Gateway
	Replies   *replies.Renderer
	Uploads   *upload.Aggregator
	Scheduler Scheduler
	Archiver  Archiver
	Recorder  Recorder
	Clock     func() time.Time
	SendDelay time.Duration
}

// Machine applies events to sessions. It keeps no per-session state of its
// own and is safe for concurrent use across different sessions; callers must
// serialize events for the same session.
type Machine struct {
	gw        Gateway
	replies   *replies.Renderer
	uploads   *upload.Aggregator
	policy    *phone.Policy
	sched     Scheduler
	archiver  Archiver
	recorder  Recorder
	now       func() time.Time
	sendDelay time.Duration
}

// NewMachine creates a machine. Nil Replies and Uploads get defaults; a
// negative SendDelay disables pacing.
func NewMachine(opts Options) *Machine {
	m := &Machine{
		gw:        opts.Gateway,
		replies:   opts.Replies,
		uploads:   opts.Uploads,
		sched:     opts.Scheduler,
		archiver:  opts.Archiver,
		recorder:  opts.Recorder,
		now:       opts.Clock,
		sendDelay: opts.SendDelay,
	}
	if m.replies == nil {
		m.replies = replies.MustNew()
	}
	if m.uploads == nil {
		m.uploads = upload.NewAggregator(upload.DefaultConfig(), nil)
	}
	if m.now == nil {
		m.now = time.Now
	}
	switch {
	case m.sendDelay == 0:
		m.sendDelay = DefaultSendDelay
	case m.sendDelay < 0:
		m.sendDelay = 0
	}
	m.policy = m.uploads.Policy()
	return m
}

// Handle applies one event to s.
func (m *Machine) Handle(ctx context.Context, s *Session, ev Event) {
	switch ev.Kind {
	case EventMenu:
		m.onMenu(ctx, s, ev)
	case EventFile:
		m.onFile(ctx, s, ev)
	case EventText:
		m.onText(ctx, s, ev.Text)
	case EventUploadCheck:
		m.onUploadCheck(ctx, s, ev.Mode)
	default:
		logger.Warn("unknown event kind", "session", s.Key, "kind", int(ev.Kind))
	}
}

// ============================================
// MENU
// ============================================

func (m *Machine) onMenu(ctx context.Context, s *Session, ev Event) {
	now := m.now()

	switch ev.Choice {
	case domain.ChoiceStart, domain.ChoiceMain:
		s.Reset()
		m.send(ctx, s, replies.MainMenu, nil, replies.Markdown(replies.MainMenuButtons()))

	case domain.ChoiceBackToMain:
		s.Reset()
		m.show(ctx, s, ev.MessageID, replies.MainMenu, nil, replies.Markdown(replies.MainMenuButtons()))

	case domain.ChoiceCvMenu:
		s.Reset()
		m.show(ctx, s, ev.MessageID, replies.CvMenu,
			replies.Vars{"max_files": m.uploads.MaxFiles(domain.ModeCvV2)},
			replies.Markdown(replies.CvMenuButtons()))

	case domain.ChoiceMergeMenu:
		s.Reset()
		m.show(ctx, s, ev.MessageID, replies.MergeMenu, nil, replies.Markdown(replies.MergeMenuButtons()))

	case domain.ChoiceTextToCard:
		s.enter(domain.ModeTextToCard, domain.StateAwaitingRawText, now)
		m.show(ctx, s, ev.MessageID, replies.TextInstruction, nil, replies.Markdown(nil))

	case domain.ChoiceCvV1, domain.ChoiceCvV2, domain.ChoiceCardToText, domain.ChoiceMergeText, domain.ChoiceMergeCard:
		mode := uploadModes[ev.Choice]
		s.enter(mode, domain.StateAwaitingUploads, now)
		m.show(ctx, s, ev.MessageID, replies.UploadPrompt, replies.Vars{
			"ext":       strings.TrimPrefix(upload.Extension(mode), "."),
			"max_files": m.uploads.MaxFiles(mode),
		}, replies.Markdown(nil))
		logger.Info("upload window opened", "session", s.Key, "mode", string(mode))

	case domain.ChoiceOutputDefault, domain.ChoiceOutputCustom:
		if s.State != domain.StateAwaitingOutputModeChoice {
			m.send(ctx, s, replies.NoPendingText, nil, domain.MessageOptions{})
			return
		}
		m.onOutputChoice(ctx, s, ev)

	default:
		m.show(ctx, s, ev.MessageID, replies.ComingSoon, nil, replies.Markdown(nil))
	}
}

var uploadModes = map[domain.Choice]domain.Mode{
	domain.ChoiceCvV1:       domain.ModeCvV1,
	domain.ChoiceCvV2:       domain.ModeCvV2,
	domain.ChoiceCardToText: domain.ModeCardToText,
	domain.ChoiceMergeText:  domain.ModeMergeText,
	domain.ChoiceMergeCard:  domain.ModeMergeCard,
}

func (m *Machine) onOutputChoice(ctx context.Context, s *Session, ev Event) {
	total := len(s.Collected)
	vars := replies.Vars{
		"total_files":   total,
		"total_entries": totalEntries(s.Collected),
	}

	if ev.Choice == domain.ChoiceOutputCustom {
		s.Naming = domain.NamingCustom
		s.State = domain.StateAwaitingCustomSeed
		m.show(ctx, s, ev.MessageID, replies.CustomSelected, vars, replies.Markdown(nil))
		return
	}

	s.Naming = domain.NamingDefault
	s.State = domain.StateAwaitingContactName
	var rows []map[string]interface{}
	for i, f := range s.Collected {
		if i == listLimit {
			break
		}
		rows = append(rows, map[string]interface{}{
			"from": f.OriginalFilename,
			"to":   naming.DefaultName(f.OriginalFilename, naming.ExtText, naming.ExtCard),
		})
	}
	vars["files"] = rows
	vars["more"] = max(0, total-listLimit)
	m.show(ctx, s, ev.MessageID, replies.DefaultSelected, vars, replies.Markdown(nil))
}

// ============================================
// FILES
// ============================================

func (m *Machine) onFile(ctx context.Context, s *Session, ev Event) {
	if s.State != domain.StateAwaitingUploads {
		m.send(ctx, s, replies.NoPendingFile, nil, domain.MessageOptions{})
		return
	}
	if ev.Err != nil {
		m.rejectFile(ctx, s, ev.Filename, ev.Err)
		return
	}
	if m.uploads.CapReached(s.Mode, len(s.Pending)) {
		m.rejectFile(ctx, s, ev.Filename, domain.ErrTooManyFiles)
		return
	}

	result, err := m.uploads.Process(s.Mode, ev.Filename, ev.Data)
	if err != nil {
		m.rejectFile(ctx, s, ev.Filename, err)
		return
	}

	s.Pending = append(s.Pending, result)
	s.LastUploadAt = m.now()
	logger.Info("file accepted",
		"session", s.Key, "mode", string(s.Mode), "file", ev.Filename,
		"entries", result.Size(), "pending", len(s.Pending))

	m.updateUploadStatus(ctx, s)
	if m.sched != nil {
		m.sched.After(m.uploads.CheckDelay(), s.Key, uploadCheckEvent(s.Mode))
	}
}

func (m *Machine) updateUploadStatus(ctx context.Context, s *Session) {
	text := m.replies.Text(replies.UploadStatus, replies.Vars{
		"files":   len(s.Pending),
		"entries": totalEntries(s.Pending),
		"unit":    unitFor(s.Mode),
	})
	opts := replies.Markdown(nil)

	if s.Status.IsZero() {
		h, err := m.gw.CreateStatus(ctx, s.Key, text, opts)
		if err != nil {
			logger.Warn("create status failed", "session", s.Key, "error", err)
			return
		}
		s.Status = h
		return
	}
	// Progress edits are best-effort; a vanished status message is ignored.
	if err := m.gw.EditStatus(ctx, s.Status, text, opts); err != nil && !errors.Is(err, domain.ErrStatusGone) {
		logger.Warn("edit status failed", "session", s.Key, "error", err)
	}
}

func (m *Machine) rejectFile(ctx context.Context, s *Session, name string, err error) {
	logger.Info("file rejected", "session", s.Key, "mode", string(s.Mode), "file", name, "reason", err)

	vars := replies.Vars{"name": name}
	key := replies.InternalError
	switch {
	case errors.Is(err, domain.ErrUnsupportedFileType):
		key = replies.UnsupportedFile
		vars["ext"] = strings.TrimPrefix(upload.Extension(s.Mode), ".")
	case errors.Is(err, domain.ErrUndecodableContent):
		key = replies.Undecodable
	case errors.Is(err, domain.ErrNoExtractableData):
		key = replies.NoData
		vars["unit"] = unitFor(s.Mode)
	case errors.Is(err, domain.ErrTooManyFiles):
		key = replies.TooManyFiles
		vars["max_files"] = m.uploads.MaxFiles(s.Mode)
	case errors.Is(err, upload.ErrFileTooLarge):
		key = replies.FileTooLarge
		vars["limit"] = int(m.uploads.MaxFileBytes())
	}
	m.send(ctx, s, key, vars, replies.Markdown(nil))
}

// onUploadCheck closes the upload window once it has been quiet long
// enough. Every scheduled check for a burst fires; only the first one that
// finds the window quiet acts, because it moves the session out of
// AwaitingUploads before any outbound call.
func (m *Machine) onUploadCheck(ctx context.Context, s *Session, mode domain.Mode) {
	if s.State != domain.StateAwaitingUploads || s.Mode != mode || len(s.Pending) == 0 {
		return
	}
	if !m.uploads.QuietFor(s.LastUploadAt, m.now()) {
		return
	}

	var (
		prompt  string
		buttons [][]domain.Button
	)
	switch mode {
	case domain.ModeCvV1:
		s.closeUploads(domain.StateAwaitingOutputModeChoice)
		prompt, buttons = "output_mode", replies.OutputModeButtons()
	case domain.ModeCvV2:
		s.closeUploads(domain.StateAwaitingBatchFormatLine)
		s.Merged = convert.MergedNumbers(s.Collected, m.policy)
		prompt = "batch"
	case domain.ModeMergeText, domain.ModeMergeCard:
		s.closeUploads(domain.StateAwaitingMergeOutputName)
		prompt = "merge_name"
	case domain.ModeCardToText:
		s.closeUploads(domain.StateProcessing)
	default:
		return
	}
	logger.Info("upload window closed",
		"session", s.Key, "mode", string(mode), "files", len(s.Collected))

	total := len(s.Collected)
	var rows []map[string]interface{}
	for i, f := range s.Collected {
		if i == listLimit {
			break
		}
		rows = append(rows, map[string]interface{}{"name": f.OriginalFilename, "count": f.Size()})
	}
	m.showStatus(ctx, s, replies.UploadComplete, replies.Vars{
		"files":         rows,
		"more":          max(0, total-listLimit),
		"total_files":   total,
		"total_entries": totalEntries(s.Collected),
		"unit":          unitFor(mode),
		"unique":        len(s.Merged),
		"prompt":        prompt,
	}, replies.Markdown(buttons))

	if mode == domain.ModeCardToText {
		m.runCardToText(ctx, s)
	}
}

// ============================================
// TEXT
// ============================================

func (m *Machine) onText(ctx context.Context, s *Session, text string) {
	input := strings.TrimSpace(text)

	if needsCollected(s.State) && len(s.Collected) == 0 {
		logger.Warn("collected data missing", "session", s.Key, "state", string(s.State))
		m.send(ctx, s, replies.MissingData, nil, domain.MessageOptions{})
		s.Reset()
		return
	}

	switch s.State {
	case domain.StateAwaitingRawText:
		m.runRawText(ctx, s, text)

	case domain.StateAwaitingCustomSeed:
		head, last, err := naming.Preview(input, len(s.Collected), previewLimit, naming.ExtCard)
		if err != nil {
			m.send(ctx, s, replies.InvalidSeed, nil, replies.Markdown(nil))
			return
		}
		s.Seed = input
		s.State = domain.StateAwaitingContactName
		m.send(ctx, s, replies.SeedPreview, replies.Vars{
			"head":        head,
			"last":        last,
			"total_files": len(s.Collected),
		}, replies.Markdown(nil))

	case domain.StateAwaitingContactName:
		if input == "" {
			m.send(ctx, s, replies.EmptyContactName, nil, domain.MessageOptions{})
			return
		}
		m.runCvV1(ctx, s, input)

	case domain.StateAwaitingBatchFormatLine:
		spec, err := ParseBatchSpec(input, len(s.Merged))
		if err != nil {
			m.rejectBatchSpec(ctx, s, spec, err)
			return
		}
		m.runCvV2(ctx, s, spec)

	case domain.StateAwaitingMergeOutputName:
		name, err := naming.OutputBase(input, mergeExt(s.Mode))
		if err != nil {
			m.send(ctx, s, replies.EmptyOutputName, nil, domain.MessageOptions{})
			return
		}
		m.runMerge(ctx, s, name)

	default:
		m.send(ctx, s, replies.NoPendingText, nil, domain.MessageOptions{})
	}
}

func (m *Machine) rejectBatchSpec(ctx context.Context, s *Session, spec BatchSpec, err error) {
	logger.Info("batch line rejected", "session", s.Key, "reason", err)

	switch {
	case errors.Is(err, domain.ErrInvalidSeed):
		m.send(ctx, s, replies.InvalidSeed, nil, replies.Markdown(nil))
	case errors.Is(err, domain.ErrInsufficientData):
		m.send(ctx, s, replies.Insufficient, replies.Vars{
			"per_file":  spec.PerFile,
			"available": len(s.Merged),
		}, replies.Markdown(nil))
	default:
		m.send(ctx, s, replies.MalformedBatch, nil, replies.Markdown(nil))
	}
}

// ============================================
// OUTBOUND HELPERS
// ============================================

// send posts a new message. Transport errors are logged and swallowed.
func (m *Machine) send(ctx context.Context, s *Session, key replies.Key, vars replies.Vars, opts domain.MessageOptions) {
	text := m.replies.Text(key, vars)
	if err := m.gw.SendText(ctx, s.Key, text, opts); err != nil {
		logger.Warn("send text failed", "session", s.Key, "reply", string(key), "error", err)
	}
}

// show edits the message that carried a pressed button, or posts a new one
// when there is none or it cannot be edited.
func (m *Machine) show(ctx context.Context, s *Session, messageID int64, key replies.Key, vars replies.Vars, opts domain.MessageOptions) {
	if messageID != 0 {
		text := m.replies.Text(key, vars)
		err := m.gw.EditStatus(ctx, domain.StatusHandle{SessionKey: s.Key, MessageID: messageID}, text, opts)
		if err == nil {
			return
		}
		logger.Debug("edit menu failed, sending new", "session", s.Key, "error", err)
	}
	m.send(ctx, s, key, vars, opts)
}

// showStatus turns the upload status message into the next prompt. The
// prompt carries the only way forward, so a status that cannot be edited
// is replaced by a new message.
func (m *Machine) showStatus(ctx context.Context, s *Session, key replies.Key, vars replies.Vars, opts domain.MessageOptions) {
	m.show(ctx, s, s.Status.MessageID, key, vars, opts)
}

func unitFor(mode domain.Mode) string {
	if mode.AcceptsCards() {
		return "kontak"
	}
	return "nomor"
}

// mergeExt is the output extension of a merge run.
func mergeExt(mode domain.Mode) string {
	if mode == domain.ModeMergeCard {
		return naming.ExtCard
	}
	return naming.ExtText
}

func needsCollected(state domain.StateKind) bool {
	switch state {
	case domain.StateAwaitingCustomSeed, domain.StateAwaitingContactName,
		domain.StateAwaitingBatchFormatLine, domain.StateAwaitingMergeOutputName:
		return true
	default:
		return false
	}
}
