package telegram

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ignite/vcfbot/internal/domain"
	"github.com/ignite/vcfbot/internal/pkg/logger"
	"github.com/ignite/vcfbot/internal/service/upload"
)

// seenCapacity bounds the update_id dedup window.
const seenCapacity = 2048

// EventSink receives routed events. *session.Registry satisfies it.
type EventSink interface {
	OnMenuEvent(ctx context.Context, key string, choice domain.Choice, messageID int64) error
	OnFileEvent(ctx context.Context, key, name string, data []byte, fetchErr error) error
	OnTextEvent(ctx context.Context, key, text string) error
}

// commands maps slash commands to menu choices. Other commands are ignored.
var commands = map[string]domain.Choice{
	"start":  domain.ChoiceStart,
	"string": domain.ChoiceTextToCard,
}

// Router converts Bot API updates into session events.
type Router struct {
	client       *Client
	sink         EventSink
	maxFileBytes int64

	mu    sync.Mutex
	seen  map[int64]struct{}
	order []int64
}

// NewRouter creates a router that downloads documents of at most
// maxFileBytes through client.
func NewRouter(client *Client, sink EventSink, maxFileBytes int64) *Router {
	return &Router{
		client:       client,
		sink:         sink,
		maxFileBytes: maxFileBytes,
		seen:         make(map[int64]struct{}, seenCapacity),
	}
}

// markSeen records id and reports whether it was new. Telegram redelivers
// webhook updates that were not acknowledged in time.
func (r *Router) markSeen(id int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.seen[id]; dup {
		return false
	}
	r.seen[id] = struct{}{}
	r.order = append(r.order, id)
	if len(r.order) > seenCapacity {
		delete(r.seen, r.order[0])
		r.order = r.order[1:]
	}
	return true
}

// Handle routes one update. Only dispatch failures are returned.
func (r *Router) Handle(ctx context.Context, u Update) error {
	if !r.markSeen(u.UpdateID) {
		logger.Debug("duplicate update dropped", "update_id", u.UpdateID)
		return nil
	}

	switch {
	case u.CallbackQuery != nil:
		return r.handleCallback(ctx, u.CallbackQuery)
	case u.Message != nil:
		return r.handleMessage(ctx, u.Message)
	}
	return nil
}

func (r *Router) handleCallback(ctx context.Context, cq *CallbackQuery) error {
	if err := r.client.AnswerCallbackQuery(ctx, cq.ID); err != nil {
		logger.Warn("answer callback failed", "error", err)
	}
	if cq.Message == nil || cq.Data == "" {
		return nil
	}
	key := SessionKey(cq.Message.Chat.ID)
	return r.sink.OnMenuEvent(ctx, key, domain.Choice(cq.Data), cq.Message.MessageID)
}

func (r *Router) handleMessage(ctx context.Context, msg *Message) error {
	if msg.From != nil && msg.From.IsBot {
		return nil
	}
	key := SessionKey(msg.Chat.ID)

	if msg.Document != nil {
		return r.handleDocument(ctx, key, msg.Document)
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return nil
	}
	if strings.HasPrefix(text, "/") {
		name := parseCommand(text)
		choice, ok := commands[name]
		if !ok {
			logger.Debug("unknown command ignored", "session", key, "command", name)
			return nil
		}
		return r.sink.OnMenuEvent(ctx, key, choice, 0)
	}
	return r.sink.OnTextEvent(ctx, key, msg.Text)
}

// parseCommand returns the command name of "/name@bot args".
func parseCommand(text string) string {
	name := strings.TrimPrefix(strings.Fields(text)[0], "/")
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	return strings.ToLower(name)
}

func (r *Router) handleDocument(ctx context.Context, key string, doc *Document) error {
	name := doc.FileName
	if name == "" {
		name = "file"
	}
	if doc.FileSize > r.maxFileBytes {
		err := fmt.Errorf("%s: %d bytes: %w", name, doc.FileSize, upload.ErrFileTooLarge)
		return r.sink.OnFileEvent(ctx, key, name, nil, err)
	}

	f, err := r.client.GetFile(ctx, doc.FileID)
	if err != nil {
		if describes(err, "file is too big") {
			err = fmt.Errorf("%s: %w", err.Error(), upload.ErrFileTooLarge)
		}
		logger.Warn("getFile failed", "session", key, "file", name, "error", err)
		return r.sink.OnFileEvent(ctx, key, name, nil, err)
	}

	data, err := r.client.Download(ctx, f.FilePath, r.maxFileBytes)
	if err != nil {
		logger.Warn("download failed", "session", key, "file", name, "error", err)
		return r.sink.OnFileEvent(ctx, key, name, nil, err)
	}
	return r.sink.OnFileEvent(ctx, key, name, data, nil)
}
