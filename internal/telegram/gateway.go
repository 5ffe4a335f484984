package telegram

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ignite/vcfbot/internal/domain"
	"github.com/ignite/vcfbot/internal/pkg/logger"
)

// Gateway is the session machine's outbound transport over the Bot API.
type Gateway struct {
	client *Client
}

// NewGateway wraps client.
func NewGateway(client *Client) *Gateway {
	return &Gateway{client: client}
}

// SessionKey returns the session key for a chat.
func SessionKey(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

func chatID(key string) (int64, error) {
	id, err := strconv.ParseInt(key, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("session key %q is not a chat id: %w", key, err)
	}
	return id, nil
}

func parseMode(opts domain.MessageOptions) string {
	if opts.Markdown {
		return ParseModeMarkdown
	}
	return ""
}

func keyboard(buttons [][]domain.Button) *InlineKeyboardMarkup {
	if len(buttons) == 0 {
		return nil
	}
	rows := make([][]InlineKeyboardButton, 0, len(buttons))
	for _, row := range buttons {
		out := make([]InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			out = append(out, InlineKeyboardButton{Text: b.Label, CallbackData: string(b.Choice)})
		}
		rows = append(rows, out)
	}
	return &InlineKeyboardMarkup{InlineKeyboard: rows}
}

// SendText posts a new message. Markdown Telegram cannot parse is resent
// as plain text.
func (g *Gateway) SendText(ctx context.Context, key, text string, opts domain.MessageOptions) error {
	_, err := g.send(ctx, key, text, opts)
	return err
}

// CreateStatus posts a message whose id is kept for later edits.
func (g *Gateway) CreateStatus(ctx context.Context, key, text string, opts domain.MessageOptions) (domain.StatusHandle, error) {
	msg, err := g.send(ctx, key, text, opts)
	if err != nil {
		return domain.StatusHandle{}, err
	}
	return domain.StatusHandle{SessionKey: key, MessageID: msg.MessageID}, nil
}

func (g *Gateway) send(ctx context.Context, key, text string, opts domain.MessageOptions) (*Message, error) {
	id, err := chatID(key)
	if err != nil {
		return nil, err
	}
	mode := parseMode(opts)
	msg, err := g.client.SendMessage(ctx, id, text, mode, keyboard(opts.Buttons))
	if err != nil && mode != "" && IsParseError(err) {
		logger.Warn("markdown rejected, resending plain", "session", key, "error", err)
		msg, err = g.client.SendMessage(ctx, id, text, "", keyboard(opts.Buttons))
	}
	return msg, err
}

// EditStatus edits a message in place. An unchanged text counts as
// success; a deleted or expired message yields domain.ErrStatusGone.
func (g *Gateway) EditStatus(ctx context.Context, handle domain.StatusHandle, text string, opts domain.MessageOptions) error {
	id, err := chatID(handle.SessionKey)
	if err != nil {
		return err
	}
	mode := parseMode(opts)
	err = g.client.EditMessageText(ctx, id, handle.MessageID, text, mode, keyboard(opts.Buttons))
	if err != nil && mode != "" && IsParseError(err) {
		err = g.client.EditMessageText(ctx, id, handle.MessageID, text, "", keyboard(opts.Buttons))
	}
	switch {
	case err == nil, IsNotModified(err):
		return nil
	case IsMessageGone(err):
		return fmt.Errorf("edit %d: %w", handle.MessageID, domain.ErrStatusGone)
	default:
		return err
	}
}

// SendFile uploads an output document with an optional Markdown caption.
func (g *Gateway) SendFile(ctx context.Context, key, name string, data []byte, caption string) error {
	id, err := chatID(key)
	if err != nil {
		return err
	}
	err = g.client.SendDocument(ctx, id, name, data, caption, ParseModeMarkdown)
	if err != nil && caption != "" && IsParseError(err) {
		err = g.client.SendDocument(ctx, id, name, data, caption, "")
	}
	return err
}
