package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ignite/vcfbot/internal/config"
	"github.com/ignite/vcfbot/internal/pkg/httpretry"
	"github.com/ignite/vcfbot/internal/service/upload"
)

// ParseModeMarkdown is Telegram's legacy Markdown dialect.
const ParseModeMarkdown = "Markdown"

// Client is a Telegram Bot API client
type Client struct {
	baseURL    string
	token      string
	httpClient httpretry.HTTPDoer
}

// NewClient creates a new Bot API client
func NewClient(cfg config.TelegramConfig) *Client {
	// Long polls hold the connection for PollTimeout; leave headroom.
	timeout := cfg.Timeout()
	if floor := cfg.PollTimeout() + 10*time.Second; timeout < floor {
		timeout = floor
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.BotToken,
		httpClient: httpretry.NewRetryClient(&http.Client{
			Timeout: timeout,
		}, cfg.MaxRetries),
	}
}

// newClientWithDoer is used by tests to swap the transport.
func newClientWithDoer(baseURL, token string, doer httpretry.HTTPDoer) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), token: token, httpClient: doer}
}

func (c *Client) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
}

// call posts a JSON body to a Bot API method and decodes result into out.
func (c *Client) call(ctx context.Context, method string, params, out any) error {
	jsonBody, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshaling %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL(method), bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, method, out)
}

func (c *Client) do(req *http.Request, method string, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading %s response: %w", method, err)
	}

	var envelope apiResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return &APIError{Method: method, StatusCode: resp.StatusCode, Description: strings.TrimSpace(string(raw))}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !envelope.OK {
		return &APIError{
			Method:      method,
			StatusCode:  resp.StatusCode,
			ErrorCode:   envelope.ErrorCode,
			Description: envelope.Description,
		}
	}

	if out == nil || len(envelope.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return fmt.Errorf("parsing %s result: %w", method, err)
	}
	return nil
}

// GetUpdates long-polls for updates after offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	secs := int(timeout.Seconds())
	if secs < 0 {
		secs = 0
	}
	var updates []Update
	err := c.call(ctx, "getUpdates", getUpdatesRequest{
		Offset:         offset,
		Timeout:        secs,
		AllowedUpdates: allowedUpdates,
	}, &updates)
	return updates, err
}

// GetFile resolves a file id to a downloadable path.
func (c *Client) GetFile(ctx context.Context, fileID string) (*File, error) {
	if strings.TrimSpace(fileID) == "" {
		return nil, fmt.Errorf("missing file_id")
	}
	var f File
	if err := c.call(ctx, "getFile", map[string]string{"file_id": fileID}, &f); err != nil {
		return nil, err
	}
	if f.FilePath == "" {
		return nil, fmt.Errorf("telegram getFile: missing file_path")
	}
	return &f, nil
}

// Download fetches a file returned by GetFile. Files larger than maxBytes
// fail with upload.ErrFileTooLarge.
func (c *Client) Download(ctx context.Context, filePath string, maxBytes int64) ([]byte, error) {
	fileURL := fmt.Sprintf("%s/file/bot%s/%s", c.baseURL, c.token, strings.TrimLeft(filePath, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &APIError{Method: "download", StatusCode: resp.StatusCode, Description: strings.TrimSpace(string(raw))}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("file over %d bytes: %w", maxBytes, upload.ErrFileTooLarge)
	}
	return data, nil
}

// SendMessage posts a message and returns it.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text, parseMode string, markup *InlineKeyboardMarkup) (*Message, error) {
	var msg Message
	err := c.call(ctx, "sendMessage", sendMessageRequest{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   parseMode,
		ReplyMarkup: markup,
	}, &msg)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// EditMessageText replaces the text (and keyboard) of a sent message.
func (c *Client) EditMessageText(ctx context.Context, chatID, messageID int64, text, parseMode string, markup *InlineKeyboardMarkup) error {
	return c.call(ctx, "editMessageText", editMessageTextRequest{
		ChatID:      chatID,
		MessageID:   messageID,
		Text:        text,
		ParseMode:   parseMode,
		ReplyMarkup: markup,
	}, nil)
}

// SendDocument uploads data as a document named filename.
func (c *Client) SendDocument(ctx context.Context, chatID int64, filename string, data []byte, caption, parseMode string) error {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := mw.WriteField("chat_id", strconv.FormatInt(chatID, 10)); err != nil {
		return err
	}
	if caption != "" {
		if err := mw.WriteField("caption", caption); err != nil {
			return err
		}
		if parseMode != "" {
			if err := mw.WriteField("parse_mode", parseMode); err != nil {
				return err
			}
		}
	}
	part, err := mw.CreateFormFile("document", filename)
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	// bytes.Reader lets the retry client rewind the body.
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL("sendDocument"), bytes.NewReader(body.Bytes()))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return c.do(req, "sendDocument", nil)
}

// AnswerCallbackQuery stops the client-side spinner on a pressed button.
func (c *Client) AnswerCallbackQuery(ctx context.Context, id string) error {
	return c.call(ctx, "answerCallbackQuery", answerCallbackQueryRequest{CallbackQueryID: id}, nil)
}

// SetWebhook registers url for update delivery. Telegram echoes secret in
// the X-Telegram-Bot-Api-Secret-Token header.
func (c *Client) SetWebhook(ctx context.Context, webhookURL, secret string) error {
	if _, err := url.ParseRequestURI(webhookURL); err != nil {
		return fmt.Errorf("invalid webhook url: %w", err)
	}
	return c.call(ctx, "setWebhook", setWebhookRequest{
		URL:            webhookURL,
		SecretToken:    secret,
		AllowedUpdates: allowedUpdates,
	}, nil)
}

// DeleteWebhook switches the bot back to getUpdates delivery.
func (c *Client) DeleteWebhook(ctx context.Context) error {
	return c.call(ctx, "deleteWebhook", map[string]bool{"drop_pending_updates": false}, nil)
}
