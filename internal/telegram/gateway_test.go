package telegram

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/vcfbot/internal/domain"
)

func TestGateway_SendTextWithKeyboard(t *testing.T) {
	api := newFakeAPI(t)
	g := NewGateway(api.client())

	opts := domain.MessageOptions{
		Markdown: true,
		Buttons: [][]domain.Button{
			{{Label: "A", Choice: domain.ChoiceCvV1}, {Label: "B", Choice: domain.ChoiceCvV2}},
			{{Label: "Back", Choice: domain.ChoiceBackToMain}},
		},
	}
	require.NoError(t, g.SendText(context.Background(), "55", "menu", opts))

	body := api.callsTo("sendMessage")[0].Body
	assert.Equal(t, float64(55), body["chat_id"])
	assert.Equal(t, "Markdown", body["parse_mode"])
	rows := body["reply_markup"].(map[string]any)["inline_keyboard"].([]any)
	require.Len(t, rows, 2)
	assert.Len(t, rows[0].([]any), 2)
	back := rows[1].([]any)[0].(map[string]any)
	assert.Equal(t, "Back", back["text"])
	assert.Equal(t, "back_to_main", back["callback_data"])
}

func TestGateway_MarkdownFallback(t *testing.T) {
	api := newFakeAPI(t)
	var n int32
	api.on("sendMessage", func(apiCall) (int, string) {
		if atomic.AddInt32(&n, 1) == 1 {
			return apiError(http.StatusBadRequest, "Bad Request: can't parse entities: unclosed")
		}
		return http.StatusOK, ""
	})
	g := NewGateway(api.client())

	require.NoError(t, g.SendText(context.Background(), "1", "a_b*c", domain.MessageOptions{Markdown: true}))

	calls := api.callsTo("sendMessage")
	require.Len(t, calls, 2)
	assert.Equal(t, "Markdown", calls[0].Body["parse_mode"])
	assert.NotContains(t, calls[1].Body, "parse_mode")
	assert.Equal(t, "a_b*c", calls[1].Body["text"])
}

func TestGateway_OtherErrorsAreNotRetriedPlain(t *testing.T) {
	api := newFakeAPI(t)
	api.on("sendMessage", func(apiCall) (int, string) {
		return apiError(http.StatusForbidden, "Forbidden: bot was blocked by the user")
	})
	g := NewGateway(api.client())

	err := g.SendText(context.Background(), "1", "x", domain.MessageOptions{Markdown: true})
	assert.Error(t, err)
	assert.Len(t, api.callsTo("sendMessage"), 1)
}

func TestGateway_CreateStatus(t *testing.T) {
	api := newFakeAPI(t)
	g := NewGateway(api.client())

	h, err := g.CreateStatus(context.Background(), "77", "status", domain.MessageOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusHandle{SessionKey: "77", MessageID: 101}, h)
}

func TestGateway_EditStatus(t *testing.T) {
	tests := []struct {
		name    string
		desc    string
		wantErr error
		wantNil bool
	}{
		{name: "ok", wantNil: true},
		{name: "not modified", desc: "Bad Request: message is not modified: specified new message content and reply markup are exactly the same", wantNil: true},
		{name: "not found", desc: "Bad Request: message to edit not found", wantErr: domain.ErrStatusGone},
		{name: "too old", desc: "Bad Request: message can't be edited", wantErr: domain.ErrStatusGone},
		{name: "other", desc: "Bad Request: chat not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI(t)
			if tt.desc != "" {
				api.on("editMessageText", func(apiCall) (int, string) {
					return apiError(http.StatusBadRequest, tt.desc)
				})
			}
			g := NewGateway(api.client())

			err := g.EditStatus(context.Background(), domain.StatusHandle{SessionKey: "9", MessageID: 3}, "new", domain.MessageOptions{})
			switch {
			case tt.wantNil:
				assert.NoError(t, err)
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			default:
				require.Error(t, err)
				assert.NotErrorIs(t, err, domain.ErrStatusGone)
			}

			body := api.callsTo("editMessageText")[0].Body
			assert.Equal(t, float64(9), body["chat_id"])
			assert.Equal(t, float64(3), body["message_id"])
		})
	}
}

func TestGateway_SendFile(t *testing.T) {
	api := newFakeAPI(t)
	var n int32
	api.on("sendDocument", func(apiCall) (int, string) {
		if atomic.AddInt32(&n, 1) == 1 {
			return apiError(http.StatusBadRequest, "Bad Request: can't parse entities")
		}
		return http.StatusOK, ""
	})
	g := NewGateway(api.client())

	require.NoError(t, g.SendFile(context.Background(), "5", "alice.vcf", []byte("card"), "*alice*_"))

	calls := api.callsTo("sendDocument")
	require.Len(t, calls, 2)
	assert.Equal(t, "Markdown", calls[0].Form["parse_mode"])
	assert.NotContains(t, calls[1].Form, "parse_mode")
	assert.Equal(t, "alice.vcf", calls[1].FileName)
}

func TestGateway_BadSessionKey(t *testing.T) {
	api := newFakeAPI(t)
	g := NewGateway(api.client())

	assert.Error(t, g.SendText(context.Background(), "not-a-chat", "x", domain.MessageOptions{}))
	assert.Error(t, g.SendFile(context.Background(), "", "a.txt", nil, ""))
	assert.Empty(t, api.callsTo("sendMessage"))
}

func TestSessionKey(t *testing.T) {
	assert.Equal(t, "-100123", SessionKey(-100123))
	id, err := chatID("-100123")
	require.NoError(t, err)
	assert.Equal(t, int64(-100123), id)
}
