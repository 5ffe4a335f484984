package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ignite/vcfbot/internal/domain"
	"github.com/ignite/vcfbot/internal/pkg/httpretry"
)

const testToken = "123:TEST"

// apiCall is one request received by the fake Bot API.
type apiCall struct {
	Method   string
	Body     map[string]any
	Form     map[string]string
	FileName string
	FileData []byte
}

type apiHandler func(c apiCall) (int, string)

// fakeAPI is an in-memory Bot API server.
type fakeAPI struct {
	t   *testing.T
	srv *httptest.Server

	mu       sync.Mutex
	calls    []apiCall
	handlers map[string]apiHandler
	files    map[string][]byte
	nextMsg  int64
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	f := &fakeAPI{
		t:        t,
		handlers: map[string]apiHandler{},
		files:    map[string][]byte{},
		nextMsg:  100,
	}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeAPI) client() *Client {
	doer := httpretry.NewRetryClient(f.srv.Client(), 2).WithBackoff(time.Millisecond, 5*time.Millisecond)
	return newClientWithDoer(f.srv.URL+"/", testToken, doer)
}

func (f *fakeAPI) on(method string, h apiHandler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[method] = h
}

func (f *fakeAPI) addFile(path string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[path] = data
}

func (f *fakeAPI) callsTo(method string) []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []apiCall
	for _, c := range f.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	filePrefix := "/file/bot" + testToken + "/"
	if strings.HasPrefix(r.URL.Path, filePrefix) {
		f.mu.Lock()
		data, ok := f.files[strings.TrimPrefix(r.URL.Path, filePrefix)]
		f.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
		return
	}

	methodPrefix := "/bot" + testToken + "/"
	if !strings.HasPrefix(r.URL.Path, methodPrefix) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"ok":false,"error_code":401,"description":"Unauthorized"}`)
		return
	}
	c := apiCall{Method: strings.TrimPrefix(r.URL.Path, methodPrefix)}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			f.t.Errorf("parse multipart: %v", err)
		}
		c.Form = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			c.Form[k] = v[0]
		}
		if fh, ok := r.MultipartForm.File["document"]; ok {
			c.FileName = fh[0].Filename
			file, _ := fh[0].Open()
			c.FileData, _ = io.ReadAll(file)
			file.Close()
		}
	} else {
		raw, _ := io.ReadAll(r.Body)
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &c.Body); err != nil {
				f.t.Errorf("decode %s body: %v", c.Method, err)
			}
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, c)
	h := f.handlers[c.Method]
	f.mu.Unlock()

	status, body := http.StatusOK, ""
	if h != nil {
		status, body = h(c)
	}
	if body == "" {
		body = f.defaultResult(c)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, body)
}

func (f *fakeAPI) defaultResult(c apiCall) string {
	switch c.Method {
	case "sendMessage":
		f.mu.Lock()
		f.nextMsg++
		id := f.nextMsg
		f.mu.Unlock()
		chat, _ := c.Body["chat_id"].(float64)
		return fmt.Sprintf(`{"ok":true,"result":{"message_id":%d,"chat":{"id":%d},"text":"x"}}`, id, int64(chat))
	case "getUpdates":
		return `{"ok":true,"result":[]}`
	default:
		return `{"ok":true,"result":true}`
	}
}

func apiError(status int, desc string) (int, string) {
	body, _ := json.Marshal(map[string]any{"ok": false, "error_code": status, "description": desc})
	return status, string(body)
}

// sinkEvent is one event delivered to recordingSink.
type sinkEvent struct {
	Kind      string
	Key       string
	Choice    domain.Choice
	MessageID int64
	Name      string
	Data      []byte
	Err       error
	Text      string
}

type recordingSink struct {
	mu     sync.Mutex
	events []sinkEvent
	notify chan struct{}
	err    error
}

func newRecordingSink() *recordingSink {
	return &recordingSink{notify: make(chan struct{}, 64)}
}

func (s *recordingSink) add(ev sinkEvent) error {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
	s.notify <- struct{}{}
	return s.err
}

func (s *recordingSink) OnMenuEvent(_ context.Context, key string, choice domain.Choice, messageID int64) error {
	return s.add(sinkEvent{Kind: "menu", Key: key, Choice: choice, MessageID: messageID})
}

func (s *recordingSink) OnFileEvent(_ context.Context, key, name string, data []byte, fetchErr error) error {
	return s.add(sinkEvent{Kind: "file", Key: key, Name: name, Data: data, Err: fetchErr})
}

func (s *recordingSink) OnTextEvent(_ context.Context, key, text string) error {
	return s.add(sinkEvent{Kind: "text", Key: key, Text: text})
}

func (s *recordingSink) all() []sinkEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sinkEvent(nil), s.events...)
}

// wait blocks until n events arrived in total or fails the test.
func (s *recordingSink) wait(t *testing.T, n int) []sinkEvent {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if evs := s.all(); len(evs) >= n {
			return evs
		}
		select {
		case <-s.notify:
		case <-deadline:
			t.Fatalf("timed out waiting for %d events, got %d", n, len(s.all()))
		}
	}
}

func textUpdate(id, chat int64, text string) Update {
	return Update{UpdateID: id, Message: &Message{MessageID: id, Chat: Chat{ID: chat}, Text: text}}
}
