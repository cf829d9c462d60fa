package notify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeChannel struct {
	name string
	err  error
	got  []Notification
}

func (f *fakeChannel) Name() string { return f.name }

func (f *fakeChannel) Notify(_ context.Context, n Notification) error {
	f.got = append(f.got, n)
	return f.err
}

func TestNotificationText(t *testing.T) {
	assert.Equal(t, "Title\n\nBody", Notification{Subject: "Title", Body: "Body"}.Text())
	assert.Equal(t, "Body", Notification{Body: "Body"}.Text())
	assert.Equal(t, "Title", Notification{Subject: "Title"}.Text())
}

func TestDispatcher_JoinsErrors(t *testing.T) {
	ok := &fakeChannel{name: "ok"}
	bad := &fakeChannel{name: "bad", err: errors.New("boom")}
	d := NewDispatcher(bad, nil, ok)

	err := d.Notify(context.Background(), Notification{Subject: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad: boom")
	assert.Len(t, ok.got, 1, "later channels still receive after a failure")
	assert.Equal(t, []string{"bad", "ok"}, d.Channels())
}

func TestLogChannel(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ch := NewLog(zap.New(core))
	require.NoError(t, ch.Notify(context.Background(), Notification{Subject: "Deposit overdue", Body: "CH-2024-0001"}))

	entries := logs.FilterMessage("Deposit overdue").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "CH-2024-0001", entries[0].ContextMap()["body"])
}

func TestTelegram_Send(t *testing.T) {
	var (
		mu   sync.Mutex
		sent []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"desk","username":"desk_bot"}}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			_ = r.ParseForm()
			mu.Lock()
			sent = append(sent, r.FormValue("chat_id")+":"+r.FormValue("text"))
			mu.Unlock()
			_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"group"}}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	tg, err := NewTelegramWithEndpoint("123:abc", srv.URL+"/bot%s/%s", 42, srv.Client())
	require.NoError(t, err)
	require.NoError(t, tg.Notify(context.Background(), Notification{Subject: "Briefing due", Body: "Blue Horizon, 1 Jun"}))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, sent, 1)
	assert.Equal(t, "42:Briefing due\n\nBlue Horizon, 1 Jun", sent[0])
}

func TestNewTelegram_RequiresSettings(t *testing.T) {
	_, err := NewTelegram("", 1)
	assert.Error(t, err)
	_, err = NewTelegram("tok", 0)
	assert.Error(t, err)
}
