package bot

import (
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"

	"bet-tracker-bot/internal/config"
	"bet-tracker-bot/internal/pkg/metrics"
)

type fakeContext struct {
	tele.Context
	text     string
	chat     *tele.Chat
	sender   *tele.User
	callback *tele.Callback
	store    map[string]interface{}
	replies  []string
}

func (f *fakeContext) Text() string               { return f.text }
func (f *fakeContext) Chat() *tele.Chat           { return f.chat }
func (f *fakeContext) Sender() *tele.User         { return f.sender }
func (f *fakeContext) Callback() *tele.Callback   { return f.callback }
func (f *fakeContext) Get(key string) interface{} { return f.store[key] }

func (f *fakeContext) Set(key string, v interface{}) {
	if f.store == nil {
		f.store = map[string]interface{}{}
	}
	f.store[key] = v
}

func (f *fakeContext) Reply(what interface{}, _ ...interface{}) error {
	f.replies = append(f.replies, fmt.Sprint(what))
	return nil
}

func scrape(t *testing.T, m *metrics.Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestCommandName(t *testing.T) {
	tests := []struct {
		name string
		ctx  *fakeContext
		want string
	}{
		{"plain command", &fakeContext{text: "/stats alice weekly"}, "/stats"},
		{"bot suffix", &fakeContext{text: "/Leaderboard@BetBot monthly"}, "/leaderboard"},
		{"callback", &fakeContext{callback: &tele.Callback{Data: "\flb_week"}}, "callback"},
		{"plain text", &fakeContext{text: "hello"}, ""},
		{"empty", &fakeContext{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, commandName(tt.ctx))
		})
	}
}

func TestAdminMiddleware(t *testing.T) {
	cfg := &config.Config{Admin: config.AdminConfig{IDs: []int64{42}}}
	called := false
	h := AdminMiddleware(cfg)(func(tele.Context) error {
		called = true
		return nil
	})

	c := &fakeContext{text: "/addpick a 2 10", sender: &tele.User{ID: 7}}
	require.NoError(t, h(c))
	assert.False(t, called)
	assert.Equal(t, []string{"🚫 You are not authorized to use this command."}, c.replies)
	assert.Equal(t, metrics.OutcomeRejected, c.Get(outcomeKey))

	c = &fakeContext{text: "/addpick a 2 10", sender: &tele.User{ID: 42}}
	require.NoError(t, h(c))
	assert.True(t, called)
	assert.Empty(t, c.replies)
}

func TestWhitelistMiddleware(t *testing.T) {
	cfg := &config.Config{
		Admin:     config.AdminConfig{IDs: []int64{1}},
		Whitelist: config.WhitelistConfig{Chats: []int64{-100}},
	}
	const userID = 777777777777
	var calls int
	h := WhitelistMiddleware(cfg)(func(tele.Context) error {
		calls++
		return nil
	})

	// Unknown group is ignored.
	require.NoError(t, h(&fakeContext{chat: &tele.Chat{ID: -200, Type: tele.ChatGroup}, sender: &tele.User{ID: userID}}))
	assert.Equal(t, 0, calls)

	// Unknown private user is ignored until seen in a whitelisted group.
	private := &tele.Chat{ID: userID, Type: tele.ChatPrivate}
	require.NoError(t, h(&fakeContext{chat: private, sender: &tele.User{ID: userID}}))
	assert.Equal(t, 0, calls)

	require.NoError(t, h(&fakeContext{chat: &tele.Chat{ID: -100, Type: tele.ChatSuperGroup}, sender: &tele.User{ID: userID}}))
	assert.Equal(t, 1, calls)

	require.NoError(t, h(&fakeContext{chat: private, sender: &tele.User{ID: userID}}))
	assert.Equal(t, 2, calls)

	// Admins may always use private chat.
	require.NoError(t, h(&fakeContext{chat: &tele.Chat{ID: 1, Type: tele.ChatPrivate}, sender: &tele.User{ID: 1}}))
	assert.Equal(t, 3, calls)
}

func TestMetricsMiddleware(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	cfg := &config.Config{Admin: config.AdminConfig{IDs: []int64{42}}}

	ok := MetricsMiddleware(m)(AdminMiddleware(cfg)(func(tele.Context) error { return nil }))
	failing := MetricsMiddleware(m)(func(tele.Context) error { return errors.New("boom") })

	require.NoError(t, ok(&fakeContext{text: "/pending", sender: &tele.User{ID: 42}}))
	require.NoError(t, ok(&fakeContext{text: "/pending", sender: &tele.User{ID: 7}}))
	require.NoError(t, ok(&fakeContext{text: "just chatting", sender: &tele.User{ID: 42}}))
	require.Error(t, failing(&fakeContext{text: "/summary", sender: &tele.User{ID: 42}}))

	body := scrape(t, m)
	assert.Contains(t, body, `bettracker_commands_total{command="/pending",outcome="ok"} 1`)
	assert.Contains(t, body, `bettracker_commands_total{command="/pending",outcome="rejected"} 1`)
	assert.Contains(t, body, `bettracker_commands_total{command="/summary",outcome="error"} 1`)
	assert.NotContains(t, body, "just chatting")
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware()(func(tele.Context) error { panic("kaboom") })

	c := &fakeContext{text: "/stats all"}
	assert.NotPanics(t, func() { _ = h(c) })
	assert.Equal(t, []string{"❌ Internal error, please try again later"}, c.replies)
}
