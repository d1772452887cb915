// Package bot provides the Telegram bot initialization and handler registration.
package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"bet-tracker-bot/internal/config"
	"bet-tracker-bot/internal/handler"
	"bet-tracker-bot/internal/pkg/metrics"
	"bet-tracker-bot/internal/service"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot     *tele.Bot
	cfg     *config.Config
	metrics *metrics.Metrics

	// Handlers
	pickHandler  *handler.PickHandler
	statsHandler *handler.StatsHandler
	adminHandler *handler.AdminHandler
}

// Dependencies holds all the dependencies needed by the bot handlers.
type Dependencies struct {
	Config       *config.Config
	PickService  *service.PickService
	StatsService *service.StatsService
	Metrics      *metrics.Metrics
	Location     *time.Location
}

// New creates a new Bot instance with the given dependencies.
func New(deps *Dependencies) (*Bot, error) {
	if deps.Config.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	timeout := deps.Config.Bot.PollTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	pref := tele.Settings{
		Token:  deps.Config.Bot.Token,
		Poller: &tele.LongPoller{Timeout: timeout},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := &Bot{
		bot:     teleBot,
		cfg:     deps.Config,
		metrics: deps.Metrics,
	}

	b.pickHandler = handler.NewPickHandler(deps.PickService)
	b.statsHandler = handler.NewStatsHandler(deps.StatsService, deps.Config.IsAdmin, deps.Location, deps.Config.Display.LeaderboardSize)
	b.adminHandler = handler.NewAdminHandler(deps.PickService, deps.Config.IsAdmin)

	b.registerMiddleware()
	b.registerHandlers()

	return b, nil
}

// registerMiddleware registers all middleware.
func (b *Bot) registerMiddleware() {
	b.bot.Use(RecoveryMiddleware())
	b.bot.Use(WhitelistMiddleware(b.cfg))
	b.bot.Use(LoggingMiddleware())
	b.bot.Use(MetricsMiddleware(b.metrics))
}

// registerHandlers registers all command and callback handlers.
func (b *Bot) registerHandlers() {
	b.bot.Handle("/start", handler.HandleStart)
	b.bot.Handle("/commands", handler.HandleCommands)

	// Everything that reads or writes picks is admin only.
	adminGroup := b.bot.Group()
	adminGroup.Use(AdminMiddleware(b.cfg))
	adminGroup.Handle("/addpick", b.pickHandler.HandleAddPick)
	adminGroup.Handle("/setresult", b.pickHandler.HandleSetResult)
	adminGroup.Handle("/pending", b.pickHandler.HandlePending)
	adminGroup.Handle("/stats", b.statsHandler.HandleStats)
	adminGroup.Handle("/leaderboard", b.statsHandler.HandleLeaderboard)
	adminGroup.Handle("/summary", b.statsHandler.HandleSummary)
	adminGroup.Handle("/resetdb", b.adminHandler.HandleResetDB)

	// Buttons outlive the command that posted them, so each callback
	// handler re-checks admin rights itself.
	b.bot.Handle(tele.OnCallback, b.handleCallback)
}

// handleCallback routes callbacks to appropriate handlers
func (b *Bot) handleCallback(c tele.Context) error {
	callback := c.Callback()
	if callback == nil {
		return nil
	}

	unique := callbackUnique(callback.Data)
	log.Debug().Str("unique", unique).Msg("Callback received")

	switch {
	case strings.HasPrefix(unique, "lb_"):
		return b.statsHandler.HandleLeaderboardCallback(c, unique)
	case strings.HasPrefix(unique, "resetdb_"):
		return b.adminHandler.HandleResetCallback(c, unique)
	}
	return c.Respond()
}

// callbackUnique extracts the button identifier from raw callback data.
// Telebot v3 prefixes data buttons with \f and appends payload after "|".
func callbackUnique(data string) string {
	data = strings.TrimPrefix(data, "\f")
	if i := strings.IndexByte(data, '|'); i >= 0 {
		data = data[:i]
	}
	return data
}

// Start starts the bot polling. It blocks until Stop is called.
func (b *Bot) Start() {
	log.Info().Msg("Starting bot...")
	b.bot.Start()
}

// Stop stops the bot gracefully.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	b.bot.Stop()
}

// GetBot returns the underlying telebot instance.
func (b *Bot) GetBot() *tele.Bot {
	return b.bot
}
