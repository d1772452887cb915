// Package handler provides Telegram bot command handlers.
package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"bet-tracker-bot/internal/model"
	"bet-tracker-bot/internal/service"
)

const (
	usageAddPick   = "⚠️ Usage: /addpick <user> <odds> <stake>"
	usageSetResult = "⚠️ Usage: /setresult <id> <win/loss>"
)

// PickHandler handles pick recording and settlement commands.
type PickHandler struct {
	picks *service.PickService
}

// NewPickHandler creates a new PickHandler.
func NewPickHandler(picks *service.PickService) *PickHandler {
	return &PickHandler{picks: picks}
}

// HandleAddPick handles the /addpick command.
// Format: /addpick <user> <odds> <stake>
func (h *PickHandler) HandleAddPick(c tele.Context) error {
	ctx := context.Background()

	args := c.Args()
	if len(args) != 3 {
		return c.Reply(usageAddPick)
	}

	pick, err := h.picks.AddPick(ctx, args[0], args[1], args[2])
	if errors.Is(err, service.ErrMalformedInput) {
		return c.Reply(usageAddPick)
	}
	if err != nil {
		log.Error().Err(err).Str("user", args[0]).Msg("Failed to add pick")
		return c.Reply("❌ Could not save the pick, please try again later")
	}

	return c.Reply(FormatNewPick(pick), tele.ModeHTML)
}

// HandleSetResult handles the /setresult command.
// Format: /setresult <id> <win|loss>
func (h *PickHandler) HandleSetResult(c tele.Context) error {
	ctx := context.Background()

	args := c.Args()
	if len(args) != 2 {
		return c.Reply(usageSetResult)
	}

	changed, err := h.picks.SetResult(ctx, args[0], args[1])
	if errors.Is(err, service.ErrInvalidResult) || errors.Is(err, service.ErrMalformedInput) {
		return c.Reply(usageSetResult)
	}
	if err != nil {
		log.Error().Err(err).Str("identifier", args[0]).Msg("Failed to set result")
		return c.Reply("❌ Could not store the result, please try again later")
	}

	if !changed {
		return c.Reply("🔎 Pick not found.")
	}
	if strings.EqualFold(args[1], string(model.ResultWin)) {
		return c.Reply("✅ Result stored.")
	}
	return c.Reply("❌ Result stored.")
}

// HandlePending handles the /pending command.
func (h *PickHandler) HandlePending(c tele.Context) error {
	ctx := context.Background()

	pending, err := h.picks.Pending(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load pending picks")
		return c.Reply("❌ Could not load pending picks, please try again later")
	}

	return c.Reply(FormatPending(pending), tele.ModeHTML)
}

// FormatNewPick renders the confirmation for a recorded pick.
func FormatNewPick(p *model.Pick) string {
	return fmt.Sprintf("🎯 New pick saved!\n🆔 <b>%s</b> | 👤 <b>%s</b> | Odds <b>%g</b> | 💵 <b>%g</b>",
		p.ShortID, esc(p.User), p.Odds, p.Stake)
}

// FormatPending renders the list of open picks.
func FormatPending(picks []*model.Pick) string {
	var sb strings.Builder
	sb.WriteString("⏳ <b>Pending Picks</b>\n")
	if len(picks) == 0 {
		sb.WriteString("— none —")
		return sb.String()
	}
	rows := make([]string, 0, len(picks))
	for _, p := range picks {
		rows = append(rows, fmt.Sprintf("🆔 <b>%s</b> | 👤 <b>%s</b> | Odds %g | 💵 %g",
			p.ShortID, esc(p.User), p.Odds, p.Stake))
	}
	sb.WriteString(strings.Join(rows, "\n"))
	return sb.String()
}
