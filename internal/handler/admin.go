package handler

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"bet-tracker-bot/internal/service"
)

// Reset confirmation callbacks.
const (
	CallbackResetYes = "resetdb_yes"
	CallbackResetNo  = "resetdb_no"
)

// AdminHandler handles the destructive admin commands.
type AdminHandler struct {
	picks   *service.PickService
	isAdmin func(userID int64) bool
}

// NewAdminHandler creates a new AdminHandler. isAdmin guards the
// confirmation buttons, which bypass command middleware.
func NewAdminHandler(picks *service.PickService, isAdmin func(userID int64) bool) *AdminHandler {
	return &AdminHandler{
		picks:   picks,
		isAdmin: isAdmin,
	}
}

// HandleResetDB handles the /resetdb command.
// Format: /resetdb [yes]
// Without "yes" it asks for confirmation with inline buttons.
func (h *AdminHandler) HandleResetDB(c tele.Context) error {
	args := c.Args()
	if len(args) > 0 && strings.EqualFold(args[0], "yes") {
		if err := h.reset(c); err != nil {
			return c.Reply("❌ Reset failed, please try again later")
		}
		return c.Reply("🗑️ Database wiped clean.")
	}

	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(
		markup.Data("✅ Yes, wipe it", CallbackResetYes),
		markup.Data("❌ No, keep data", CallbackResetNo),
	))
	return c.Reply("⚠️ <b>Danger!</b> This will delete <i>every</i> pick.\nAre you sure?", markup, tele.ModeHTML)
}

// HandleResetCallback handles the confirmation buttons.
func (h *AdminHandler) HandleResetCallback(c tele.Context, unique string) error {
	sender := c.Sender()
	if sender == nil || !h.isAdmin(sender.ID) {
		_ = c.Edit(noPermission)
		return c.Respond(&tele.CallbackResponse{Text: noPermission, ShowAlert: true})
	}

	if unique != CallbackResetYes {
		_ = c.Edit("✅ Reset cancelled.")
		return c.Respond()
	}

	if err := h.reset(c); err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "❌ Reset failed", ShowAlert: true})
	}
	_ = c.Edit("🗑️ Database wiped clean.")
	return c.Respond()
}

func (h *AdminHandler) reset(c tele.Context) error {
	deleted, err := h.picks.Reset(context.Background())
	if err != nil {
		log.Error().Err(err).Msg("Failed to reset picks")
		return err
	}

	var adminID int64
	if sender := c.Sender(); sender != nil {
		adminID = sender.ID
	}
	log.Info().
		Int64("admin_id", adminID).
		Int64("deleted", deleted).
		Str("operation", "resetdb").
		Msg("Admin operation executed")
	return nil
}
