package bot

import (
	"slices"
	"testing"

	"pgregory.net/rapid"

	"bet-tracker-bot/internal/config"
)

// TestAdminPermissionCheckProperty: a user is an admin if and only if
// their id is configured.
func TestAdminPermissionCheckProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		adminIDs := rapid.SliceOfN(rapid.Int64Range(1, 1000000000), 1, 10).Draw(t, "adminIDs")
		cfg := &config.Config{Admin: config.AdminConfig{IDs: adminIDs}}

		known := adminIDs[rapid.IntRange(0, len(adminIDs)-1).Draw(t, "adminIndex")]
		if !cfg.IsAdmin(known) {
			t.Fatalf("known admin %d not recognized, adminIDs=%v", known, adminIDs)
		}

		userID := rapid.Int64Range(1, 1000000000).Draw(t, "userID")
		if got, want := cfg.IsAdmin(userID), slices.Contains(adminIDs, userID); got != want {
			t.Fatalf("IsAdmin(%d)=%v, want %v, adminIDs=%v", userID, got, want, adminIDs)
		}
	})
}

// TestWhitelistEnforcementProperty: a group chat is processed if and only
// if its id is whitelisted, and an empty whitelist allows every chat.
func TestWhitelistEnforcementProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		chatIDs := rapid.SliceOfN(rapid.Int64Range(-1000000000, -1), 0, 10).Draw(t, "chatIDs")
		cfg := &config.Config{Whitelist: config.WhitelistConfig{Chats: chatIDs}}

		chatID := rapid.Int64Range(-1000000000, -1).Draw(t, "chatID")
		want := len(chatIDs) == 0 || slices.Contains(chatIDs, chatID)
		if got := cfg.IsChatAllowed(chatID); got != want {
			t.Fatalf("IsChatAllowed(%d)=%v, want %v, whitelist=%v", chatID, got, want, chatIDs)
		}

		if len(chatIDs) > 0 {
			known := chatIDs[rapid.IntRange(0, len(chatIDs)-1).Draw(t, "chatIndex")]
			if !cfg.IsChatAllowed(known) {
				t.Fatalf("whitelisted chat %d rejected", known)
			}
		}
	})
}

// TestPrivateUserCacheProperty tests the private user cache functionality.
func TestPrivateUserCacheProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		userID := rapid.Int64Range(1, 1000000000).Draw(t, "userID")
		AllowPrivateUser(userID)
		if !IsPrivateUserAllowed(userID) {
			t.Fatalf("user %d should be allowed after being added to private user cache", userID)
		}
	})
}

// TestCallbackUniqueProperty: the identifier survives the \f prefix and
// any "|" payload telebot attaches.
func TestCallbackUniqueProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		unique := rapid.StringMatching(`[a-z_]{1,16}`).Draw(t, "unique")
		payload := rapid.StringMatching(`[a-z0-9|]{0,16}`).Draw(t, "payload")

		for _, data := range []string{unique, "\f" + unique, "\f" + unique + "|" + payload} {
			if got := callbackUnique(data); got != unique {
				t.Fatalf("callbackUnique(%q)=%q, want %q", data, got, unique)
			}
		}
	})
}
