package handler

import (
	tele "gopkg.in/telebot.v3"
)

// HandleStart handles the /start command.
func HandleStart(c tele.Context) error {
	return c.Reply(
		"🎉 <b>Welcome to the Betting Tracker Bot!</b>\n\n"+
			"Type /commands to see everything I can do.",
		tele.ModeHTML,
	)
}

// HandleCommands handles the /commands command.
func HandleCommands(c tele.Context) error {
	return c.Reply(
		"📋 <b>Command list</b>\n"+
			"• <code>/addpick &lt;user&gt; &lt;odds&gt; &lt;stake&gt;</code> – add a new pick\n"+
			"• <code>/setresult &lt;id&gt; &lt;win/loss&gt;</code> – close a pick\n"+
			"• <code>/pending</code> – show all open bets\n"+
			"• <code>/stats &lt;user|all&gt; [daily|weekly|monthly|lifetime]</code> – performance stats\n"+
			"• <code>/leaderboard [weekly|monthly|lifetime]</code> – top bettors\n"+
			"• <code>/summary</code> – condensed group overview\n"+
			"• <code>/resetdb</code> – wipe database (admin only)",
		tele.ModeHTML,
	)
}
