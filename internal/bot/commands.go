package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/averma/versewatch/internal/services"
)

func (b *Bot) cmdStart(chatID int64) {
	b.reply(chatID, fmt.Sprintf(
		"SHEIN Verse Product Monitor\n\n"+
			"Welcome User: %d\n\n"+
			"I automatically check SHEIN Verse products and notify you when they're available for delivery to your pincode.\n\n"+
			"COMMANDS:\n"+
			"/mystatus - View your personal configuration\n"+
			"/seturl <url> - Add a SHEIN filtered URL\n"+
			"/setpin <codes> - Add pincodes\n"+
			"/rmpin <codes> - Remove pincodes\n"+
			"/listpin - List all pincodes\n"+
			"/settoken - Set SHEIN auth token (for API access)\n"+
			"/check - Run a check now\n"+
			"/help - Show help\n\n"+
			"Auto-check runs every %s.",
		chatID, formatInterval(b.CheckInterval)))
}

func (b *Bot) cmdHelp(chatID int64) {
	b.reply(chatID,
		"SHEIN Monitor Bot Help\n\n"+
			"LOGIN (OTP):\n"+
			"/login <phone> - Start OTP login\n"+
			"/otp <code> - Complete login with OTP\n\n"+
			"URL MANAGEMENT:\n"+
			"/seturl <url> - Add a SHEIN filtered URL\n"+
			"/seturl - View your current URLs\n"+
			"/rmurl - Remove URLs (with buttons)\n\n"+
			"PINCODE MANAGEMENT:\n"+
			"/setpin <codes> - Add pincodes\n"+
			"/rmpin <codes> - Remove pincodes\n"+
			"/listpin - List all pincodes\n\n"+
			"MONITORING:\n"+
			"/mystatus - View your configuration\n"+
			"/check - Run manual check now\n"+
			"/resend - Resend pending notifications\n"+
			"/clearseen - Clear seen products (re-check all)\n\n"+
			"TIPS:\n"+
			"- Use /login for OTP-based login\n"+
			"- You can add multiple URLs to monitor\n"+
			"- Use /resend if notifications were missed")
}

func (b *Bot) cmdMyStatus(ctx context.Context, chatID int64) {
	st, err := b.Users.Status(ctx, chatID)
	if err != nil {
		b.reply(chatID, "Could not load your configuration. Please try again.")
		return
	}
	urls, err := b.Users.ListURLs(ctx, chatID)
	if err != nil {
		b.reply(chatID, "Could not load your configuration. Please try again.")
		return
	}
	pincodes, err := b.Users.ListPincodes(ctx, chatID)
	if err != nil {
		b.reply(chatID, "Could not load your configuration. Please try again.")
		return
	}

	urlList := "  Not configured"
	if len(urls) > 0 {
		var sb strings.Builder
		for i, u := range urls {
			fmt.Fprintf(&sb, "  %d. %s\n", i+1, truncate(u.URL, 50))
		}
		urlList = strings.TrimRight(sb.String(), "\n")
	}

	pincodesStr := "None configured"
	if len(pincodes) > 0 {
		pincodesStr = strings.Join(pincodes, ", ")
	}

	auth := "Not set"
	if st.HasCredentials {
		auth = "Set"
	}

	nextCheck := fmt.Sprintf("Every %s", formatInterval(b.CheckInterval))
	if b.NextRun != nil {
		if next := b.NextRun(); !next.IsZero() {
			nextCheck = next.UTC().Format("2006-01-02 15:04:05")
		}
	}

	b.reply(chatID, fmt.Sprintf(
		"Your Configuration (User: %d)\n\n"+
			"Check Interval: %s\n"+
			"Auth Cookies: %s\n"+
			"Pincodes (%d): %s\n\n"+
			"URLs (%d):\n%s\n\n"+
			"Statistics:\n"+
			"  Products seen: %d\n"+
			"  Deliveries found: %d\n"+
			"  Pending notifications: %d\n\n"+
			"Last check: %s\n"+
			"Next check: %s",
		chatID, formatInterval(b.CheckInterval), auth,
		len(pincodes), pincodesStr,
		len(urls), urlList,
		st.SeenCount, st.DeliveryCount, st.PendingNotify,
		lastCheckText(st), nextCheck))
}

func (b *Bot) cmdSetURL(ctx context.Context, chatID int64, args string) {
	if args == "" {
		urls, err := b.Users.ListURLs(ctx, chatID)
		if err != nil {
			b.reply(chatID, "Could not load your URLs. Please try again.")
			return
		}
		if len(urls) == 0 {
			b.reply(chatID,
				"No URLs configured.\n\n"+
					"Usage: /seturl <your-shein-url>\n\n"+
					"Example:\n"+
					"/seturl https://www.sheinindia.in/c/sverse-5939-37961?query=...")
			return
		}
		var sb strings.Builder
		for i, u := range urls {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, truncate(u.URL, 60))
		}
		b.reply(chatID, fmt.Sprintf(
			"Your current URLs:\n%s\n"+
				"Usage: /seturl <url> to add a new URL\n"+
				"Use /rmurl to remove URLs", sb.String()))
		return
	}

	err := b.Users.AddURL(ctx, chatID, args)
	switch {
	case errors.Is(err, services.ErrInvalidURL):
		b.reply(chatID, "URL must start with https://")
	case errors.Is(err, services.ErrDuplicateURL):
		b.reply(chatID, "URL already exists in your list.")
	case err != nil:
		b.reply(chatID, "Failed to save URL. Please try again.")
	default:
		urls, _ := b.Users.ListURLs(ctx, chatID)
		b.reply(chatID, fmt.Sprintf(
			"URL Added!\n\n"+
				"Added: %s\n"+
				"Total URLs: %d\n\n"+
				"Use /rmurl to manage URLs\n"+
				"Use /check to test monitoring",
			truncate(args, 60), len(urls)))
	}
}

func (b *Bot) cmdRemoveURL(ctx context.Context, chatID int64) {
	urls, err := b.Users.ListURLs(ctx, chatID)
	if err != nil {
		b.reply(chatID, "Could not load your URLs. Please try again.")
		return
	}
	if len(urls) == 0 {
		b.reply(chatID, "No URLs to remove. Add URLs with /seturl")
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for i, u := range urls {
		label := "Remove: ..." + tail(stripQuery(u.URL), 40)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("rmurl_%d", i+1))))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Cancel", "rmurl_cancel")))

	msg := tgbotapi.NewMessage(chatID, "Select a URL to remove:")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	if _, err := b.API.Send(msg); err != nil {
		b.Log.Warn().Err(err).Int64("chat", chatID).Msg("send rmurl keyboard")
	}
}

func (b *Bot) cmdSetPin(ctx context.Context, chatID int64, args string) {
	tokens := splitTokens(args)
	if len(tokens) == 0 {
		b.reply(chatID,
			"Please provide pincodes.\n\n"+
				"Usage: /setpin <pincode1> <pincode2> ...\n\n"+
				"Examples:\n"+
				"/setpin 335704\n"+
				"/setpin 335704 110001 400001")
		return
	}

	added, invalid, err := b.Users.AddPincodes(ctx, chatID, tokens)
	if err != nil {
		b.reply(chatID, "Failed to save pincodes. Please try again.")
		return
	}
	if len(invalid) > 0 {
		b.reply(chatID, "Invalid pincodes (must be 5-6 digits): "+strings.Join(invalid, ", "))
	}
	if len(added) == 0 {
		if len(invalid) == 0 {
			b.reply(chatID, "Pincodes already exist or nothing to add.")
		}
		return
	}
	current, _ := b.Users.ListPincodes(ctx, chatID)
	b.reply(chatID, fmt.Sprintf(
		"Added: %s\n\nCurrent pincodes (%d): %s",
		strings.Join(added, ", "), len(current), strings.Join(current, ", ")))
}

func (b *Bot) cmdRemovePin(ctx context.Context, chatID int64, args string) {
	tokens := splitTokens(args)
	if len(tokens) == 0 {
		b.reply(chatID,
			"Please provide pincodes to remove.\n\n"+
				"Usage: /rmpin <pincode1> <pincode2> ...\n\n"+
				"Example: /rmpin 110001 400001")
		return
	}

	removed, _, err := b.Users.RemovePincodes(ctx, chatID, tokens)
	if err != nil {
		b.reply(chatID, "Failed to remove pincodes. Please try again.")
		return
	}
	if len(removed) == 0 {
		b.reply(chatID, "No matching pincodes found to remove.")
		return
	}
	current, _ := b.Users.ListPincodes(ctx, chatID)
	if len(current) == 0 {
		b.reply(chatID, fmt.Sprintf("Removed: %s\n\nNo pincodes configured.", strings.Join(removed, ", ")))
		return
	}
	b.reply(chatID, fmt.Sprintf(
		"Removed: %s\n\nRemaining pincodes (%d): %s",
		strings.Join(removed, ", "), len(current), strings.Join(current, ", ")))
}

func (b *Bot) cmdListPin(ctx context.Context, chatID int64) {
	pincodes, err := b.Users.ListPincodes(ctx, chatID)
	if err != nil {
		b.reply(chatID, "Could not load your pincodes. Please try again.")
		return
	}
	if len(pincodes) == 0 {
		b.reply(chatID, "No pincodes configured.")
		return
	}
	b.reply(chatID, fmt.Sprintf("Configured Pincodes (%d):\n\n%s",
		len(pincodes), strings.Join(pincodes, "\n")))
}

func (b *Bot) cmdSetToken(ctx context.Context, chatID int64, args string) {
	if args == "" {
		status := "Not set"
		if st, err := b.Users.Status(ctx, chatID); err == nil && st.HasCredentials {
			status = "Set"
		}
		b.reply(chatID, fmt.Sprintf(
			"SHEIN Auth Cookies: %s\n\n"+
				"To set your auth cookies:\n\n"+
				"1. Open SHEIN India in your browser (logged in)\n"+
				"2. Open Developer Tools (F12)\n"+
				"3. Go to Network tab\n"+
				"4. Click on any request to sheinindia.in\n"+
				"5. Find 'Cookie' in Request Headers\n"+
				"6. Copy the ENTIRE cookie value\n"+
				"7. Send: /settoken <cookie_value>\n\n"+
				"This enables API-based delivery checking.", status))
		return
	}

	if !strings.Contains(args, "deviceId") && !strings.Contains(args, "V=") {
		b.reply(chatID,
			"This doesn't look like valid SHEIN cookies.\n"+
				"Please copy the entire Cookie header value from your browser.")
		return
	}

	if err := b.Users.SetCredentials(ctx, chatID, args); err != nil {
		b.reply(chatID, "Failed to save cookies. Please try again.")
		return
	}
	b.reply(chatID,
		"Auth cookies saved!\n\n"+
			"API-based delivery checking is now enabled.\n"+
			"Use /check to test it.")
}

func (b *Bot) cmdLogin(ctx context.Context, chatID int64, args string) {
	if args == "" {
		b.reply(chatID,
			"SHEIN OTP Login\n\n"+
				"Usage: /login <phone_number>\n"+
				"Example: /login 9876543210\n\n"+
				"This will send an OTP to your phone. Then use /otp <code> to complete login.")
		return
	}

	phone := strings.Fields(args)[0]
	if !allDigits(phone) || len(phone) < 10 {
		b.reply(chatID, "Please enter a valid 10-digit phone number.")
		return
	}

	b.reply(chatID, fmt.Sprintf("Requesting OTP for %s...", phone))
	if err := b.Users.StartLogin(ctx, chatID, phone); err != nil {
		b.reply(chatID, "Failed to request OTP: "+truncate(err.Error(), 100))
		return
	}
	b.reply(chatID, fmt.Sprintf(
		"OTP sent to %s!\n\n"+
			"Enter the OTP code using:\n"+
			"/otp <code>\n\n"+
			"Example: /otp 123456", phone))
}

func (b *Bot) cmdOTP(ctx context.Context, chatID int64, args string) {
	if args == "" {
		b.reply(chatID,
			"OTP Verification\n\n"+
				"Usage: /otp <code>\n"+
				"Example: /otp 123456\n\n"+
				"First start login with /login <phone_number>")
		return
	}

	code := strings.Fields(args)[0]
	if !allDigits(code) || len(code) < 4 {
		b.reply(chatID, "Please enter a valid OTP code (4-6 digits).")
		return
	}

	b.reply(chatID, "Verifying OTP...")
	err := b.Users.CompleteLogin(ctx, chatID, code)
	switch {
	case errors.Is(err, services.ErrNoPendingLogin):
		b.reply(chatID, "No pending login. Please start with /login <phone_number> first.")
	case err != nil:
		b.reply(chatID, "OTP verification failed: "+truncate(err.Error(), 100)+"\n\nTry again with /login <phone>")
	default:
		b.reply(chatID, "Login successful!\n\nYour SHEIN session is saved.")
	}
}

func (b *Bot) cmdCheck(ctx context.Context, chatID int64) {
	urls, err := b.Users.ListURLs(ctx, chatID)
	if err != nil {
		b.reply(chatID, "Could not load your configuration. Please try again.")
		return
	}
	if len(urls) == 0 {
		b.reply(chatID,
			"No URL configured!\n\n"+
				"Use /seturl to set your SHEIN filtered URL first.")
		return
	}

	pincodes, _ := b.Users.ListPincodes(ctx, chatID)
	pincodesStr := "None"
	if len(pincodes) > 0 {
		pincodesStr = strings.Join(pincodes, ", ")
	}

	b.reply(chatID, fmt.Sprintf(
		"Starting check...\n\n"+
			"URL: %d URL(s) configured\n"+
			"Pincodes: %s\n\n"+
			"This may take a few minutes...",
		len(urls), pincodesStr))

	// Off the update loop so other commands stay responsive. The session
	// flag inside the check service rejects a concurrent second run.
	go b.RunCheck(ctx, chatID, false)
}

func (b *Bot) cmdResend(ctx context.Context, chatID int64) {
	sent, err := b.Notifier.ResendPending(ctx, chatID)
	if err != nil {
		b.reply(chatID, "Failed to resend notifications. Please try again.")
		return
	}
	if sent == 0 {
		b.reply(chatID, "No pending notifications to send.")
		return
	}
	b.reply(chatID, fmt.Sprintf("Sent %d notifications!", sent))
}

func (b *Bot) cmdClearSeen(ctx context.Context, chatID int64) {
	n, err := b.Users.ClearSeen(ctx, chatID)
	if err != nil {
		b.reply(chatID, "Failed to clear seen products. Please try again.")
		return
	}
	b.reply(chatID, fmt.Sprintf(
		"Cleared %d seen products.\n\n"+
			"Next check will treat all products as new!", n))
}

// splitTokens splits command arguments on whitespace and commas.
func splitTokens(args string) []string {
	return strings.FieldsFunc(args, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == ','
	})
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// formatInterval renders a duration for user-facing text, preferring whole
// minutes ("30 minutes") over Go's default formatting.
func formatInterval(d time.Duration) string {
	if d >= time.Minute && d%time.Minute == 0 {
		m := int(d / time.Minute)
		if m == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", m)
	}
	return d.String()
}
