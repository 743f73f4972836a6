// Package bot implements the Telegram command surface: a long-polling
// update loop, per-command handlers, and the outbound Messenger used by the
// notifier. Every command validates the caller against the authorized-user
// allow-list before any side effect. The bot layer is a thin translation of
// commands to service calls; validation and persistence live in services.
package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/averma/versewatch/internal/domain"
	"github.com/averma/versewatch/internal/repo"
	"github.com/averma/versewatch/internal/services"
)

// API is the slice of the Telegram client the bot uses. *tgbotapi.BotAPI
// satisfies it; tests substitute a fake.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(cfg tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// UserOps is the preference-management contract the commands need.
// *services.UserService satisfies it.
type UserOps interface {
	AddURL(ctx context.Context, userID int64, raw string) error
	ListURLs(ctx context.Context, userID int64) ([]domain.MonitorURL, error)
	RemoveURL(ctx context.Context, userID int64, idx int) (string, error)
	AddPincodes(ctx context.Context, userID int64, tokens []string) (added, invalid []string, err error)
	RemovePincodes(ctx context.Context, userID int64, tokens []string) (removed, invalid []string, err error)
	ListPincodes(ctx context.Context, userID int64) ([]string, error)
	SetCredentials(ctx context.Context, userID int64, creds string) error
	StartLogin(ctx context.Context, userID int64, phone string) error
	CompleteLogin(ctx context.Context, userID int64, otp string) error
	ClearSeen(ctx context.Context, userID int64) (int64, error)
	Status(ctx context.Context, userID int64) (*repo.UserStats, error)
}

// Checker runs the per-user pipeline. *services.CheckService satisfies it.
type Checker interface {
	Run(ctx context.Context, userID int64, events chan<- domain.Event) (services.Summary, error)
}

// Notify is the notifier slice the bot drives. *services.Notifier satisfies it.
type Notify interface {
	Drain(ctx context.Context, events <-chan domain.Event)
	ResendPending(ctx context.Context, userID int64) (int, error)
}

// Bot wires the Telegram transport to the services.
type Bot struct {
	API        API
	Users      UserOps
	Checks     Checker
	Notifier   Notify
	Authorized map[int64]bool

	// CheckInterval is shown in status and welcome texts.
	CheckInterval time.Duration
	// NextRun reports the next scheduled sweep; nil when no scheduler runs.
	NextRun func() time.Time

	Log zerolog.Logger
}

// New builds a Bot for the given allow-list.
func New(api API, users UserOps, checks Checker, authorized []int64, checkInterval time.Duration, log zerolog.Logger) *Bot {
	allow := make(map[int64]bool, len(authorized))
	for _, id := range authorized {
		allow[id] = true
	}
	return &Bot{
		API:           api,
		Users:         users,
		Checks:        checks,
		Authorized:    allow,
		CheckInterval: checkInterval,
		Log:           log.With().Str("component", "bot").Logger(),
	}
}

// Run consumes updates until ctx is cancelled or the update channel closes.
func (b *Bot) Run(ctx context.Context) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := b.API.GetUpdatesChan(cfg)

	b.Log.Info().Int("authorized_users", len(b.Authorized)).Msg("bot started")
	for {
		select {
		case <-ctx.Done():
			b.API.StopReceivingUpdates()
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			b.HandleUpdate(ctx, upd)
		}
	}
}

// HandleUpdate routes one update. Exported for the update loop and tests.
func (b *Bot) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.CallbackQuery != nil {
		b.handleCallback(ctx, upd.CallbackQuery)
		return
	}
	if upd.Message == nil || !upd.Message.IsCommand() {
		return
	}

	chatID := upd.Message.Chat.ID
	cmd := strings.ToLower(upd.Message.Command())
	args := strings.TrimSpace(upd.Message.CommandArguments())

	if !b.Authorized[chatID] {
		// Only /start gets a rejection; everything else is ignored so the
		// bot does not advertise itself to strangers.
		if cmd == "start" {
			b.reply(chatID, "Sorry, you are not authorized to use this bot.")
		}
		return
	}

	switch cmd {
	case "start":
		b.cmdStart(chatID)
	case "help":
		b.cmdHelp(chatID)
	case "mystatus":
		b.cmdMyStatus(ctx, chatID)
	case "seturl":
		b.cmdSetURL(ctx, chatID, args)
	case "rmurl":
		b.cmdRemoveURL(ctx, chatID)
	case "setpin":
		b.cmdSetPin(ctx, chatID, args)
	case "rmpin":
		b.cmdRemovePin(ctx, chatID, args)
	case "listpin":
		b.cmdListPin(ctx, chatID)
	case "settoken":
		b.cmdSetToken(ctx, chatID, args)
	case "login":
		b.cmdLogin(ctx, chatID, args)
	case "otp":
		b.cmdOTP(ctx, chatID, args)
	case "check":
		b.cmdCheck(ctx, chatID)
	case "resend":
		b.cmdResend(ctx, chatID)
	case "clearseen":
		b.cmdClearSeen(ctx, chatID)
	}
}

// handleCallback processes inline-keyboard presses (URL removal).
func (b *Bot) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	if _, err := b.API.Request(tgbotapi.NewCallback(q.ID, "")); err != nil {
		b.Log.Warn().Err(err).Msg("answer callback")
	}
	if q.Message == nil {
		return
	}
	chatID := q.Message.Chat.ID

	if !b.Authorized[q.From.ID] {
		b.edit(chatID, q.Message.MessageID, "Not authorized.")
		return
	}

	switch {
	case q.Data == "rmurl_cancel":
		b.edit(chatID, q.Message.MessageID, "Cancelled.")
	case strings.HasPrefix(q.Data, "rmurl_"):
		idx, err := strconv.Atoi(strings.TrimPrefix(q.Data, "rmurl_"))
		if err != nil {
			b.edit(chatID, q.Message.MessageID, "Error removing URL.")
			return
		}
		removed, err := b.Users.RemoveURL(ctx, q.From.ID, idx)
		switch {
		case errors.Is(err, services.ErrURLNotFound):
			b.edit(chatID, q.Message.MessageID, "URL not found or already removed.")
		case err != nil:
			b.edit(chatID, q.Message.MessageID, "Error removing URL.")
		default:
			b.edit(chatID, q.Message.MessageID, "Removed URL:\n"+truncate(removed, 60))
		}
	}
}

// RunCheck executes one pipeline run for userID with live notifications.
// The notifier drains events concurrently so the first delivery message goes
// out before the run completes. Quiet runs (scheduled sweeps) suppress the
// no-matches summary and the busy reply.
func (b *Bot) RunCheck(ctx context.Context, userID int64, quiet bool) {
	events := make(chan domain.Event, 16)
	done := make(chan struct{})
	go func() {
		b.Notifier.Drain(ctx, events)
		close(done)
	}()

	sum, err := b.Checks.Run(ctx, userID, events)
	close(events)
	<-done

	switch {
	case errors.Is(err, services.ErrCheckInProgress):
		if !quiet {
			b.reply(userID, "A check is already in progress for you. Please wait...")
		}
	case err != nil:
		b.Log.Error().Err(err).Int64("user", userID).Msg("check run failed")
		if !quiet {
			b.reply(userID, "Error during check: "+truncate(err.Error(), 100))
		}
	case sum.NewDeliveries == 0 && !quiet:
		st, err := b.Users.Status(ctx, userID)
		if err != nil {
			b.reply(userID, "Check Complete\n\nNo new matches this time.")
			return
		}
		b.reply(userID, "Check Complete\n\n"+
			"Products seen: "+strconv.FormatInt(st.SeenCount, 10)+"\n"+
			"Deliveries found: "+strconv.FormatInt(st.DeliveryCount, 10)+"\n"+
			"No new matches this time.")
	}
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.API.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.Log.Warn().Err(err).Int64("chat", chatID).Msg("send reply")
	}
}

func (b *Bot) edit(chatID int64, messageID int, text string) {
	if _, err := b.API.Send(tgbotapi.NewEditMessageText(chatID, messageID, text)); err != nil {
		b.Log.Warn().Err(err).Int64("chat", chatID).Msg("edit message")
	}
}
