package bot

import (
	"context"
	"log"
	"time"

	"signalgate/internal/caching"
	"signalgate/internal/services"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// sender is the slice of tgbotapi.BotAPI the handlers need; tests swap in a
// fake.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot is the Telegram front end: command dispatch for subscribers plus the
// outbound Notifier used by the webhook handler and the expiry sweep.
type Bot struct {
	api    *tgbotapi.BotAPI
	sender sender

	accessSvc   services.AccessService
	paymentSvc  services.PaymentService
	paystackSvc services.PaystackService
	bannerSvc   services.BannerService
	cache       caching.CacheService

	adminChatID   int64
	priceSubunits int64
	currency      string
	priceDisplay  string
	publicBaseURL string
}

type Options struct {
	AdminChatID   int64
	PriceSubunits int64
	Currency      string
	PriceDisplay  string
	PublicBaseURL string
}

func New(
	api *tgbotapi.BotAPI,
	accessSvc services.AccessService,
	paymentSvc services.PaymentService,
	paystackSvc services.PaystackService,
	bannerSvc services.BannerService,
	cache caching.CacheService,
	opts Options,
) *Bot {
	return &Bot{
		api:           api,
		sender:        api,
		accessSvc:     accessSvc,
		paymentSvc:    paymentSvc,
		paystackSvc:   paystackSvc,
		bannerSvc:     bannerSvc,
		cache:         cache,
		adminChatID:   opts.AdminChatID,
		priceSubunits: opts.PriceSubunits,
		currency:      opts.Currency,
		priceDisplay:  opts.PriceDisplay,
		publicBaseURL: opts.PublicBaseURL,
	}
}

// Run long-polls for updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	log.Printf("Telegram bot polling as @%s", b.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			b.handleCommand(ctx, update.Message)
		}
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.handleStart(ctx, msg)
	case "pay":
		b.handlePay(ctx, msg)
	case "status":
		b.handleStatus(ctx, msg)
	case "revoke":
		b.handleRevoke(ctx, msg)
	case "list":
		b.handleList(ctx, msg)
	}
}

func (b *Bot) isAdmin(msg *tgbotapi.Message) bool {
	return msg.From != nil && b.adminChatID != 0 && msg.From.ID == b.adminChatID
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.sender.Send(c); err != nil {
		log.Printf("WARN: telegram send failed: %v", err)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

// PaymentConfirmed implements services.Notifier.
func (b *Bot) PaymentConfirmed(_ context.Context, subscriberID int64, deepLink string) error {
	if _, err := b.sender.Send(tgbotapi.NewMessage(subscriberID, "✅ Payment confirmed — connecting you now...")); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(subscriberID, "Tap to open your signal bot:")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("🔓 Open signal bot", deepLink),
		),
	)
	_, err := b.sender.Send(msg)
	return err
}

// RenewalPrompt implements services.Notifier.
func (b *Bot) RenewalPrompt(_ context.Context, subscriberID int64) error {
	msg := tgbotapi.NewMessage(subscriberID, "⏳ Your access has ended. Tap to renew.")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("🔁 Renew "+b.priceDisplay, b.publicBaseURL+"/renew"),
		),
	)
	_, err := b.sender.Send(msg)
	return err
}

// AdminAlert implements services.Notifier.
func (b *Bot) AdminAlert(_ context.Context, text string) error {
	if b.adminChatID == 0 {
		return nil
	}
	_, err := b.sender.Send(tgbotapi.NewMessage(b.adminChatID, text))
	return err
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
