package bot

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"signalgate/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const payRateLimit = 3 // initializations per subscriber per minute

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	// A deep-link payload is the verification token minted when the payment
	// was recorded.
	if token := strings.TrimSpace(msg.CommandArguments()); token != "" {
		if record, err := b.paymentSvc.VerifyToken(ctx, token); err == nil && !record.Revoked() && record.Expiry.After(nowUTC()) {
			b.reply(chatID, "✅ Payment verified — welcome to the signals!")
			return
		}
	}

	active, err := b.accessSvc.IsActive(ctx, chatID, nowUTC())
	if err != nil {
		log.Printf("ERROR: access check for %d: %v", chatID, err)
		b.reply(chatID, "Something went wrong. Try again later.")
		return
	}

	if active {
		b.reply(chatID, "✅ Welcome back. You have access to the signals.")
		return
	}

	pitch := fmt.Sprintf("✨ *WELCOME TO PRO Signals* ✨\nWin Smarter\n\nTo access premium signals, pay %s. Use /pay to subscribe.", b.priceDisplay)

	if banner, err := b.bannerSvc.Fetch(ctx); err == nil {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "banner.png", Bytes: banner})
		photo.Caption = pitch
		photo.ParseMode = tgbotapi.ModeMarkdown
		b.send(photo)
		return
	}

	text := tgbotapi.NewMessage(chatID, pitch)
	text.ParseMode = tgbotapi.ModeMarkdown
	b.send(text)
}

func (b *Bot) handlePay(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	limited, err := b.cache.IsRateLimited(ctx, fmt.Sprintf("pay:%d", chatID), payRateLimit, time.Minute)
	if err != nil {
		log.Printf("WARN: rate limit check for %d: %v", chatID, err)
	} else if limited {
		b.reply(chatID, "Too many payment attempts. Wait a minute and try again.")
		return
	}

	checkoutURL, err := b.paystackSvc.InitializeTransaction(ctx, chatID, b.priceSubunits, b.currency)
	if err != nil {
		log.Printf("ERROR: initialize transaction for %d: %v", chatID, err)
		b.reply(chatID, "Failed to create payment. Try again later.")
		return
	}

	pay := tgbotapi.NewMessage(chatID, "Click to pay:")
	pay.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("💳 Pay "+b.priceDisplay, checkoutURL),
		),
	)
	b.send(pay)
}

func (b *Bot) handleStatus(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	status, err := b.accessSvc.Status(ctx, chatID, nowUTC())
	if err != nil {
		log.Printf("ERROR: status for %d: %v", chatID, err)
		b.reply(chatID, "Something went wrong. Try again later.")
		return
	}
	b.reply(chatID, formatStatus(status.Active, status.Paid, status.Expiry))
}

func (b *Bot) handleRevoke(ctx context.Context, msg *tgbotapi.Message) {
	if !b.isAdmin(msg) {
		return
	}

	arg := strings.TrimSpace(msg.CommandArguments())
	if arg == "" {
		b.reply(b.adminChatID, "Usage: /revoke <subscriber_id>")
		return
	}
	subscriberID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		b.reply(b.adminChatID, "Usage: /revoke <subscriber_id>")
		return
	}

	if err := b.paymentSvc.Revoke(ctx, subscriberID); err != nil {
		log.Printf("ERROR: revoke %d: %v", subscriberID, err)
		b.reply(b.adminChatID, fmt.Sprintf("Failed to revoke %d", subscriberID))
		return
	}
	b.reply(b.adminChatID, fmt.Sprintf("Revoked %d", subscriberID))
}

func (b *Bot) handleList(ctx context.Context, msg *tgbotapi.Message) {
	if !b.isAdmin(msg) {
		return
	}

	payments, err := b.paymentSvc.ListRecent(ctx, 50)
	if err != nil {
		log.Printf("ERROR: list payments: %v", err)
		b.reply(b.adminChatID, "Failed to list payments")
		return
	}
	b.reply(b.adminChatID, formatPaymentList(payments))
}

func formatStatus(active, paid bool, expiry time.Time) string {
	switch {
	case active:
		return fmt.Sprintf("✅ Active — access until %s", expiry.UTC().Format(time.RFC1123))
	case paid:
		return "⏳ Your subscription has expired. Use /pay to renew."
	default:
		return "You have no subscription yet. Use /pay to subscribe."
	}
}

func formatPaymentList(payments []*models.PaymentRecord) string {
	if len(payments) == 0 {
		return "No paid users yet."
	}

	lines := make([]string, 0, len(payments))
	for _, p := range payments {
		subscriber := "unknown"
		if p.SubscriberID != nil {
			subscriber = strconv.FormatInt(*p.SubscriberID, 10)
		}
		lines = append(lines, fmt.Sprintf("%s | expires: %s | ref: %s",
			subscriber, p.Expiry.UTC().Format(time.RFC1123), p.Reference))
	}
	return strings.Join(lines, "\n")
}
