package bot

import (
	"context"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/averma/versewatch/internal/domain"
	"github.com/averma/versewatch/internal/repo"
)

// pricePrinter formats prices with Indian digit grouping (1,29,999).
var pricePrinter = message.NewPrinter(language.MustParse("en-IN"))

// FormatPrice renders a product price for display; empty when unknown.
func FormatPrice(price float64) string {
	if price <= 0 {
		return ""
	}
	return pricePrinter.Sprintf("Rs. %v", number.Decimal(price, number.MaxFractionDigits(2)))
}

// NewProductMessage renders the instant notification for a first-time
// catalog hit.
func NewProductMessage(p domain.Product) string {
	var sb strings.Builder
	sb.WriteString("NEW PRODUCT FOUND!\n\n")
	if p.Name != "" {
		sb.WriteString(p.Name)
		sb.WriteString("\n")
	}
	if price := FormatPrice(p.Price); price != "" {
		sb.WriteString("PRICE: ")
		sb.WriteString(price)
		sb.WriteString("\n")
	}
	sb.WriteString("LINK: ")
	sb.WriteString(p.URL)
	sb.WriteString("\n\nChecking delivery availability...")
	return sb.String()
}

// DeliveryMessage renders the notification for a confirmed delivery.
func DeliveryMessage(productURL, pincode string) string {
	return "DELIVERY AVAILABLE!\n\nPINCODE: " + pincode + "\nLINK: " + productURL
}

// SendEvent implements services.Messenger for live pipeline events.
func (b *Bot) SendEvent(_ context.Context, ev domain.Event) error {
	var text string
	switch ev.Kind {
	case domain.EventNewProduct:
		text = NewProductMessage(ev.Product)
	case domain.EventDelivery:
		text = DeliveryMessage(ev.Product.URL, ev.Pincode)
	default:
		return nil
	}
	_, err := b.API.Send(tgbotapi.NewMessage(ev.UserID, text))
	return err
}

// SendDelivery implements services.Messenger for resent delivery records.
func (b *Bot) SendDelivery(_ context.Context, userID int64, d domain.Delivery) error {
	_, err := b.API.Send(tgbotapi.NewMessage(userID, DeliveryMessage(d.ProductURL, d.Pincode)))
	return err
}

func lastCheckText(st *repo.UserStats) string {
	if st == nil || st.LastCheckedAt == nil {
		return "Never"
	}
	return st.LastCheckedAt.UTC().Format(time.RFC3339)
}

// truncate shortens s to max runes with a trailing ellipsis.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}

// tail keeps the last max runes of s.
func tail(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[len(r)-max:])
}

// stripQuery drops the query string from a URL for compact button labels.
func stripQuery(u string) string {
	if i := strings.IndexByte(u, '?'); i >= 0 {
		return u[:i]
	}
	return u
}
