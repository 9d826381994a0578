package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-raas/internal/subscriber"
)

// Preferences answers whether a user accepts a class of email.
type Preferences interface {
	Wants(ctx context.Context, userID uuid.UUID, k subscriber.Kind) bool
}

// Notifier renders and sends the delivered and payment emails, honouring
// user preferences.
type Notifier struct {
	mailer   Mailer
	prefs    Preferences
	appURL   string
	currency string
	logger   *zap.SugaredLogger
}

// NewNotifier builds a notifier. prefs may be nil, in which case every email is sent.
func NewNotifier(mailer Mailer, prefs Preferences, appURL, currency string, logger *zap.SugaredLogger) *Notifier {
	return &Notifier{
		mailer:   mailer,
		prefs:    prefs,
		appURL:   strings.TrimRight(appURL, "/"),
		currency: strings.ToUpper(currency),
		logger:   logger,
	}
}

func (n *Notifier) wants(ctx context.Context, userID uuid.UUID, k subscriber.Kind) bool {
	if n.prefs == nil {
		return true
	}
	if !n.prefs.Wants(ctx, userID, k) {
		n.logger.Debugw("email suppressed by preferences", "user_id", userID, "kind", k)
		return false
	}
	return true
}

// OutcomeDelivered tells the owner their outcome is ready for review.
func (n *Notifier) OutcomeDelivered(ctx context.Context, userID uuid.UUID, to, title string, outcomeID uuid.UUID) error {
	if !n.wants(ctx, userID, subscriber.KindDelivery) {
		return nil
	}
	html, err := render(deliveredTmpl, map[string]string{
		"Title":        title,
		"DashboardURL": n.appURL + "/dashboard/" + outcomeID.String(),
	})
	if err != nil {
		return fmt.Errorf("render delivered email: %w", err)
	}
	return n.mailer.Send(ctx, Message{To: to, Subject: "Outcome Delivered – " + title, HTML: html})
}

// PaymentConfirmed thanks the owner for a completed payment.
func (n *Notifier) PaymentConfirmed(ctx context.Context, userID uuid.UUID, to, title string, amountCents int64) error {
	if !n.wants(ctx, userID, subscriber.KindPayment) {
		return nil
	}
	html, err := render(paymentTmpl, map[string]string{
		"Title":    title,
		"Amount":   strconv.FormatFloat(float64(amountCents)/100, 'f', 2, 64),
		"Currency": n.currency,
	})
	if err != nil {
		return fmt.Errorf("render payment email: %w", err)
	}
	return n.mailer.Send(ctx, Message{To: to, Subject: "Payment Confirmed – " + title, HTML: html})
}
