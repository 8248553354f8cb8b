package payment

import (
	"errors"
	"fmt"
	"time"

	"github.com/Alias1177/Baccarat/models"
)

// ErrPremiumRequired is returned when a premium strategy is picked without a subscription
var ErrPremiumRequired = errors.New("strategy requires an active subscription")

// Gate decides which strategies a user may run
type Gate struct {
	Premium map[string]bool
	Subs    models.SubscriptionSource
	Stripe  *StripeService

	now func() time.Time
}

// NewGate marks the given strategies as premium
func NewGate(premium []string, subs models.SubscriptionSource, stripeService *StripeService) *Gate {
	g := &Gate{
		Premium: make(map[string]bool, len(premium)),
		Subs:    subs,
		Stripe:  stripeService,
		now:     time.Now,
	}
	for _, name := range premium {
		g.Premium[name] = true
	}
	return g
}

type anonymous struct{}

func (anonymous) GetSubscription(int64) (*models.UserSubscription, error) { return nil, nil }

// NewAnonymousGate gates a surface without user accounts. Premium
// strategies stay locked there for as long as checkout is enabled.
func NewAnonymousGate(premium []string, stripeService *StripeService) *Gate {
	return NewGate(premium, anonymous{}, stripeService)
}

// IsPremium reports whether a strategy is behind the paywall
func (g *Gate) IsPremium(strategy string) bool {
	return g.Premium[strategy]
}

// Allow returns nil when the user may run the strategy. Without a
// configured checkout there is nothing to pay for, so everything is allowed.
func (g *Gate) Allow(userID int64, strategy string) error {
	if !g.Premium[strategy] || !g.Stripe.Enabled() || g.Subs == nil {
		return nil
	}

	sub, err := g.Subs.GetSubscription(userID)
	if err != nil {
		return fmt.Errorf("checking subscription for %d: %w", userID, err)
	}
	if !sub.Active(g.now()) {
		return ErrPremiumRequired
	}
	return nil
}
