package connection

import (
	"fmt"
	"sync/atomic"

	"market-pipeline/src/models"
)

// -----------------------------------------------------------------------------
// Subscription binds a symbol set on one logical stream to a delivery
// handler. Many subscriptions share one connection (one per logical client).
// -----------------------------------------------------------------------------

// Handler receives canonical records tagged with the subscription that
// matched them. Records are shared instances: handlers must treat them as
// read-only.
type Handler func(subscriptionID string, rec models.MCanonicalRecord)

type Subscription struct {
	ID       string
	ClientID string
	Stream   string
	Symbols  map[string]struct{}
	Handler  Handler
}

// -----------------------------------------------------------------------------

var subCounter atomic.Uint64

func newSubscriptionID() string {
	return fmt.Sprintf("sub-%d", subCounter.Add(1))
}

// -----------------------------------------------------------------------------

// Matches reports whether a record belongs to this subscription's symbol set.
func (s *Subscription) Matches(symbol string) bool {
	_, ok := s.Symbols[symbol]
	return ok
}

// -----------------------------------------------------------------------------

// SymbolList returns the symbol set as a slice for subscribe replay.
func (s *Subscription) SymbolList() []string {
	out := make([]string, 0, len(s.Symbols))
	for sym := range s.Symbols {
		out = append(out, sym)
	}
	return out
}
