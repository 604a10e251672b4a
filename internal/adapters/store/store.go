package store

import "github.com/animeempire/support-bot/internal/core"

// Store bundles the persistence contracts every backend provides.
type Store interface {
	core.Ledger
	core.EscalationQueue
	core.Reporter
	core.SummaryLog
	Close() error
}
