package modules

import (
	"fmt"
	"time"

	"github.com/davidemms/widgethub/internal/domain/module"
	"github.com/davidemms/widgethub/internal/domain/user"
)

const (
	// hard cap on widgets per free account; premium is unconstrained
	FreeModuleLimit = 5

	FreeNoteLimit    = 10
	PremiumNoteLimit = 50
	FreeTodoLimit    = 20
	PremiumTodoLimit = 100
	FreeLinkLimit    = 20
	PremiumLinkLimit = 100

	// advertised polling cadence; the server reports it but trusts
	// the client to honor it (known weakness, kept as designed)
	FreeRefreshInterval    = 60 * time.Minute
	PremiumRefreshInterval = 15 * time.Minute
)

// QuotaError is an expected branch, not an exception path. The
// message carries the numeric limit and tier so the client can frame
// it as an upgrade prompt.
type QuotaError struct {
	Resource string
	Limit    int
	Tier     string
}

func (e *QuotaError) Error() string {
	if e.Tier == user.TierPremium {
		return fmt.Sprintf("Limit of %d %s reached.", e.Limit, e.Resource)
	}
	return fmt.Sprintf("Free tier is limited to %d %s. Upgrade to premium for more.", e.Limit, e.Resource)
}

func CanCreateModule(tier string, currentCount int) error {
	if tier == user.TierPremium {
		return nil
	}

	if currentCount >= FreeModuleLimit {
		return &QuotaError{Resource: "modules", Limit: FreeModuleLimit, Tier: tier}
	}

	return nil
}

// ItemLimit returns the per-type collection cap, or 0 for types
// without an item collection.
func ItemLimit(typ module.Type, tier string) int {
	premium := tier == user.TierPremium

	switch typ {
	case module.TypeNotes:
		if premium {
			return PremiumNoteLimit
		}
		return FreeNoteLimit
	case module.TypeTodo:
		if premium {
			return PremiumTodoLimit
		}
		return FreeTodoLimit
	case module.TypeLinks:
		if premium {
			return PremiumLinkLimit
		}
		return FreeLinkLimit
	}

	return 0
}

func RefreshInterval(tier string) time.Duration {
	if tier == user.TierPremium {
		return PremiumRefreshInterval
	}
	return FreeRefreshInterval
}
