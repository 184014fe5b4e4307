package modules

import (
	"errors"
	"testing"
	"time"

	"github.com/davidemms/widgethub/internal/domain/module"
	"github.com/davidemms/widgethub/internal/domain/user"
)

func TestCanCreateModule(t *testing.T) {
	tests := []struct {
		name    string
		tier    string
		count   int
		wantErr bool
	}{
		{"free under limit", user.TierFree, 4, false},
		{"free at limit", user.TierFree, 5, true},
		{"free over limit", user.TierFree, 12, true},
		{"premium ignores limit", user.TierPremium, 50, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanCreateModule(tt.tier, tt.count)

			if (err != nil) != tt.wantErr {
				t.Fatalf("got err=%v, wantErr=%v", err, tt.wantErr)
			}

			if err != nil {
				var quota *QuotaError

				if !errors.As(err, &quota) {
					t.Fatalf("expected QuotaError, got %T", err)
				}

				if quota.Limit != FreeModuleLimit {
					t.Fatalf("got limit=%d", quota.Limit)
				}
			}
		})
	}
}

func TestItemLimit(t *testing.T) {
	tests := []struct {
		typ  module.Type
		tier string
		want int
	}{
		{module.TypeNotes, user.TierFree, 10},
		{module.TypeNotes, user.TierPremium, 50},
		{module.TypeTodo, user.TierFree, 20},
		{module.TypeTodo, user.TierPremium, 100},
		{module.TypeLinks, user.TierFree, 20},
		{module.TypeLinks, user.TierPremium, 100},
		{module.TypeWeather, user.TierFree, 0},
		{module.TypeCountdown, user.TierPremium, 0},
	}

	for _, tt := range tests {
		got := ItemLimit(tt.typ, tt.tier)

		if got != tt.want {
			t.Errorf("ItemLimit(%s, %s) = %d, want %d", tt.typ, tt.tier, got, tt.want)
		}
	}
}

func TestRefreshInterval(t *testing.T) {
	if got := RefreshInterval(user.TierFree); got != 60*time.Minute {
		t.Fatalf("free interval = %v", got)
	}

	if got := RefreshInterval(user.TierPremium); got != 15*time.Minute {
		t.Fatalf("premium interval = %v", got)
	}
}

func TestQuotaErrorMessage(t *testing.T) {
	free := &QuotaError{Resource: "modules", Limit: 5, Tier: user.TierFree}

	if free.Error() != "Free tier is limited to 5 modules. Upgrade to premium for more." {
		t.Fatalf("unexpected message: %q", free.Error())
	}

	premium := &QuotaError{Resource: "todos", Limit: 100, Tier: user.TierPremium}

	if premium.Error() != "Limit of 100 todos reached." {
		t.Fatalf("unexpected message: %q", premium.Error())
	}
}
