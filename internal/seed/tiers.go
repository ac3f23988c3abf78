// Package seed loads the built-in tier catalogue and generates demo data for
// development databases.
package seed

import (
	"context"
	_ "embed"
	"fmt"

	"rockae/internal/models"
	"rockae/internal/service"

	"gopkg.in/yaml.v3"
)

//go:embed tiers.yml
var tiersYAML []byte

type tierCatalogue struct {
	Tiers []models.AppSubscriptionTier `yaml:"tiers"`
}

// BuiltInTiers parses the embedded tier catalogue.
func BuiltInTiers() ([]models.AppSubscriptionTier, error) {
	return parseTiers(tiersYAML)
}

func parseTiers(data []byte) ([]models.AppSubscriptionTier, error) {
	var cat tierCatalogue
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parse tier catalogue: %w", err)
	}
	seen := make(map[models.TierName]bool, len(cat.Tiers))
	for _, t := range cat.Tiers {
		if !t.TierName.Valid() {
			return nil, fmt.Errorf("tier catalogue: unknown tier %q", t.TierName)
		}
		if seen[t.TierName] {
			return nil, fmt.Errorf("tier catalogue: %q listed twice", t.TierName)
		}
		seen[t.TierName] = true
	}
	return cat.Tiers, nil
}

// Tiers upserts every built-in tier by name. Running it again refreshes
// limits and prices without creating duplicates.
func Tiers(ctx context.Context, billing *service.BillingService) error {
	tiers, err := BuiltInTiers()
	if err != nil {
		return err
	}
	for i := range tiers {
		if err := billing.UpsertTier(ctx, &tiers[i]); err != nil {
			return fmt.Errorf("seed tier %s: %w", tiers[i].TierName, err)
		}
	}
	return nil
}
