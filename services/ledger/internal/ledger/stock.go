package ledger

import "github.com/appetiteclub/controlrest/pkg/enums/stocktier"

// Classify maps an ingredient to its stock tier. The critical threshold is
// checked first, so a critical ingredient is never reported as low.
func Classify(ing Ingredient) stocktier.Tier {
	switch {
	case ing.CurrentQty <= ing.CriticalQty:
		return stocktier.Tiers.Critical
	case ing.CurrentQty <= ing.MinQty:
		return stocktier.Tiers.Low
	default:
		return stocktier.Tiers.Normal
	}
}
