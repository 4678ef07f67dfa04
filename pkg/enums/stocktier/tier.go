package stocktier

import "strings"

type Tier struct {
	Name string
	// Severity orders tiers for display, higher is worse.
	Severity int
}

func (t Tier) Code() string {
	return t.Name
}

func (t Tier) Label() string {
	if len(t.Name) == 0 {
		return ""
	}
	return strings.ToUpper(t.Name[:1]) + strings.ToLower(t.Name[1:])
}

// NeedsRestock is true for every tier below normal.
func (t Tier) NeedsRestock() bool {
	return t.Severity > 0
}

type Enum struct {
	Normal   Tier
	Low      Tier
	Critical Tier
}

var Tiers = Enum{
	Normal:   Tier{Name: "NORMAL", Severity: 0},
	Low:      Tier{Name: "LOW", Severity: 1},
	Critical: Tier{Name: "CRITICAL", Severity: 2},
}

var All = []Tier{
	Tiers.Critical,
	Tiers.Low,
	Tiers.Normal,
}

// ByName returns the tier for a given name, or nil if not found
func ByName(name string) *Tier {
	name = strings.ToUpper(strings.TrimSpace(name))
	for _, t := range All {
		if t.Name == name {
			return &t
		}
	}
	return nil
}
