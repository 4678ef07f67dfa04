package unit

import "strings"

// Unit is a purchase unit with its fixed conversion to grams.
type Unit struct {
	Name  string
	Grams float64
}

func (u Unit) Code() string {
	return u.Name
}

func (u Unit) Label() string {
	switch u.Name {
	case "kg":
		return "Kilograms"
	case "gr":
		return "Grams"
	case "lb":
		return "Pounds"
	}
	return u.Name
}

// ToGrams converts qty expressed in u to grams.
func (u Unit) ToGrams(qty float64) float64 {
	return qty * u.Grams
}

type Enum struct {
	Kilogram Unit
	Gram     Unit
	Pound    Unit
}

var Units = Enum{
	Kilogram: Unit{Name: "kg", Grams: 1000},
	Gram:     Unit{Name: "gr", Grams: 1},
	Pound:    Unit{Name: "lb", Grams: 453.592},
}

var All = []Unit{
	Units.Kilogram,
	Units.Gram,
	Units.Pound,
}

// ByName returns the unit for a given name, or nil if not found
func ByName(name string) *Unit {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, u := range All {
		if u.Name == name {
			return &u
		}
	}
	return nil
}

// Names lists the accepted unit codes, for validation messages.
func Names() []string {
	names := make([]string, 0, len(All))
	for _, u := range All {
		names = append(names, u.Name)
	}
	return names
}
