package constants

import "strings"

// Category is the coarse classification hint attached to an extracted line.
type Category string

const (
	Inventory Category = "inventory"
	Expense   Category = "expense"
	Service   Category = "service"
)

var allCategories = []Category{Inventory, Expense, Service}

func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

// Canonicalize maps free-form category hints onto the known set.
func Canonicalize(input string) (Category, bool) {
	if input == "" {
		return Expense, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	// synonyms map
	synonyms := map[string]Category{
		"goods":     Inventory,
		"stock":     Inventory,
		"varer":     Inventory,
		"lager":     Inventory,
		"hardware":  Inventory,
		"equipment": Inventory,
		"shipping":  Service,
		"freight":   Service,
		"frakt":     Service,
		"porto":     Service,
		"delivery":  Service,
		"labor":     Service,
		"labour":    Service,
	}

	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}

	for _, cat := range allCategories {
		if normalized == string(cat) {
			return cat, true
		}
	}

	return Expense, false
}

// DefaultUOM returns the unit-of-measure default driven by the category.
func DefaultUOM(cat Category) string {
	switch cat {
	case Service:
		return "hrs"
	case Inventory:
		return "pcs"
	default:
		return "ea"
	}
}
