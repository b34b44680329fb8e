package domain

import "strings"

// Categories is the set suggested to the extraction model. It is not a
// closed set: the store accepts any label, unknown ones just fall back to
// the default icon.
var Categories = []string{
	"Food",
	"Transportation",
	"Entertainment",
	"Income",
	"Utilities",
	"Rent",
	"Bills",
	"Shopping",
}

// DefaultCategoryIcon is used for categories outside the known set.
const DefaultCategoryIcon = "circle-dollar-sign"

var categoryIcons = map[string]string{
	"food":           "utensils-crossed",
	"transportation": "car",
	"entertainment":  "ticket",
	"income":         "landmark",
	"utilities":      "lightbulb",
	"rent":           "home",
	"bills":          "receipt",
	"shopping":       "shopping-bag",
}

// CategoryIcon returns the icon name for a category label,
// case-insensitively, falling back to DefaultCategoryIcon.
func CategoryIcon(category string) string {
	if icon, ok := categoryIcons[strings.ToLower(strings.TrimSpace(category))]; ok {
		return icon
	}
	return DefaultCategoryIcon
}
