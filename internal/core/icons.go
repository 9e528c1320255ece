package core

import "strings"

// categoryIcons maps the category labels the mobile client uses to display
// icons. Unknown categories fall back to a generic money icon.
var categoryIcons = map[string]string{
	"Gaji":         "💼",
	"Freelance":    "💻",
	"Investasi":    "📈",
	"Bonus":        "🎁",
	"Makanan":      "🍔",
	"Transportasi": "🚗",
	"Belanja":      "🛒",
	"Hiburan":      "🎬",
	"Kesehatan":    "🏥",
	"Pendidikan":   "📚",
	"Tagihan":      "📄",
	"Lainnya":      "📦",
}

// accountIcons maps account types to display icons. Unknown types render
// with the generic card icon.
var accountIcons = map[string]string{
	"cash":       "💵",
	"bank":       "🏦",
	"ewallet":    "📱",
	"e-wallet":   "📱",
	"credit":     "💳",
	"saving":     "💰",
	"investment": "📈",
}

// CategoryIcon returns the display icon for a category label.
func CategoryIcon(category string) string {
	if icon, ok := categoryIcons[category]; ok {
		return icon
	}
	return "💰"
}

// AccountIcon returns the display icon for an account type. Matching is
// case-insensitive.
func AccountIcon(accountType string) string {
	if icon, ok := accountIcons[strings.ToLower(accountType)]; ok {
		return icon
	}
	return "💳"
}
