package models

import (
	"strings"

	"github.com/mmdatafocus/insights_backend/utils"
)

type Category string

const (
	CategoryCoffee    Category = "coffee"
	CategoryMilkshake Category = "milkshake"
	CategoryBeverage  Category = "beverage"
	CategorySweet     Category = "sweet"
	CategorySavory    Category = "savory"
	CategoryOther     Category = "other"
)

// IsBeverage covers coffee, milkshake and the generic beverage bucket.
func (c Category) IsBeverage() bool {
	return c == CategoryCoffee || c == CategoryMilkshake || c == CategoryBeverage
}

// CategoryRule maps an item-name keyword to a category. Rules are evaluated
// in order and the first match wins, so more specific keywords must come
// before generic ones (e.g. "MILKSHAKE" before "SHAKE", coffee terms before
// the catch-all beverage terms).
type CategoryRule struct {
	Keyword  string
	Category Category
}

// DefaultCategoryRules is the ordered keyword taxonomy. Keywords are matched
// as substrings of the normalized (upper-cased) item name.
var DefaultCategoryRules = []CategoryRule{
	{"COFFEE", CategoryCoffee},
	{"ESPRESSO", CategoryCoffee},
	{"LATTE", CategoryCoffee},
	{"CAPPUCCINO", CategoryCoffee},
	{"MACCHIATO", CategoryCoffee},
	{"MACHIATO", CategoryCoffee}, // common misspelling in the source exports
	{"AMERICANO", CategoryCoffee},
	{"MOCHA", CategoryCoffee},
	{"MILKSHAKE", CategoryMilkshake},
	{"SHAKE", CategoryMilkshake},
	{"FRAPPE", CategoryMilkshake},
	{"TEA", CategoryBeverage},
	{"JUICE", CategoryBeverage},
	{"SMOOTHIE", CategoryBeverage},
	{"LEMONADE", CategoryBeverage},
	{"SODA", CategoryBeverage},
	{"CONUT", CategorySweet},
	{"CHIMNEY", CategorySweet},
	{"WAFFLE", CategorySweet},
	{"BROWNIE", CategorySweet},
	{"CHEESECAKE", CategorySweet},
	{"ICE CREAM", CategorySweet},
	{"COOKIE", CategorySweet},
	{"CROISSANT", CategorySweet},
	{"SANDWICH", CategorySavory},
	{"WRAP", CategorySavory},
	{"TOAST", CategorySavory},
	{"BAGEL", CategorySavory},
	{"HOT DOG", CategorySavory},
	{"PANINI", CategorySavory},
	{"SAVORY", CategorySavory},
}

// Categorize resolves an item name to exactly one category via the ordered
// rule list. Unmatched items fall into CategoryOther.
func Categorize(item string) Category {
	return CategorizeWith(DefaultCategoryRules, item)
}

func CategorizeWith(rules []CategoryRule, item string) Category {
	normalized := utils.NormalizeItemName(item)
	for _, rule := range rules {
		if strings.Contains(normalized, rule.Keyword) {
			return rule.Category
		}
	}
	return CategoryOther
}

// ParseCategory validates a user-supplied category filter value.
func ParseCategory(value string) (Category, bool) {
	switch Category(strings.ToLower(strings.TrimSpace(value))) {
	case CategoryCoffee:
		return CategoryCoffee, true
	case CategoryMilkshake:
		return CategoryMilkshake, true
	case CategoryBeverage:
		return CategoryBeverage, true
	case CategorySweet:
		return CategorySweet, true
	case CategorySavory:
		return CategorySavory, true
	case CategoryOther:
		return CategoryOther, true
	}
	return "", false
}

// Modifiers and service lines that must never appear in a combo. These are
// pruned before basket mining.
var trivialExactItems = map[string]bool{
	"DELIVERY CHARGE": true,
	"FULL FAT MILK":   true,
	"PRESSED":         true,
	"REGULAR":         true,
	"HOT":             true,
	"ICED":            true,
	"WATER":           true,
	"ADD ICE CREAM":   true,
}

var trivialKeywords = []string{
	"SAUCE",
	"SPREAD",
	"TOPPING",
	"DRESSING",
	"WHIPPED CREAM",
	"NO ",
	"CHARGE",
	"(R)",
	" ON THE SIDE",
	"DISCOUNT",
	"SERVICE",
	"PACKAGING",
	"VAT",
	"TIP",
}

// IsTrivialItem reports whether an item is a modifier/add-on/service line
// rather than a real menu item.
func IsTrivialItem(item string) bool {
	normalized := utils.NormalizeItemName(item)
	if trivialExactItems[normalized] {
		return true
	}
	for _, keyword := range trivialKeywords {
		if strings.Contains(normalized, keyword) {
			return true
		}
	}
	return false
}
