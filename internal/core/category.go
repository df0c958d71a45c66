package core

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// Category is a spending category. The nine constants below form the closed
// set offered to the user and to the AI categorizer; any other non-empty
// label is a custom category.
type Category string

const (
	CategoryFood          Category = "Food & Dining"
	CategoryTransport     Category = "Transportation"
	CategoryHousing       Category = "Housing"
	CategoryUtilities     Category = "Utilities"
	CategoryEntertainment Category = "Entertainment"
	CategoryShopping      Category = "Shopping"
	CategoryHealth        Category = "Health & Wellness"
	CategoryTravel        Category = "Travel"
	CategoryOther         Category = "Other"
)

// MaxCustomCategoryLength bounds custom category labels.
const MaxCustomCategoryLength = 40

var (
	ErrEmptyCategory = errors.New("empty category")
	ErrLongCategory  = errors.New("category too long (max 40 characters)")
)

var knownCategories = []Category{
	CategoryFood,
	CategoryTransport,
	CategoryHousing,
	CategoryUtilities,
	CategoryEntertainment,
	CategoryShopping,
	CategoryHealth,
	CategoryTravel,
	CategoryOther,
}

// Categories returns the closed category set in display order.
func Categories() []Category {
	return append([]Category(nil), knownCategories...)
}

// CategoryNames returns the closed category set as plain strings.
func CategoryNames() []string {
	out := make([]string, len(knownCategories))
	for i, c := range knownCategories {
		out[i] = string(c)
	}
	return out
}

// LookupCategory matches s exactly against the closed set.
func LookupCategory(s string) (Category, bool) {
	for _, c := range knownCategories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// ParseCategory canonicalizes user input. Known names match
// case-insensitively; anything else becomes a custom category.
func ParseCategory(s string) (Category, error) {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return "", ErrEmptyCategory
	}
	for _, c := range knownCategories {
		if strings.EqualFold(string(c), s) {
			return c, nil
		}
	}
	if utf8.RuneCountInString(s) > MaxCustomCategoryLength {
		return "", ErrLongCategory
	}
	return Category(s), nil
}

// IsKnown reports whether c belongs to the closed set.
func (c Category) IsKnown() bool {
	_, ok := LookupCategory(string(c))
	return ok
}

// IsCustom reports whether c is a user-defined label outside the closed set.
func (c Category) IsCustom() bool {
	return c != "" && !c.IsKnown()
}

func (c Category) Validate() error {
	if strings.TrimSpace(string(c)) == "" {
		return ErrEmptyCategory
	}
	if !c.IsKnown() && utf8.RuneCountInString(string(c)) > MaxCustomCategoryLength {
		return ErrLongCategory
	}
	return nil
}

func (c Category) String() string {
	return string(c)
}
