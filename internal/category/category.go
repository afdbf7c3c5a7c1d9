// Package category models the outcome of classifying a message.
//
// A Category is either one of the fixed, well-known categories or a custom
// label invented by the model. Routing code switches exhaustively on the
// fixed set and treats every custom value through a single default arm.
package category

import (
	"strings"
	"unicode"
)

// MaxCustomLen is the longest custom category accepted, in runes.
const MaxCustomLen = 29

// Fixed enumerates the well-known categories.
type Fixed int

const (
	// None marks a Category that holds a custom value.
	None Fixed = iota
	Personal
	Accounting
	Social
	Promotional
	Sales
	Recruitment
	Misc
	// Primary is only produced by operators or older directives; it routes like Personal.
	Primary
)

var fixedNames = map[Fixed]string{
	Personal:    "Personal",
	Accounting:  "Accounting",
	Social:      "Social",
	Promotional: "Promotional",
	Sales:       "Sales",
	Recruitment: "Recruitment",
	Misc:        "Misc",
	Primary:     "Primary",
}

// Standard lists the categories offered to the model, in prompt order.
var Standard = []Fixed{Personal, Accounting, Social, Promotional, Sales, Recruitment, Misc}

func (f Fixed) String() string {
	if name, ok := fixedNames[f]; ok {
		return name
	}
	return ""
}

// Category is the tagged union {Fixed, Custom}.
type Category struct {
	fixed  Fixed
	custom string
}

// Of wraps a fixed category.
func Of(f Fixed) Category {
	return Category{fixed: f}
}

// Custom builds a custom category. Invalid names collapse to Misc.
func Custom(name string) Category {
	return Parse(name)
}

// Default is the fail-open category.
func Default() Category {
	return Of(Misc)
}

// Fixed returns the fixed tag and true, or None and false for custom values.
func (c Category) Fixed() (Fixed, bool) {
	if c.fixed == None {
		return None, false
	}
	return c.fixed, true
}

// IsCustom reports whether the category was invented by the model.
func (c Category) IsCustom() bool {
	return c.fixed == None && c.custom != ""
}

// IsZero reports whether c is the zero value.
func (c Category) IsZero() bool {
	return c.fixed == None && c.custom == ""
}

// Name is the display name, used verbatim for label and folder names.
func (c Category) Name() string {
	if c.fixed != None {
		return c.fixed.String()
	}
	if c.custom == "" {
		return Misc.String()
	}
	return c.custom
}

// Key is the case-insensitive lookup key for label and folder directories.
func (c Category) Key() string {
	return strings.ToLower(c.Name())
}

func (c Category) String() string {
	return c.Name()
}

// Equal compares categories case-insensitively.
func (c Category) Equal(other Category) bool {
	return c.Key() == other.Key()
}

// Parse normalizes raw model output into a Category: quotes stripped,
// whitespace trimmed, title-cased. Empty or over-long output becomes Misc.
func Parse(raw string) Category {
	cleaned := strings.NewReplacer(`"`, "", "'", "").Replace(raw)
	cleaned = TitleCase(strings.TrimSpace(cleaned))
	n := len([]rune(cleaned))
	if n == 0 || n > MaxCustomLen {
		return Default()
	}
	for f, name := range fixedNames {
		if strings.EqualFold(name, cleaned) {
			return Of(f)
		}
	}
	return Category{custom: cleaned}
}

// TitleCase upper-cases the first letter of every word and lower-cases the
// rest. A word starts after any non-letter.
func TitleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		prevLetter = false
		b.WriteRune(r)
	}
	return b.String()
}
