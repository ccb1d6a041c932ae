package core

import (
	"fmt"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// DefaultLocale is used when no collation locale is configured.
const DefaultLocale = "en"

// Collation compares strings using locale-aware ordering rules.
// The underlying collator keeps scratch buffers, so calls are serialized.
type Collation struct {
	mu  sync.Mutex
	col *collate.Collator
	tag language.Tag
}

// NewCollation builds a Collation for a BCP 47 locale such as "en" or "sv-SE".
func NewCollation(locale string) (*Collation, error) {
	if locale == "" {
		locale = DefaultLocale
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("collation locale %q: %w", locale, err)
	}
	return &Collation{col: collate.New(tag), tag: tag}, nil
}

// MustCollation is NewCollation for locales known to be valid.
func MustCollation(locale string) *Collation {
	c, err := NewCollation(locale)
	if err != nil {
		panic(err)
	}
	return c
}

// Compare returns -1, 0 or +1.
func (c *Collation) Compare(a, b string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.col.CompareString(a, b)
}

// Locale returns the tag the collation was built for.
func (c *Collation) Locale() string {
	return c.tag.String()
}
