package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/gjson"
)

// A CardIndex answers name lookups against an extracted card collection: a
// JSON array of objects with at least a "name" field.
type CardIndex struct {
	cards gjson.Result
}

// LoadCards reads a card collection file.
func LoadCards(path string) (*CardIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%s: not valid JSON", path)
	}

	parsed := gjson.ParseBytes(data)
	if !parsed.IsArray() {
		return nil, fmt.Errorf("%s: expected a JSON array of cards", path)
	}

	return &CardIndex{cards: parsed}, nil
}

// Len returns the number of cards in the collection.
func (index *CardIndex) Len() int {
	return len(index.cards.Array())
}

// Lookup finds a card by name, case-insensitively. An exact match wins over
// a prefix match.
func (index *CardIndex) Lookup(name string) (gjson.Result, bool) {
	var exact, prefix gjson.Result
	var foundExact, foundPrefix bool

	index.cards.ForEach(func(_, card gjson.Result) bool {
		cardName := card.Get("name").String()

		if strings.EqualFold(cardName, name) {
			exact, foundExact = card, true
			return false
		}
		if !foundPrefix && len(cardName) >= len(name) && strings.EqualFold(cardName[:len(name)], name) {
			prefix, foundPrefix = card, true
		}

		return true
	})

	if foundExact {
		return exact, true
	}
	return prefix, foundPrefix
}

// Describe renders a card as a one-line chat reply.
func Describe(card gjson.Result) string {
	var b strings.Builder

	b.WriteString(card.Get("name").String())

	details := make([]string, 0, 2)
	if cost := card.Get("cost"); cost.Exists() {
		details = append(details, fmt.Sprintf("%d mana", cost.Int()))
	}
	if cardType := card.Get("type"); cardType.Exists() {
		details = append(details, strings.ToLower(cardType.String()))
	}
	if attack, health := card.Get("attack"), card.Get("health"); attack.Exists() && health.Exists() {
		details = append(details, fmt.Sprintf("%d/%d", attack.Int(), health.Int()))
	}
	if len(details) > 0 {
		b.WriteString(" (" + strings.Join(details, ", ") + ")")
	}

	if text := card.Get("text").String(); text != "" {
		b.WriteString(": " + text)
	}

	return b.String()
}
