package domain

import "strings"

// Card is a collectible card identity.
type Card struct {
	ID     int    `json:"id,omitempty"`
	Name   string `json:"name"`
	Rarity string `json:"rarity,omitempty"` // "Common", "Rare", "Epic", "Legendary"
}

// Rarities in ascending order.
var Rarities = []string{"Common", "Rare", "Epic", "Legendary"}

// NormalizeRarity returns the canonical spelling of r, or "Common" when unknown.
func NormalizeRarity(r string) string {
	for _, known := range Rarities {
		if strings.EqualFold(known, r) {
			return known
		}
	}
	return "Common"
}

// CollectedCard is a card in a user's collection.
type CollectedCard struct {
	ID     string `json:"_id,omitempty"`
	CardID int    `json:"cardId,omitempty"`
	Name   string `json:"name"`
	Rarity string `json:"rarity,omitempty"`
	Source string `json:"source,omitempty"` // "order" for strain cards
	Image  string `json:"image,omitempty"`
}

// IsStrainCard reports whether the card was granted by an order.
func (c CollectedCard) IsStrainCard() bool {
	return c.Source == "order"
}
