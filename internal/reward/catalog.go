package reward

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/cannabuben/cannabuben/pkg/domain"
)

// CardBack is the placeholder shown for cards without art.
const CardBack = "card-back.png"

// knownCardArt is the number of card fronts shipped with the client.
const knownCardArt = 33

// Catalog maps card identities to art assets.
type Catalog struct {
	byID   map[int]string
	byName map[string]string
}

// DefaultCatalog returns the shipped card-front-N.png art for ids 1..33.
func DefaultCatalog() *Catalog {
	byID := make(map[int]string, knownCardArt)
	for i := 1; i <= knownCardArt; i++ {
		byID[i] = fmt.Sprintf("card-front-%d.png", i)
	}
	return NewCatalog(byID, nil)
}

// NewCatalog builds a catalog from id and name lookups. Names match case-insensitively.
func NewCatalog(byID map[int]string, byName map[string]string) *Catalog {
	c := &Catalog{byID: make(map[int]string, len(byID)), byName: make(map[string]string, len(byName))}
	for id, asset := range byID {
		c.byID[id] = asset
	}
	for name, asset := range byName {
		c.byName[strings.ToLower(strings.TrimSpace(name))] = asset
	}
	return c
}

// Image returns the art for card, falling back to CardBack for nil or unknown cards.
func (c *Catalog) Image(card *domain.Card) string {
	if c == nil || card == nil {
		return CardBack
	}
	if asset, ok := c.byID[card.ID]; ok && card.ID > 0 {
		return asset
	}
	if asset, ok := c.byName[strings.ToLower(strings.TrimSpace(card.Name))]; ok {
		return asset
	}
	return CardBack
}

// ImageForCollected prefers the server-supplied image of a collected card.
func (c *Catalog) ImageForCollected(cc domain.CollectedCard) string {
	if cc.Image != "" {
		return cc.Image
	}
	return c.Image(&domain.Card{ID: cc.CardID, Name: cc.Name})
}

// AssetURL joins an asset name onto base. Absolute asset URLs are returned unchanged.
func AssetURL(base, asset string) string {
	if u, err := url.Parse(asset); err == nil && u.IsAbs() {
		return asset
	}
	if base == "" {
		return asset
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(asset, "/")
}
