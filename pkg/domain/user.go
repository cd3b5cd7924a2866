package domain

// User is the account summary returned by GET /api/user.
type User struct {
	Email       string `json:"email"`
	Name        string `json:"name,omitempty"`
	Coins       int    `json:"coins"`
	Boxes       int    `json:"boxes"`
	BoxesOwned  int    `json:"boxesOwned,omitempty"`
	SpinTickets int    `json:"spinTickets"`
}

// BoxCount returns the number of unopened boxes, accepting either field name.
func (u User) BoxCount() int {
	if u.Boxes > 0 {
		return u.Boxes
	}
	return u.BoxesOwned
}

// Reward is an item in the redeemable rewards catalog.
type Reward struct {
	ID          string `json:"_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	PriceCoins  int    `json:"priceCoins"`
	Stock       int    `json:"stock"` // -1 means unlimited
	Type        string `json:"type"`  // "coupon", "mysteryBox", "spinTicket", "item"
	Status      string `json:"status,omitempty"`
	Featured    bool   `json:"featured,omitempty"`
}

// Available reports whether the reward is active and in stock.
func (r Reward) Available() bool {
	if r.Status != "" && r.Status != "active" {
		return false
	}
	return r.Stock == -1 || r.Stock > 0
}

// RedeemResult is the response of POST /api/rewards/redeem.
type RedeemResult struct {
	Success bool    `json:"success"`
	Message string  `json:"message,omitempty"`
	Error   string  `json:"error,omitempty"`
	Reward  *Reward `json:"reward,omitempty"`
	User    *User   `json:"user,omitempty"`
}
