package domain

import (
	"fmt"
	"strings"
)

// OutcomeKind classifies what a spin or box-open awarded.
type OutcomeKind string

const (
	OutcomeCoins      OutcomeKind = "coins"
	OutcomeCard       OutcomeKind = "card"
	OutcomeMysteryBox OutcomeKind = "mysteryBox"
	OutcomeSpinTicket OutcomeKind = "spinTicket"
	OutcomeNothing    OutcomeKind = "nothing"
)

// RewardOutcome is the server-decided result of one commit request.
// It is consumed once to drive a reveal and never cached.
type RewardOutcome struct {
	Kind  OutcomeKind `json:"kind"`
	Label string      `json:"label"`
	Coins int         `json:"coins,omitempty"`
	Card  *Card       `json:"card,omitempty"`
	// Tickets is the number of boxes or spin tickets awarded.
	Tickets int `json:"tickets,omitempty"`
	// NewBalance is the authoritative coin balance after the action.
	NewBalance int `json:"new_balance"`
	// Boxes and SpinTickets are the authoritative inventory after the action.
	Boxes       int `json:"boxes"`
	SpinTickets int `json:"spin_tickets"`
}

// Summary is the one-line text of a reveal.
func (o RewardOutcome) Summary() string {
	switch o.Kind {
	case OutcomeCard:
		if o.Card != nil && o.Card.Rarity != "" {
			return fmt.Sprintf("You pulled %s (%s)! Balance: %d coins", o.Label, NormalizeRarity(o.Card.Rarity), o.NewBalance)
		}
		return fmt.Sprintf("You pulled %s! Balance: %d coins", o.Label, o.NewBalance)
	case OutcomeNothing:
		if o.Label == "" {
			return fmt.Sprintf("No prize this time. Balance: %d coins", o.NewBalance)
		}
	}
	return fmt.Sprintf("You won %s! Balance: %d coins", o.Label, o.NewBalance)
}

// SpinPrize is one entry of the server's spin reward table.
type SpinPrize struct {
	Label string `json:"label"`
	Type  string `json:"type"` // "coins", "mystery_box", "extra_spin", "nothing"
	Value int    `json:"value"`
}

// SpinResult is the response of POST /api/spin.
type SpinResult struct {
	Success      bool       `json:"success"`
	Outcome      string     `json:"outcome"`
	Prize        *SpinPrize `json:"prize,omitempty"`
	MysteryBoxes int        `json:"mysteryBoxes"`
	TotalCoins   int        `json:"totalCoins"`
	SpinTickets  int        `json:"spinTickets"`
	Error        string     `json:"error,omitempty"`
}

// RewardOutcome converts the wire result into the outcome a reveal shows.
func (r *SpinResult) RewardOutcome() RewardOutcome {
	out := RewardOutcome{
		Kind:        OutcomeNothing,
		Label:       r.Outcome,
		NewBalance:  r.TotalCoins,
		Boxes:       r.MysteryBoxes,
		SpinTickets: r.SpinTickets,
	}
	if r.Prize == nil {
		return out
	}
	if out.Label == "" {
		out.Label = r.Prize.Label
	}
	switch strings.ToLower(r.Prize.Type) {
	case "coins":
		out.Kind = OutcomeCoins
		out.Coins = r.Prize.Value
	case "mystery_box", "mysterybox":
		out.Kind = OutcomeMysteryBox
		out.Tickets = r.Prize.Value
	case "extra_spin", "spin_ticket":
		out.Kind = OutcomeSpinTicket
		out.Tickets = r.Prize.Value
	}
	return out
}

// BoxResult is the response of POST /api/box/open.
type BoxResult struct {
	Success        bool   `json:"success"`
	Card           *Card  `json:"card,omitempty"`
	RewardCoins    int    `json:"rewardCoins"`
	BoxesLeft      int    `json:"boxesLeft"`
	RemainingCoins int    `json:"remainingCoins"`
	Error          string `json:"error,omitempty"`
}

// RewardOutcome converts the wire result into the outcome a reveal shows.
func (r *BoxResult) RewardOutcome() RewardOutcome {
	out := RewardOutcome{
		Kind:       OutcomeNothing,
		Coins:      r.RewardCoins,
		NewBalance: r.RemainingCoins,
		Boxes:      r.BoxesLeft,
	}
	if r.Card != nil {
		c := *r.Card
		out.Kind = OutcomeCard
		out.Card = &c
		out.Label = c.Name
	}
	return out
}
