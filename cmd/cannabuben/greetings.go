package main

import (
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/charmbracelet/lipgloss"
)

var budtenderGreetings = [...]string{
	"The wheel is warm. Your seat at it is not.",
	"Thirty-three cards in the deck. You own none of them yet.",
	"Coins don't collect themselves. Well, they do. But only if you sign in.",
	"Your daily spin is getting lonely.",
	"A mystery box stays a mystery until someone opens it. Preferably you.",
	"Somewhere a Legendary card is waiting for a collector with better timing.",
	"The counter is open. You're standing in the doorway.",
	"Every regular was once just a name on a receipt.",
	"Rewards are redeemed by people who show up. You're halfway there.",
	"The budtender nods. Then points at the login.",
}

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#DBAF3E")).
			Bold(true)
	quoteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)
	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))
	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffffff")).
			Background(lipgloss.Color("#b45555")).
			Bold(true).
			Padding(0, 1)
)

// printGreeting is shown when a command needs a session and there is none.
func printGreeting(w io.Writer) {
	msg := budtenderGreetings[rand.IntN(len(budtenderGreetings))]
	fmt.Fprintf(w, "\n%s\n\n%s\n\n%s\n\n", //nolint:errcheck
		titleStyle.Render("C A N N A B U B E N"),
		quoteStyle.Render(msg),
		hintStyle.Render("To enter: cannabuben login"))
}

// printNotice shows the one-time ban notice.
func printNotice(w io.Writer, notice string) {
	fmt.Fprintf(w, "\n%s\n\n", noticeStyle.Render(notice)) //nolint:errcheck
}
