package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/vctt94/uno-go/pkg/uno"
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true).MarginLeft(2)
	focusedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	blurredStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Margin(1, 0)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("140")).MarginTop(1)
	winnerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Bold(true).Margin(1, 2)

	turnBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(lipgloss.Color("46")).
			Padding(0, 1)

	seatBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)

	redCardStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("255")).
			Foreground(lipgloss.Color("196")).
			Padding(0, 1).
			Margin(0, 1).
			Border(lipgloss.RoundedBorder())

	yellowCardStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("255")).
			Foreground(lipgloss.Color("178")).
			Padding(0, 1).
			Margin(0, 1).
			Border(lipgloss.RoundedBorder())

	greenCardStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("255")).
			Foreground(lipgloss.Color("28")).
			Padding(0, 1).
			Margin(0, 1).
			Border(lipgloss.RoundedBorder())

	blueCardStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("255")).
			Foreground(lipgloss.Color("27")).
			Padding(0, 1).
			Margin(0, 1).
			Border(lipgloss.RoundedBorder())

	wildCardStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("255")).
			Foreground(lipgloss.Color("129")).
			Padding(0, 1).
			Margin(0, 1).
			Border(lipgloss.RoundedBorder())

	markerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Padding(0, 1).
			Margin(0, 1)
)

// cardStyleFor picks the render style from the card's color letter.
func cardStyleFor(card uno.Card) lipgloss.Style {
	if card == uno.SkipMarker || card == uno.TimeoutMarker {
		return markerStyle
	}
	if card.IsWild() {
		return wildCardStyle
	}
	switch card.Color() {
	case uno.Red:
		return redCardStyle
	case uno.Yellow:
		return yellowCardStyle
	case uno.Green:
		return greenCardStyle
	case uno.Blue:
		return blueCardStyle
	}
	return markerStyle
}
