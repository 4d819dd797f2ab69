package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vctt94/uno-go/pkg/client"
	"github.com/vctt94/uno-go/pkg/server"
	"github.com/vctt94/uno-go/pkg/uno"
)

type menuOption string

const (
	optionCreateRoom menuOption = "Create Room"
	optionJoinRoom   menuOption = "Join Room"
	optionQuit       menuOption = "Quit"
)

// screenState represents the current screen in the UI
type screenState int

const (
	stateMainMenu screenState = iota
	stateCreateRoom
	stateJoinRoom
	stateEnterName
	stateWaiting
	stateGame
	stateChooseColor
	stateFinished
)

// Model contains all the state for our UI
type Model struct {
	ctx    context.Context
	client *client.Client

	state        screenState
	menuOptions  []menuOption
	selectedItem int

	// Form inputs
	countInput string
	roomInput  string
	nameInput  string
	cardInput  string

	// Identity and room bindings
	username string
	roomID   string
	uid      string

	// Wild played, waiting for a color pick
	pendingWild string
	colorChoice int

	snap    *server.GameSnapshot
	message string
	err     error
}

// ModelConfig seeds the model with cached identity state so an
// interrupted session can drop straight back into its game.
type ModelConfig struct {
	Username  string
	ResumeUID string
}

// NewModel creates a new UI model
func NewModel(ctx context.Context, c *client.Client, cfg ModelConfig) Model {
	m := Model{
		ctx:    ctx,
		client: c,
		state:  stateMainMenu,
		menuOptions: []menuOption{
			optionCreateRoom,
			optionJoinRoom,
			optionQuit,
		},
		countInput: "2",
		username:   cfg.Username,
		nameInput:  cfg.Username,
	}
	if cfg.ResumeUID != "" {
		m.uid = cfg.ResumeUID
		m.state = stateWaiting
		m.message = "Resuming previous game..."
	}
	return m
}

func (m Model) Init() tea.Cmd {
	if m.uid != "" {
		return tea.Batch(statusCmd(m.ctx, m.client, m.uid), pollTickCmd())
	}
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case roomCreatedMsg:
		m.roomID = string(msg)
		m.message = fmt.Sprintf("Room %s created, joining...", m.roomID)
		if m.username == "" {
			m.state = stateEnterName
			return m, nil
		}
		return m, joinRoomCmd(m.ctx, m.client, m.roomID, m.username)

	case joinedMsg:
		m.uid = string(msg)
		m.state = stateWaiting
		m.message = "Waiting for other players..."
		if err := client.SaveUID(m.uid); err != nil {
			m.message = fmt.Sprintf("Joined, but could not cache identity: %v", err)
		}
		return m, tea.Batch(statusCmd(m.ctx, m.client, m.uid), pollTickCmd())

	case playAcceptedMsg:
		m.message = ""
		return m, statusCmd(m.ctx, m.client, m.uid)

	case statusMsg:
		return m.handleStatus(msg)

	case tickMsg:
		if m.uid == "" || m.state == stateFinished {
			return m, nil
		}
		return m, tea.Batch(statusCmd(m.ctx, m.client, m.uid), pollTickCmd())

	case rejectedMsg:
		reason := string(msg)
		if m.state == stateWaiting && (reason == "Invalid uid" || reason == "Room not found") {
			// The resumed game is gone; fall back to the menu.
			client.ClearUID()
			m.uid = ""
			m.state = stateMainMenu
			m.message = "Previous game no longer exists"
			return m, nil
		}
		m.message = reason
		return m, nil

	case errorMsg:
		m.err = msg
		return m, nil
	}

	return m, nil
}

func (m Model) handleStatus(snap *server.GameSnapshot) (tea.Model, tea.Cmd) {
	// Idle renders are skipped; the revision only moves on real changes.
	if m.snap != nil && m.snap.Revision == snap.Revision && m.snap.GameStatus == snap.GameStatus {
		return m, nil
	}
	m.snap = snap
	m.err = nil

	switch snap.GameStatus {
	case uno.StatusPlaying:
		if m.state != stateChooseColor {
			m.state = stateGame
		}
	case uno.StatusFinished:
		m.state = stateFinished
		client.ClearUID()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.state {
	case stateMainMenu:
		switch key {
		case "q":
			return m, tea.Quit
		case "up", "k":
			if m.selectedItem > 0 {
				m.selectedItem--
			}
		case "down", "j":
			if m.selectedItem < len(m.menuOptions)-1 {
				m.selectedItem++
			}
		case "enter":
			switch m.menuOptions[m.selectedItem] {
			case optionCreateRoom:
				m.state = stateCreateRoom
				m.message = ""
			case optionJoinRoom:
				m.state = stateJoinRoom
				m.message = ""
			case optionQuit:
				return m, tea.Quit
			}
		}

	case stateCreateRoom:
		switch key {
		case "esc":
			m.state = stateMainMenu
		case "enter":
			count, err := strconv.Atoi(m.countInput)
			if err != nil || count < server.MinPlayers || count > server.MaxPlayers {
				m.message = fmt.Sprintf("Player count must be %d-%d", server.MinPlayers, server.MaxPlayers)
				return m, nil
			}
			return m, createRoomCmd(m.ctx, m.client, count)
		case "backspace":
			m.countInput = trimLast(m.countInput)
		default:
			if len(key) == 1 && key >= "0" && key <= "9" && len(m.countInput) < 2 {
				m.countInput += key
			}
		}

	case stateJoinRoom:
		switch key {
		case "esc":
			m.state = stateMainMenu
		case "enter":
			if m.roomInput == "" {
				return m, nil
			}
			m.roomID = m.roomInput
			if m.username == "" {
				m.state = stateEnterName
				return m, nil
			}
			return m, joinRoomCmd(m.ctx, m.client, m.roomID, m.username)
		case "backspace":
			m.roomInput = trimLast(m.roomInput)
		default:
			if len(key) == 1 && key >= "0" && key <= "9" {
				m.roomInput += key
			}
		}

	case stateEnterName:
		switch key {
		case "esc":
			m.state = stateMainMenu
		case "enter":
			name := strings.TrimSpace(m.nameInput)
			if name == "" {
				return m, nil
			}
			m.username = name
			if err := client.SaveUsername(name); err == nil {
				m.message = ""
			}
			return m, joinRoomCmd(m.ctx, m.client, m.roomID, m.username)
		case "backspace":
			m.nameInput = trimLast(m.nameInput)
		default:
			if len(key) == 1 {
				m.nameInput += key
			}
		}

	case stateGame:
		switch key {
		case "enter":
			card := strings.ToUpper(strings.TrimSpace(m.cardInput))
			m.cardInput = ""
			if card == "" {
				return m, nil
			}
			if card == string(uno.WildCard) || card == string(uno.WildDrawFour) {
				m.pendingWild = card
				m.colorChoice = 0
				m.state = stateChooseColor
				return m, nil
			}
			return m, playCmd(m.ctx, m.client, m.uid, card, "")
		case "backspace":
			m.cardInput = trimLast(m.cardInput)
		default:
			if len(key) == 1 && len(m.cardInput) < 3 {
				m.cardInput += key
			}
		}

	case stateChooseColor:
		switch key {
		case "esc":
			m.pendingWild = ""
			m.state = stateGame
		case "left", "h":
			if m.colorChoice > 0 {
				m.colorChoice--
			}
		case "right", "l":
			if m.colorChoice < len(uno.Colors)-1 {
				m.colorChoice++
			}
		case "enter":
			card, color := m.pendingWild, string(uno.Colors[m.colorChoice])
			m.pendingWild = ""
			m.state = stateGame
			return m, playCmd(m.ctx, m.client, m.uid, card, color)
		}

	case stateFinished:
		if key == "enter" || key == "q" {
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("UNO") + "\n\n")

	switch m.state {
	case stateMainMenu:
		for i, opt := range m.menuOptions {
			cursor, style := "  ", blurredStyle
			if i == m.selectedItem {
				cursor, style = "> ", focusedStyle
			}
			b.WriteString(cursor + style.Render(string(opt)) + "\n")
		}
		b.WriteString(helpStyle.Render("up/down to move, enter to select, q to quit"))

	case stateCreateRoom:
		b.WriteString(fmt.Sprintf("Number of players (%d-%d): %s\n",
			server.MinPlayers, server.MaxPlayers, focusedStyle.Render(m.countInput+"_")))
		b.WriteString(helpStyle.Render("enter to create, esc to go back"))

	case stateJoinRoom:
		b.WriteString("Room ID: " + focusedStyle.Render(m.roomInput+"_") + "\n")
		b.WriteString(helpStyle.Render("enter to continue, esc to go back"))

	case stateEnterName:
		b.WriteString("Your nickname: " + focusedStyle.Render(m.nameInput+"_") + "\n")
		b.WriteString(helpStyle.Render("enter to join, esc to go back"))

	case stateWaiting:
		b.WriteString(m.renderWaiting())

	case stateGame, stateChooseColor:
		b.WriteString(m.renderGame())
		if m.state == stateChooseColor {
			b.WriteString("\nPick a color for the wild: ")
			for i, color := range uno.Colors {
				style := blurredStyle
				if i == m.colorChoice {
					style = focusedStyle
				}
				b.WriteString(style.Render("["+string(color)+"] "))
			}
			b.WriteString("\n" + helpStyle.Render("left/right to choose, enter to play, esc to cancel"))
		}

	case stateFinished:
		if m.snap != nil && m.snap.Winner != "" {
			b.WriteString(winnerStyle.Render(fmt.Sprintf("Game over, winner: %s", m.snap.Winner)) + "\n")
		} else {
			b.WriteString(winnerStyle.Render("Game over") + "\n")
		}
		b.WriteString(helpStyle.Render("enter to exit"))
	}

	if m.message != "" {
		b.WriteString("\n" + infoStyle.Render(m.message))
	}
	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}
	return b.String() + "\n"
}

func (m Model) renderWaiting() string {
	var b strings.Builder
	if m.roomID != "" {
		b.WriteString(fmt.Sprintf("Room ID: %s\n", m.roomID))
	}
	if m.snap == nil {
		b.WriteString("Waiting for the server...\n")
		return b.String()
	}
	b.WriteString(fmt.Sprintf("Seats filled: %d/%d\n", len(m.snap.Players), m.snap.Count))
	for _, name := range m.snap.Players {
		b.WriteString("  " + name + "\n")
	}
	b.WriteString(helpStyle.Render("The game starts when the room is full"))
	return b.String()
}

func (m Model) renderGame() string {
	snap := m.snap
	if snap == nil {
		return "Loading...\n"
	}
	var b strings.Builder

	// Seats, with markers for the seat on turn and for us.
	var seats []string
	for i, name := range snap.Players {
		label := fmt.Sprintf("%s (%d)", name, snap.HandCount[i])
		if i == snap.MyIdx {
			label = "* " + label
		}
		box := seatBoxStyle
		if i == snap.CurrentIdx {
			box = turnBoxStyle
		}
		seats = append(seats, box.Render(label))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, seats...) + "\n\n")

	top := string(snap.Top)
	if snap.Top.IsWild() && snap.ChosenColor != uno.NoColor {
		top += " -> " + string(snap.ChosenColor)
	}
	b.WriteString("Top card: " + cardStyleFor(snap.Top).Render(top) + "\n")

	if n := len(snap.TableHistory); n > 1 {
		start := n - 6
		if start < 0 {
			start = 0
		}
		b.WriteString("Recent: ")
		for _, card := range snap.TableHistory[start:] {
			b.WriteString(markerStyle.Render(string(card)))
		}
		b.WriteString("\n")
	}

	b.WriteString("\nYour hand:\n")
	var cards []string
	for _, card := range snap.Hand {
		cards = append(cards, cardStyleFor(card).Render(string(card)))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cards...) + "\n\n")

	if snap.CurrentIdx == snap.MyIdx {
		b.WriteString(focusedStyle.Render("Your turn!") + "\n")
		b.WriteString("Card to play (or SK to pass): " + focusedStyle.Render(strings.ToUpper(m.cardInput)+"_") + "\n")
	} else {
		b.WriteString(fmt.Sprintf("Waiting for %s...\n", snap.Players[snap.CurrentIdx]))
	}
	return b.String()
}

func trimLast(s string) string {
	if s == "" {
		return s
	}
	return s[:len(s)-1]
}
