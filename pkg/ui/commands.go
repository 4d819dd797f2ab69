package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vctt94/uno-go/pkg/client"
	"github.com/vctt94/uno-go/pkg/server"
)

// Message types flowing back from the server into Update.
type statusMsg *server.GameSnapshot
type roomCreatedMsg string
type joinedMsg string
type playAcceptedMsg struct{}
type rejectedMsg string
type errorMsg error
type tickMsg struct{}

// pollInterval paces the status loop. The snapshot carries a revision
// counter so redraws only happen when something changed.
const pollInterval = 500 * time.Millisecond

func createRoomCmd(ctx context.Context, c *client.Client, count int) tea.Cmd {
	return func() tea.Msg {
		id, err := c.CreateRoom(ctx, count)
		if err != nil {
			if reason := client.Rejected(err); reason != "" {
				return rejectedMsg(reason)
			}
			return errorMsg(err)
		}
		return roomCreatedMsg(id)
	}
}

func joinRoomCmd(ctx context.Context, c *client.Client, roomID, username string) tea.Cmd {
	return func() tea.Msg {
		uid, err := c.JoinRoom(ctx, roomID, username)
		if err != nil {
			if reason := client.Rejected(err); reason != "" {
				return rejectedMsg(reason)
			}
			return errorMsg(err)
		}
		return joinedMsg(uid)
	}
}

func playCmd(ctx context.Context, c *client.Client, uid, card, color string) tea.Cmd {
	return func() tea.Msg {
		if err := c.Play(ctx, uid, card, color); err != nil {
			if reason := client.Rejected(err); reason != "" {
				return rejectedMsg(reason)
			}
			return errorMsg(err)
		}
		return playAcceptedMsg{}
	}
}

func statusCmd(ctx context.Context, c *client.Client, uid string) tea.Cmd {
	return func() tea.Msg {
		snap, err := c.Status(ctx, uid)
		if err != nil {
			if reason := client.Rejected(err); reason != "" {
				return rejectedMsg(reason)
			}
			return errorMsg(err)
		}
		return statusMsg(snap)
	}
}

func pollTickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}
