package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vctt94/uno-go/pkg/client"
	"github.com/vctt94/uno-go/pkg/ui"
	"github.com/vctt94/uno-go/pkg/uno"
)

// clientVersion is compared against the server's advertised minimum.
const clientVersion = "3.0.0"

func main() {
	var (
		serverURL string
		name      string
		fresh     bool
	)
	flag.StringVar(&serverURL, "server", "http://127.0.0.1:9999", "Game server base URL")
	flag.StringVar(&name, "name", "", "Nickname (defaults to the cached one)")
	flag.BoolVar(&fresh, "fresh", false, "Ignore any cached game and start over")
	flag.Parse()

	ctx := context.Background()
	c := client.NewClient(client.Config{ServerURL: serverURL})

	ok, minVersion, err := c.CheckVersion(ctx, clientVersion)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot reach server %s: %v\n", serverURL, err)
		os.Exit(1)
	}
	if !ok {
		fmt.Fprintf(os.Stderr, "client version %s is below the server minimum %s, please upgrade\n",
			clientVersion, minVersion)
		os.Exit(1)
	}

	if name == "" {
		name = client.CachedUsername()
	}

	resumeUID := ""
	if !fresh {
		if uid := client.CachedUID(); uid != "" {
			// Only resume a game that still exists and has not ended.
			snap, err := c.Status(ctx, uid)
			if err == nil && snap.GameStatus != uno.StatusFinished {
				resumeUID = uid
			} else {
				client.ClearUID()
			}
		}
	}

	model := ui.NewModel(ctx, c, ui.ModelConfig{
		Username:  name,
		ResumeUID: resumeUID,
	})
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "ui error: %v\n", err)
		os.Exit(1)
	}
}
