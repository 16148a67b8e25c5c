package runner

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the runner TUI against the given client and blocks until the
// user quits. The notification socket feeds escalation notices into the
// program; a failed dial degrades to countdown-only mode.
func Run(ctx context.Context, client *Client) error {
	p := tea.NewProgram(newModel(client), tea.WithAltScreen())

	wsCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if notices, err := client.Listen(wsCtx); err == nil {
		go func() {
			for n := range notices {
				p.Send(noticeMsg(n))
			}
		}()
	}

	_, err := p.Run()
	return err
}
