package cli

import (
	"context"
	"fmt"
)

// runWatch держит websocket-подключение к change feed сервера и
// применяет события к локальному представлению до отмены контекста
func (c *Cli) runWatch(ctx context.Context) error {
	if c.listener == nil {
		return fmt.Errorf("feed listener is not configured")
	}

	c.io.Println("Watching server change feed. Press Ctrl+C to stop.")
	c.io.Println()

	c.listener.Run(ctx)

	c.io.Println()
	c.io.Println("Stopped watching.")
	return nil
}
