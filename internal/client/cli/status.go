package cli

import (
	"context"
	"time"

	"github.com/godivatech/contentsync/internal/models"
)

func (c *Cli) runStatus(ctx context.Context) error {
	c.io.Println("=== Sync Status ===")
	c.io.Println()

	status := c.monitor.Status()
	c.io.Printf("Network: %s\n", status)

	pending := c.syncService.PendingCount()
	if pending > 0 {
		c.io.Printf("⚠️  Pending sync: %d operation(s) waiting to be replayed\n", pending)
		if status == models.StatusOnline {
			c.io.Println("Run 'contentsync drain' to replay them now.")
		}
	} else {
		c.io.Println("✓ All changes synchronized with server")
	}

	lastDrain, err := c.syncService.LastDrainAt(ctx)
	if err != nil {
		// Не прерываем выполнение, просто предупреждаем
		c.io.Printf("\nWarning: failed to read last drain time: %v\n", err)
		return nil
	}

	if lastDrain.IsZero() {
		c.io.Println("Last queue drain: never")
	} else {
		c.io.Printf("Last queue drain: %s (%s ago)\n",
			lastDrain.Format(time.RFC3339),
			time.Since(lastDrain).Round(time.Second))
	}

	return nil
}
