package cli

import (
	"context"
	"fmt"

	"github.com/godivatech/contentsync/internal/models"
)

func (c *Cli) runDrain(ctx context.Context) error {
	c.io.Println("=== Offline Queue ===")
	c.io.Println()

	pending := c.syncService.PendingCount()
	if pending == 0 {
		c.io.Println("Queue is empty, nothing to replay.")
		return nil
	}

	if c.monitor.Status() != models.StatusOnline {
		return fmt.Errorf("cannot drain queue while %s", c.monitor.Status())
	}

	c.io.Printf("Replaying %d pending operation(s)...\n", pending)
	c.io.Println()

	result := c.syncService.Drain(ctx)

	c.io.Printf("Replayed:  %d operation(s)\n", len(result.Processed))
	if len(result.Failed) > 0 {
		c.io.Printf("Dropped:   %d operation(s) after exhausting retries\n", len(result.Failed))
		for _, opID := range result.Failed {
			c.io.Printf("   lost: %s\n", opID)
		}
	}
	if remaining := c.syncService.PendingCount(); remaining > 0 {
		c.io.Printf("Remaining: %d operation(s) still queued\n", remaining)
	}

	return nil
}
