package cli

import (
	"context"
	"fmt"
)

func (c *Cli) runUpdate(ctx context.Context, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("missing arguments. Usage: contentsync update <collection> <id> <json>")
	}
	collection, id := args[0], args[1]

	patch, err := parsePayload(args[2])
	if err != nil {
		return err
	}

	rec, err := c.controller.Update(ctx, collection, id, patch)
	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}

	if rec.PendingSync {
		c.io.Println("✓ Update queued (offline). It will sync when connection returns.")
	} else {
		c.io.Println("✓ Record updated.")
	}
	c.io.Println()
	c.printRecord(rec)

	return nil
}
