package cli

import (
	"context"
	"fmt"
)

func (c *Cli) runCreate(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("missing arguments. Usage: contentsync create <collection> <json>")
	}
	collection := args[0]

	payload, err := parsePayload(args[1])
	if err != nil {
		return err
	}

	rec, err := c.controller.Create(ctx, collection, payload)
	if err != nil {
		return fmt.Errorf("failed to create record: %w", err)
	}

	if rec.PendingSync {
		c.io.Println("✓ Record queued (offline). It will sync when connection returns.")
	} else {
		c.io.Println("✓ Record created.")
	}
	c.io.Println()
	c.printRecord(rec)

	return nil
}
