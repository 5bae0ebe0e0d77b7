package cli

import (
	"context"
	"fmt"
)

func (c *Cli) runDelete(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("missing arguments. Usage: contentsync delete <collection> <id>")
	}
	collection, id := args[0], args[1]

	if err := c.controller.Delete(ctx, collection, id); err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}

	if c.monitor.Offline() {
		c.io.Println("✓ Delete queued (offline). It will sync when connection returns.")
	} else {
		c.io.Println("✓ Record deleted.")
	}

	return nil
}
