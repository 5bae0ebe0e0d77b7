package cli

import (
	"context"
	"fmt"
)

func (c *Cli) runGet(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("missing arguments. Usage: contentsync get <collection> <id>")
	}
	collection, id := args[0], args[1]

	if !c.monitor.Offline() {
		if err := c.reconciler.Resync(ctx, collection); err != nil {
			c.io.Printf("Warning: resync failed, showing local view: %v\n", err)
		}
	}

	rec, ok := c.controller.View().Get(collection, id)
	if !ok {
		return fmt.Errorf("record %q not found in %q", id, collection)
	}

	c.printRecord(rec)
	return nil
}
