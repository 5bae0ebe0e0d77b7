package cli

import (
	"context"
	"fmt"
)

func (c *Cli) runList(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing collection. Usage: contentsync list <collection>")
	}
	collection := args[0]

	// Освежаем локальное представление с сервера, если сеть есть.
	// В offline показываем то, что накопилось локально.
	if !c.monitor.Offline() {
		if err := c.reconciler.Resync(ctx, collection); err != nil {
			c.io.Printf("Warning: resync failed, showing local view: %v\n", err)
		}
	}

	records := c.controller.View().Snapshot(collection)

	c.io.Printf("=== %s ===\n", collection)
	c.io.Println()

	if len(records) == 0 {
		c.io.Println("No records found.")
		return nil
	}

	c.io.Printf("Found %d record(s):\n", len(records))
	c.io.Println()

	for i, rec := range records {
		c.io.Printf("%d. ", i+1)
		c.printRecord(rec)
		c.io.Println()
	}

	return nil
}
