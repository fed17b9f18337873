package cli

import (
	"context"
	"fmt"
)

// Run выполняет команду
func (c *Cli) Run(ctx context.Context, command string, args []string) error {
	switch command {
	case "cache":
		return c.runCache(ctx, args)
	case "session":
		return c.runSession(ctx, args)
	case "catalog":
		return c.runCatalog(ctx, args)
	default:
		PrintUsage(c.io)
		return fmt.Errorf("unknown command: %s", command)
	}
}
