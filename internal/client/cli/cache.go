package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iudanet/repairdesk/internal/client/cache"
)

func (c *Cli) runCache(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing subcommand. Usage: cache put|get|delete <key>, cache list")
	}

	sub, rest := args[0], args[1:]
	if sub == "list" {
		return c.cacheList(ctx)
	}

	if len(rest) == 0 {
		return fmt.Errorf("missing key. Usage: cache %s <key>", sub)
	}
	key := rest[0]

	switch sub {
	case "put":
		return c.cachePut(ctx, key)
	case "get":
		return c.cacheGet(ctx, key)
	case "delete":
		return c.cacheDelete(ctx, key)
	default:
		return fmt.Errorf("unknown cache subcommand: %s", sub)
	}
}

func (c *Cli) cachePut(ctx context.Context, key string) error {
	data, err := c.io.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to read stdin: %w", err)
	}

	data = bytes.TrimSpace(data)
	if !json.Valid(data) {
		return fmt.Errorf("stdin is not valid JSON")
	}

	if err := c.cache.Put(ctx, key, json.RawMessage(data)); err != nil {
		return err
	}

	c.io.Printf("✓ Stored %s\n", key)
	return nil
}

func (c *Cli) cacheGet(ctx context.Context, key string) error {
	var value json.RawMessage
	if err := c.cache.Get(ctx, key, &value); err != nil {
		if errors.Is(err, cache.ErrEntryNotFound) {
			return fmt.Errorf("entry not found: %s", key)
		}
		return err
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, value, "", "  "); err != nil {
		return fmt.Errorf("failed to format entry: %w", err)
	}

	c.io.Println(pretty.String())
	return nil
}

func (c *Cli) cacheDelete(ctx context.Context, key string) error {
	if err := c.cache.Delete(ctx, key); err != nil {
		if errors.Is(err, cache.ErrEntryNotFound) {
			return fmt.Errorf("entry not found: %s", key)
		}
		return err
	}

	c.io.Printf("✓ Deleted %s\n", key)
	return nil
}

func (c *Cli) cacheList(ctx context.Context) error {
	keys, err := c.cache.Keys(ctx)
	if err != nil {
		return fmt.Errorf("failed to list entries: %w", err)
	}

	if len(keys) == 0 {
		c.io.Println("Cache is empty")
		return nil
	}

	for _, k := range keys {
		c.io.Println(k)
	}
	return nil
}
