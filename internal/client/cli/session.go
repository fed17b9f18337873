package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/iudanet/repairdesk/internal/client/api"
	"github.com/iudanet/repairdesk/internal/client/cache"
	pkgapi "github.com/iudanet/repairdesk/pkg/api"
)

func (c *Cli) runSession(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing subcommand. Usage: session start -terminal ID | session show")
	}

	switch args[0] {
	case "start":
		return c.sessionStart(ctx, args[1:])
	case "show":
		return c.sessionShow(ctx)
	default:
		return fmt.Errorf("unknown session subcommand: %s", args[0])
	}
}

func (c *Cli) sessionStart(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("session start", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	terminalID := fs.String("terminal", "", "Terminal ID")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}

	if *terminalID == "" {
		return fmt.Errorf("missing terminal ID. Usage: session start -terminal ID")
	}
	if c.tenantToken == "" {
		return fmt.Errorf("REPAIRDESK_TENANT_TOKEN is not set")
	}

	session, err := c.apiClient.StartSession(ctx, c.tenantToken, *terminalID)
	if err != nil {
		return err
	}

	if err := c.cache.Put(ctx, sessionCacheKey, session); err != nil {
		return fmt.Errorf("failed to cache session: %w", err)
	}

	c.io.Println("✓ Session started")
	c.io.Printf("Terminal:   %s\n", session.TerminalID)
	c.io.Printf("Expires at: %s\n", session.ExpiresAt.Local().Format(time.DateTime))
	return nil
}

func (c *Cli) sessionShow(ctx context.Context) error {
	var session pkgapi.SessionResponse
	if err := c.cache.Get(ctx, sessionCacheKey, &session); err != nil {
		if errors.Is(err, cache.ErrEntryNotFound) {
			return fmt.Errorf("no active session. Please run 'session start' first")
		}
		return err
	}

	current, err := c.apiClient.CurrentSession(ctx, session.Token)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			// Токен истек или ключ сессий сервера сменился
			_ = c.cache.Delete(ctx, sessionCacheKey)
			return fmt.Errorf("session expired or invalid. Please run 'session start' again")
		}
		return err
	}

	c.io.Println("=== Session ===")
	c.io.Printf("Repairer:   %s\n", current.UserID)
	c.io.Printf("Terminal:   %s\n", current.TerminalID)
	c.io.Printf("Issued at:  %s\n", current.IssuedAt.Local().Format(time.DateTime))
	c.io.Printf("Expires at: %s\n", current.ExpiresAt.Local().Format(time.DateTime))
	return nil
}
