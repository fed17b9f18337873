// Package cli команды POS CLI: зашифрованный кэш, сессия терминала, каталог.
package cli

import (
	"context"

	"github.com/iudanet/repairdesk/internal/client/iocli"
	"github.com/iudanet/repairdesk/pkg/api"
)

// Ключи записей кэша
const (
	sessionCacheKey = "session"
	catalogCacheKey = "catalog"
)

// APIClient клиент сервера repairdesk
//
//go:generate moq -out api_mock.go . APIClient
type APIClient interface {
	StartSession(ctx context.Context, tenantToken, terminalID string) (*api.SessionResponse, error)
	CurrentSession(ctx context.Context, sessionToken string) (*api.CurrentSessionResponse, error)
	CatalogTree(ctx context.Context, tenantToken string) (*api.CatalogTreeResponse, error)
}

// Cache зашифрованный локальный кэш
//
//go:generate moq -out cache_mock.go . Cache
type Cache interface {
	Put(ctx context.Context, key string, v any) error
	Get(ctx context.Context, key string, out any) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}

type Cli struct {
	io          iocli.IO
	apiClient   APIClient
	cache       Cache
	tenantToken string // JWT мастерской, пусто - команды сервера недоступны
}

func New(io iocli.IO, apiClient APIClient, cache Cache, tenantToken string) *Cli {
	return &Cli{
		io:          io,
		apiClient:   apiClient,
		cache:       cache,
		tenantToken: tenantToken,
	}
}

func PrintUsage(io iocli.IO) {
	io.Println("RepairDesk POS terminal")
	io.Println()
	io.Println("Usage:")
	io.Println("  repairdesk-pos [OPTIONS] COMMAND")
	io.Println()
	io.Println("Options:")
	io.Println("  -version              Show version information")
	io.Println("  -server URL           Server URL (default: http://localhost:8080)")
	io.Println("  -db PATH              Path to local cache (default: repairdesk-pos.db)")
	io.Println("  -passphrase           Derive cache key from an operator passphrase")
	io.Println()
	io.Println("Cache key priority (highest to lowest):")
	io.Println("  1. REPAIRDESK_CACHE_KEY environment variable (base64, 32 bytes)")
	io.Println("  2. -passphrase (interactive prompt)")
	io.Println("  3. Device fingerprint")
	io.Println()
	io.Println("Commands:")
	io.Println("  cache put <key>          Store JSON from stdin encrypted")
	io.Println("  cache get <key>          Show decrypted entry")
	io.Println("  cache delete <key>       Delete entry")
	io.Println("  cache list               List entry keys")
	io.Println("  session start -terminal ID   Open terminal session (needs REPAIRDESK_TENANT_TOKEN)")
	io.Println("  session show             Show current session as seen by the server")
	io.Println("  catalog [-cached]        Show catalog tree and cache it")
	io.Println()
	io.Println("Examples:")
	io.Println("  export REPAIRDESK_TENANT_TOKEN='eyJhbGciOi...'")
	io.Println("  repairdesk-pos session start -terminal POS-01")
	io.Println("  echo '{\"device\":\"iPhone 13\"}' | repairdesk-pos cache put ticket-1")
}
