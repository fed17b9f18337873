package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/iudanet/repairdesk/internal/client/cache"
	"github.com/iudanet/repairdesk/internal/models"
	"github.com/iudanet/repairdesk/pkg/api"
)

func (c *Cli) runCatalog(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("catalog", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	cached := fs.Bool("cached", false, "Show cached catalog without contacting the server")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}

	var tree api.CatalogTreeResponse
	if *cached {
		if err := c.cache.Get(ctx, catalogCacheKey, &tree); err != nil {
			if errors.Is(err, cache.ErrEntryNotFound) {
				return fmt.Errorf("catalog is not cached. Run 'catalog' while online first")
			}
			return err
		}
	} else {
		if c.tenantToken == "" {
			return fmt.Errorf("REPAIRDESK_TENANT_TOKEN is not set")
		}

		resp, err := c.apiClient.CatalogTree(ctx, c.tenantToken)
		if err != nil {
			return err
		}
		tree = *resp

		if err := c.cache.Put(ctx, catalogCacheKey, tree); err != nil {
			return fmt.Errorf("failed to cache catalog: %w", err)
		}
	}

	c.printTree(tree.Brands)
	return nil
}

func (c *Cli) printTree(brands []models.CatalogTreeNode) {
	if len(brands) == 0 {
		c.io.Println("Catalog is empty")
		return
	}

	for _, brand := range brands {
		c.io.Printf("%s%s\n", brand.Name, inactiveMark(brand.IsActive))
		for _, model := range brand.Children {
			c.io.Printf("  %s%s\n", model.Name, inactiveMark(model.IsActive))
			for _, price := range model.Prices {
				c.io.Printf("    %-28s %s%s\n", price.Name, formatPrice(price), inactiveMark(price.IsActive))
			}
		}
	}
}

// formatPrice итоговая цена: своя цена мастерской либо базовая
func formatPrice(p models.PriceNode) string {
	amount := p.BasePrice
	if p.CustomPrice != nil {
		amount = *p.CustomPrice
	}

	var b strings.Builder
	if p.IsStartingPrice || p.PriceType == models.PriceStartingAt {
		b.WriteString("from ")
	}
	fmt.Fprintf(&b, "%.2f EUR", amount)
	if p.HasCustomPrice {
		b.WriteString(" *")
	}
	return b.String()
}

func inactiveMark(active bool) string {
	if active {
		return ""
	}
	return " (inactive)"
}
