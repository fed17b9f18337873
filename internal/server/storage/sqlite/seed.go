package sqlite

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/iudanet/repairdesk/internal/models"
)

// LoadBaseCatalogFile читает YAML-файл базового каталога для ImportBaseCatalog
func LoadBaseCatalogFile(path string) (*models.BaseCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	return ParseBaseCatalog(data)
}

// ParseBaseCatalog разбирает YAML базового каталога и проверяет ссылки между строками
func ParseBaseCatalog(data []byte) (*models.BaseCatalog, error) {
	var catalog models.BaseCatalog
	if err := yaml.UnmarshalStrict(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	if err := checkBaseCatalog(&catalog); err != nil {
		return nil, err
	}

	return &catalog, nil
}

func checkBaseCatalog(c *models.BaseCatalog) error {
	brands := make(map[string]struct{}, len(c.Brands))
	for _, b := range c.Brands {
		if b.ID == "" {
			return fmt.Errorf("brand %q: id is required", b.Name)
		}
		brands[b.ID] = struct{}{}
	}

	deviceModels := make(map[string]struct{}, len(c.Models))
	for _, m := range c.Models {
		if m.ID == "" {
			return fmt.Errorf("model %q: id is required", m.ModelName)
		}
		if _, ok := brands[m.BrandID]; !ok {
			return fmt.Errorf("model %s: unknown brand %q", m.ID, m.BrandID)
		}
		deviceModels[m.ID] = struct{}{}
	}

	repairTypes := make(map[string]struct{}, len(c.RepairTypes))
	for _, rt := range c.RepairTypes {
		if rt.ID == "" {
			return fmt.Errorf("repair type %q: id is required", rt.Name)
		}
		repairTypes[rt.ID] = struct{}{}
	}

	for _, p := range c.BasePrices {
		if p.ID == "" {
			return fmt.Errorf("base price: id is required")
		}
		if _, ok := deviceModels[p.DeviceModelID]; !ok {
			return fmt.Errorf("base price %s: unknown model %q", p.ID, p.DeviceModelID)
		}
		if _, ok := repairTypes[p.RepairTypeID]; !ok {
			return fmt.Errorf("base price %s: unknown repair type %q", p.ID, p.RepairTypeID)
		}
	}

	return nil
}
