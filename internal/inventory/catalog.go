package inventory

import (
	"asset-inventory-api/internal/database"
	"asset-inventory-api/internal/models"
	"asset-inventory-api/pkg/importer"
)

// Catalog wires one repository per resource onto a shared pool.
type Catalog struct {
	HardwareAssets      *Repository[models.HardwareAsset]
	HardwareAccessories *Repository[models.HardwareAccessory]
	SoftwareAssets      *Repository[models.SoftwareAsset]
	SoftwareYearly      *Repository[models.SoftwareYearly]
	HardwareAmortized   *Repository[models.HardwareAmortized]

	Users *UserStore
	Mover *Mover
}

// NewCatalog builds the repositories. moveAtomic selects the transactional mover.
func NewCatalog(db *database.DB, moveAtomic bool) *Catalog {
	return &Catalog{
		HardwareAssets:      NewRepository[models.HardwareAsset](db, HardwareAssets),
		HardwareAccessories: NewRepository[models.HardwareAccessory](db, HardwareAccessories),
		SoftwareAssets:      NewRepository[models.SoftwareAsset](db, SoftwareAssets),
		SoftwareYearly:      NewRepository[models.SoftwareYearly](db, SoftwareYearly),
		HardwareAmortized:   NewRepository[models.HardwareAmortized](db, HardwareAmortized),
		Users:               NewUserStore(db),
		Mover:               NewMover(db, moveAtomic),
	}
}

// Target returns the import target for a resource route name.
func (c *Catalog) Target(name string) (importer.Target, bool) {
	switch name {
	case HardwareAssets.Name:
		return c.HardwareAssets, true
	case HardwareAccessories.Name:
		return c.HardwareAccessories, true
	case SoftwareAssets.Name:
		return c.SoftwareAssets, true
	case SoftwareYearly.Name:
		return c.SoftwareYearly, true
	case HardwareAmortized.Name:
		return c.HardwareAmortized, true
	}
	return nil, false
}
