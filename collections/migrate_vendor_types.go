package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase/core"
)

// MigrateVendorTypes backfills vendor_type for vendors created before the
// field existed. Vendors listing both materials and services become BOTH,
// vendors with only a material list become MATERIAL_SUPPLIER, everyone else
// SUBCONTRACTOR. Safe to call on every startup -- returns early if nothing to
// migrate.
func MigrateVendorTypes(app core.App) error {
	untyped, err := app.FindRecordsByFilter("vendors", "vendor_type = ''", "", 0, 0)
	if err != nil {
		return fmt.Errorf("migrate: could not query untyped vendors: %w", err)
	}
	if len(untyped) == 0 {
		return nil
	}

	log.Printf("migrate: found %d vendor(s) without a vendor_type -- backfilling...\n", len(untyped))

	for _, vendor := range untyped {
		var materials, services []string
		_ = vendor.UnmarshalJSONField("materials", &materials)
		_ = vendor.UnmarshalJSONField("services", &services)

		vendorType := "SUBCONTRACTOR"
		switch {
		case len(materials) > 0 && len(services) > 0:
			vendorType = "BOTH"
		case len(materials) > 0:
			vendorType = "MATERIAL_SUPPLIER"
		}

		vendor.Set("vendor_type", vendorType)
		if err := app.Save(vendor); err != nil {
			log.Printf("migrate: failed to set vendor_type on %s: %v\n", vendor.Id, err)
			continue
		}
		log.Printf("migrate: vendor %q -> %s\n", vendor.GetString("name"), vendorType)
	}

	log.Println("migrate: vendor type backfill complete.")
	return nil
}
