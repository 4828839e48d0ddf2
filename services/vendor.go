package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pocketbase/pocketbase/core"
)

// VendorType is the stored discriminator for a vendor's capability.
type VendorType string

const (
	VendorMaterialSupplier VendorType = "MATERIAL_SUPPLIER"
	VendorSubcontractor    VendorType = "SUBCONTRACTOR"
	VendorBoth             VendorType = "BOTH"
)

// Capability is what a vendor declares it can provide. It is one of
// MaterialSupplier, Subcontractor or FullService.
type Capability interface {
	vendorType() VendorType
	trades() []Trade
}

// MaterialSupplier sells materials for its trades.
type MaterialSupplier struct {
	Trades    []Trade  `json:"trades"`
	Materials []string `json:"materials"`
}

// Subcontractor performs installation services for its trades.
type Subcontractor struct {
	Trades   []Trade  `json:"trades"`
	Services []string `json:"services"`
}

// FullService both supplies materials and installs them.
type FullService struct {
	Trades    []Trade  `json:"trades"`
	Materials []string `json:"materials"`
	Services  []string `json:"services"`
}

func (c MaterialSupplier) vendorType() VendorType { return VendorMaterialSupplier }
func (c MaterialSupplier) trades() []Trade { return c.Trades }

func (c Subcontractor) vendorType() VendorType { return VendorSubcontractor }
func (c Subcontractor) trades() []Trade { return c.Trades }

func (c FullService) vendorType() VendorType { return VendorBoth }
func (c FullService) trades() []Trade { return c.Trades }

// Vendor is a roster entry.
type Vendor struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Email              string     `json:"email"`
	ContactName        string     `json:"contact_name"`
	Phone              string     `json:"phone"`
	Capability         Capability `json:"capability"`
	ServiceRadiusMiles float64    `json:"service_radius_miles"`
	Rating             float64    `json:"rating"`
	Active             bool       `json:"active"`
}

// Type returns the vendor's capability discriminator.
func (v Vendor) Type() VendorType {
	if v.Capability == nil {
		return VendorSubcontractor
	}
	return v.Capability.vendorType()
}

// Trades returns the trades the vendor declares.
func (v Vendor) Trades() []Trade {
	if v.Capability == nil {
		return nil
	}
	return v.Capability.trades()
}

// Materials returns the material names the vendor lists; subcontractors list none.
func (v Vendor) Materials() []string {
	switch c := v.Capability.(type) {
	case MaterialSupplier:
		return c.Materials
	case FullService:
		return c.Materials
	}
	return nil
}

// Services returns the services the vendor offers; material suppliers offer none.
func (v Vendor) Services() []string {
	switch c := v.Capability.(type) {
	case Subcontractor:
		return c.Services
	case FullService:
		return c.Services
	}
	return nil
}

// CoversTrade reports whether the vendor declares the trade.
func (v Vendor) CoversTrade(t Trade) bool {
	for _, vt := range v.Trades() {
		if vt == t {
			return true
		}
	}
	return false
}

// ListsMaterial reports whether one of the vendor's material names matches
// the description, by case-insensitive containment either way.
func (v Vendor) ListsMaterial(description string) bool {
	desc := strings.ToLower(strings.TrimSpace(description))
	if desc == "" {
		return false
	}
	for _, m := range v.Materials() {
		name := strings.ToLower(strings.TrimSpace(m))
		if name != "" && (strings.Contains(desc, name) || strings.Contains(name, desc)) {
			return true
		}
	}
	return false
}

// vendorFromRecord builds the vendor even when its materials or services
// list cannot be decoded; the decode error is returned alongside with the
// unreadable list left empty.
func vendorFromRecord(r *core.Record) (Vendor, error) {
	var materials, services []string
	var errs []error
	if err := r.UnmarshalJSONField("materials", &materials); err != nil {
		materials = nil
		errs = append(errs, fmt.Errorf("materials: %w", err))
	}
	if err := r.UnmarshalJSONField("services", &services); err != nil {
		services = nil
		errs = append(errs, fmt.Errorf("services: %w", err))
	}

	raw := r.GetStringSlice("trades")
	trades := make([]Trade, 0, len(raw))
	for _, s := range raw {
		if t := Trade(s); t.Valid() {
			trades = append(trades, t)
		}
	}

	var capability Capability
	switch VendorType(r.GetString("vendor_type")) {
	case VendorMaterialSupplier:
		capability = MaterialSupplier{Trades: trades, Materials: materials}
	case VendorBoth:
		capability = FullService{Trades: trades, Materials: materials, Services: services}
	default:
		capability = Subcontractor{Trades: trades, Services: services}
	}

	return Vendor{
		ID:                 r.Id,
		Name:               r.GetString("name"),
		Email:              r.GetString("email"),
		ContactName:        r.GetString("contact_name"),
		Phone:              r.GetString("phone"),
		Capability:         capability,
		ServiceRadiusMiles: r.GetFloat("service_radius_miles"),
		Rating:             r.GetFloat("rating"),
		Active:             r.GetBool("active"),
	}, errors.Join(errs...)
}

// decodeVendor logs vendors whose capability lists are unreadable and keeps
// them on the roster.
func decodeVendor(app core.App, r *core.Record) Vendor {
	v, err := vendorFromRecord(r)
	if err != nil {
		app.Logger().Warn("vendor capability lists unreadable",
			"component", "vendors", "vendor", r.Id, "name", v.Name, "error", err)
	}
	return v
}

// LoadVendors returns the active vendor roster sorted by name.
func LoadVendors(app core.App) ([]Vendor, error) {
	records, err := app.FindRecordsByFilter("vendors", "active = true", "name", 0, 0)
	if err != nil {
		return nil, fmt.Errorf("load vendors: %w", err)
	}
	vendors := make([]Vendor, 0, len(records))
	for _, rec := range records {
		vendors = append(vendors, decodeVendor(app, rec))
	}
	return vendors, nil
}

// GetVendor loads one vendor by id.
func GetVendor(app core.App, vendorID string) (Vendor, error) {
	rec, err := app.FindRecordById("vendors", vendorID)
	if err != nil {
		return Vendor{}, LookupErr(err, "vendor", vendorID)
	}
	return decodeVendor(app, rec), nil
}
