// Package property defines the core domain entities for the real-estate simulation.
// This package is PURE and must NOT import any infrastructure packages (network, events, platform).
package property

// Type represents the class of a property.
type Type string

const (
	TypeApartment    Type = "Apartment"
	TypeTownhouse    Type = "Townhouse"
	TypeSingleFamily Type = "SingleFamily"
	TypeLuxury       Type = "Luxury"
)

// Feature identifies a value-adding attribute of a property.
type Feature string

const (
	FeatureGarage      Feature = "Garage"
	FeatureGarden      Feature = "Garden"
	FeatureBalcony     Feature = "Balcony"
	FeatureSolarPanels Feature = "SolarPanels"
	FeaturePool        Feature = "Pool"
	FeatureFireplace   Feature = "Fireplace"
	FeatureHomeOffice  Feature = "HomeOffice"
)

// Location scores the surroundings of a property. All scores are 0-10.
type Location struct {
	Area        string `json:"area"`
	Proximity   int    `json:"proximity"`    // transit/amenity access
	SchoolScore int    `json:"school_score"` // local school rating
	CrimeScore  int    `json:"crime_score"`  // higher = worse
}

// RentPlan is a (lease length, rate premium) combination. It is a pure value:
// rent and placement probability are always derived fresh from current cost
// and the current central bank rate, never stored on the plan.
type RentPlan struct {
	LeaseMonths int     `json:"lease_months"`
	RateOffset  float64 `json:"rate_offset"`
}

// Tenant occupies an owned property. MonthlyRent is locked at placement time
// and does not track later rate or plan changes.
type Tenant struct {
	MonthlyRent          int `json:"monthly_rent"`
	LeaseMonthsRemaining int `json:"lease_months_remaining"`
}

// WorkOrder tracks scheduled restoration work. Cost is locked at scheduling
// time. Work cannot start until StartDelayMonths has counted down (e.g. a
// sitting tenant's lease must run out first).
type WorkOrder struct {
	MonthsRemaining  int `json:"months_remaining"`
	StartDelayMonths int `json:"start_delay_months"`
	Cost             int `json:"cost"`
}

// Active reports whether the work has actually started.
func (w *WorkOrder) Active() bool {
	return w != nil && w.StartDelayMonths <= 0
}

// Property is the shared shape for market listings and owned properties.
//
// Invariant: Cost must always equal the maintenance-adjusted function of
// BaseValue and MaintenancePercent. The two are only ever written together
// (see rules.ApplyMaintenance).
type Property struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        Type      `json:"type"`
	Bedrooms    int       `json:"bedrooms"`
	Bathrooms   int       `json:"bathrooms"`
	Features    []Feature `json:"features"`
	DemandScore int       `json:"demand_score"` // 1-10
	Location    Location  `json:"location"`

	BaseValue          int     `json:"base_value"`          // immutable once computed
	MaintenancePercent float64 `json:"maintenance_percent"` // 0-100
	Cost               int     `json:"cost"`                // derived market value

	// Market-only fields
	MarketAge       int     `json:"market_age"` // days listed
	IntroducedOnDay int     `json:"introduced_on_day"`
	InheritedTenant *Tenant `json:"inherited_tenant,omitempty"` // transfers on purchase
}

// HasFeature reports whether the property carries a given feature.
func (p *Property) HasFeature(f Feature) bool {
	for _, have := range p.Features {
		if have == f {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the property.
func (p *Property) Clone() *Property {
	cp := *p
	cp.Features = append([]Feature(nil), p.Features...)
	if p.InheritedTenant != nil {
		t := *p.InheritedTenant
		cp.InheritedTenant = &t
	}
	return &cp
}
