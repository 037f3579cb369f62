package property

import "github.com/harwoodsim/property-tycoon/server/internal/domain/mortgage"

// Holding is a purchased property tracked in the player's portfolio, with its
// tenancy, financing, and maintenance state.
type Holding struct {
	Property

	Tenant    *Tenant            `json:"tenant,omitempty"`
	Mortgage  *mortgage.Mortgage `json:"mortgage,omitempty"`
	WorkOrder *WorkOrder         `json:"work_order,omitempty"`

	Plan            RentPlan `json:"plan"`             // currently marketed rent plan
	Listed          bool     `json:"listed"`           // actively seeking a tenant
	AutoRelist      bool     `json:"auto_relist"`      // relist immediately when a lease ends
	MarketingPaused bool     `json:"marketing_paused"` // no tenant rolls while maintenance is pending
	VacantMonths    int      `json:"vacant_months"`    // consecutive months without a tenant
}

// Occupied reports whether a tenant is currently in place.
func (h *Holding) Occupied() bool {
	return h.Tenant != nil
}

// Rentable reports whether the holding may roll for a new tenant this month.
func (h *Holding) Rentable() bool {
	return h.Tenant == nil && h.Listed && !h.MarketingPaused && !h.WorkOrder.Active()
}

// Clone returns a deep copy of the holding.
func (h *Holding) Clone() *Holding {
	cp := *h
	cp.Property = *h.Property.Clone()
	if h.Tenant != nil {
		t := *h.Tenant
		cp.Tenant = &t
	}
	if h.Mortgage != nil {
		cp.Mortgage = h.Mortgage.Clone()
	}
	if h.WorkOrder != nil {
		w := *h.WorkOrder
		cp.WorkOrder = &w
	}
	return &cp
}
