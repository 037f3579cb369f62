package engine

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/harwoodsim/property-tycoon/server/internal/domain/property"
	"github.com/harwoodsim/property-tycoon/server/internal/domain/rules"
	"github.com/harwoodsim/property-tycoon/server/internal/events"
	"github.com/harwoodsim/property-tycoon/server/internal/platform/logger"
)

// archetype is a procedural template for a market listing: a flavor of
// property with its own attribute ranges and feature pool.
type archetype struct {
	label       string
	kind        property.Type
	namePool    []string
	areas       []string
	bedrooms    [2]int
	bathrooms   [2]int
	demand      [2]int
	proximity   [2]int
	school      [2]int
	crime       [2]int
	maintenance [2]float64 // zero value means use the global default range
	features    []property.Feature
	featureMax  int
}

var archetypes = []archetype{
	{
		label:    "city apartment",
		kind:     property.TypeApartment,
		namePool: []string{"Harbor View", "The Foundry", "Linden Court", "Meridian Lofts", "Canal House"},
		areas:    []string{"City Centre", "Riverside", "Old Quarter"},
		bedrooms: [2]int{1, 3}, bathrooms: [2]int{1, 2},
		demand: [2]int{5, 10}, proximity: [2]int{7, 10}, school: [2]int{3, 8}, crime: [2]int{2, 7},
		features:   []property.Feature{property.FeatureBalcony, property.FeatureHomeOffice},
		featureMax: 2,
	},
	{
		label:    "starter flat",
		kind:     property.TypeApartment,
		namePool: []string{"Birch Block", "Fern Rise", "Gasworks Studio", "Corner Flat"},
		areas:    []string{"East Side", "Millfield"},
		bedrooms: [2]int{1, 2}, bathrooms: [2]int{1, 1},
		demand: [2]int{3, 8}, proximity: [2]int{4, 8}, school: [2]int{2, 6}, crime: [2]int{3, 8},
		maintenance: [2]float64{45, 80},
		features:    []property.Feature{property.FeatureBalcony},
		featureMax:  1,
	},
	{
		label:    "suburban townhouse",
		kind:     property.TypeTownhouse,
		namePool: []string{"Maple Row", "Elm Terrace", "Wisteria Walk", "Bramble End", "Holly Mews"},
		areas:    []string{"Northfield", "Ashgrove", "Kings Heath"},
		bedrooms: [2]int{2, 4}, bathrooms: [2]int{1, 3},
		demand: [2]int{4, 9}, proximity: [2]int{4, 8}, school: [2]int{4, 9}, crime: [2]int{1, 5},
		features:   []property.Feature{property.FeatureGarden, property.FeatureGarage, property.FeatureFireplace},
		featureMax: 2,
	},
	{
		label:    "family home",
		kind:     property.TypeSingleFamily,
		namePool: []string{"Oakdene", "The Willows", "Rowan House", "Larkspur Lodge", "Pinefield"},
		areas:    []string{"Westbrook", "Summerton", "Ashgrove"},
		bedrooms: [2]int{3, 5}, bathrooms: [2]int{2, 3},
		demand: [2]int{4, 9}, proximity: [2]int{3, 7}, school: [2]int{5, 10}, crime: [2]int{0, 4},
		features:   []property.Feature{property.FeatureGarden, property.FeatureGarage, property.FeatureHomeOffice, property.FeatureSolarPanels},
		featureMax: 3,
	},
	{
		label:    "luxury villa",
		kind:     property.TypeLuxury,
		namePool: []string{"Belvedere", "The Glasshouse", "Clifftop Manor", "Silverbirch Hall"},
		areas:    []string{"The Heights", "Lakeshore"},
		bedrooms: [2]int{4, 6}, bathrooms: [2]int{3, 5},
		demand: [2]int{3, 8}, proximity: [2]int{2, 6}, school: [2]int{6, 10}, crime: [2]int{0, 3},
		maintenance: [2]float64{75, 98},
		features:    []property.Feature{property.FeaturePool, property.FeatureGarden, property.FeatureGarage, property.FeatureFireplace, property.FeatureSolarPanels},
		featureMax:  4,
	},
}

// MarketSystem procedurally creates listings and runs the daily rotation:
// aging, expiry, and cadence-based replenishment toward the target size.
type MarketSystem struct {
	cfg    Config
	rng    RandFunc
	logger *logger.Logger
}

// NewMarketSystem creates the market listing generator.
func NewMarketSystem(cfg Config, rng RandFunc, log *logger.Logger) *MarketSystem {
	return &MarketSystem{cfg: cfg, rng: rng, logger: log}
}

// RotateDaily ages every listing, expires the ones past max age, and tops the
// market back up when the generation cadence has elapsed. Runs every day, not
// just on month boundaries.
func (ms *MarketSystem) RotateDaily(s *GameState) {
	kept := s.Market[:0]
	for _, p := range s.Market {
		p.MarketAge++
		if p.MarketAge > ms.cfg.MarketMaxAgeDays {
			s.Record(events.KindMarket, p.ID, fmt.Sprintf("Listing expired: %s left the market unsold", p.Name))
			ms.logger.Event("LISTING_EXPIRED", p.ID, p.Name)
			continue
		}
		kept = append(kept, p)
	}
	s.Market = kept

	if s.Day-s.LastMarketGenerationDay < ms.cfg.MarketGenerationIntervalDays {
		return
	}
	if len(s.Market) >= ms.cfg.MarketMaxSize {
		return
	}

	capacity := ms.cfg.MarketMaxSize - len(s.Market)
	var want int
	if len(s.Market) < ms.cfg.MarketMinSize {
		want = ms.cfg.MarketMinSize - len(s.Market)
	} else {
		want = 1 + int(ms.rng()*float64(ms.cfg.MarketBatchSize))
		if want > ms.cfg.MarketBatchSize {
			want = ms.cfg.MarketBatchSize
		}
	}
	if want > capacity {
		want = capacity
	}

	added := 0
	for i := 0; i < want; i++ {
		p := ms.generateListing(s)
		s.Market = append(s.Market, p)
		s.Record(events.KindMarket, p.ID, fmt.Sprintf("New listing: %s in %s for %s", p.Name, p.Location.Area, money(p.Cost)))
		added++
	}
	if added > 0 {
		// The cadence only resets when listings were actually added.
		s.LastMarketGenerationDay = s.Day
		ms.logger.Info("Market replenished with %d listing(s), now %d on the market", added, len(s.Market))
	}
}

// SeedInitial fills an empty market up to the minimum size without recording
// history entries. Used on fresh starts and resets.
func (ms *MarketSystem) SeedInitial(s *GameState) {
	for len(s.Market) < ms.cfg.MarketMinSize {
		s.Market = append(s.Market, ms.generateListing(s))
	}
	s.LastMarketGenerationDay = s.Day
}

// generateListing samples one archetype into a concrete listing.
func (ms *MarketSystem) generateListing(s *GameState) *property.Property {
	a := archetypes[ms.intn(len(archetypes))]

	p := &property.Property{
		ID:          uuid.NewString(),
		Name:        fmt.Sprintf("%s %d", a.namePool[ms.intn(len(a.namePool))], 1+ms.intn(98)),
		Type:        a.kind,
		Bedrooms:    ms.rangeInt(a.bedrooms),
		Bathrooms:   ms.rangeInt(a.bathrooms),
		DemandScore: ms.rangeInt(a.demand),
		Location: property.Location{
			Area:        a.areas[ms.intn(len(a.areas))],
			Proximity:   ms.rangeInt(a.proximity),
			SchoolScore: ms.rangeInt(a.school),
			CrimeScore:  ms.rangeInt(a.crime),
		},
		IntroducedOnDay: s.Day,
	}

	// Sample a feature subset without repeats.
	pool := append([]property.Feature(nil), a.features...)
	count := ms.intn(a.featureMax + 1)
	for i := 0; i < count && len(pool) > 0; i++ {
		j := ms.intn(len(pool))
		p.Features = append(p.Features, pool[j])
		pool = append(pool[:j], pool[j+1:]...)
	}

	// The pool is the luxury segment's defining feature; every villa has one.
	if a.kind == property.TypeLuxury && !p.HasFeature(property.FeaturePool) {
		p.Features = append(p.Features, property.FeaturePool)
	}

	p.BaseValue = rules.BaseValue(p)

	mRange := a.maintenance
	if mRange == [2]float64{} {
		mRange = ms.cfg.DefaultMaintenanceRange
	}
	pct := mRange[0] + ms.rng()*(mRange[1]-mRange[0])
	pct = math.Round(pct*10) / 10
	rules.ApplyMaintenance(p, pct)

	// Some listings come with a sitting tenant, more often in high-demand
	// spots. The inherited lease is jittered around the default plan's.
	if ms.rng() < ms.cfg.InheritedTenantChance*float64(p.DemandScore)/10 {
		quote := rules.QuoteFor(p.Cost, p.DemandScore, s.CentralBankRate, rules.DefaultPlan)
		lease := quote.Plan.LeaseMonths + ms.intn(13) - 6
		if lease < 1 {
			lease = 1
		}
		p.InheritedTenant = &property.Tenant{
			MonthlyRent:          quote.MonthlyRent,
			LeaseMonthsRemaining: lease,
		}
	}

	return p
}

func (ms *MarketSystem) intn(n int) int {
	if n <= 0 {
		return 0
	}
	i := int(ms.rng() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}

func (ms *MarketSystem) rangeInt(r [2]int) int {
	return r[0] + ms.intn(r[1]-r[0]+1)
}
