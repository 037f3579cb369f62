// Package main runs the simulation headless for a number of days and prints
// a summary. Useful for balance tuning: the same seed always produces the
// same run.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/harwoodsim/property-tycoon/server/internal/engine"
	"github.com/harwoodsim/property-tycoon/server/internal/events"
	"github.com/harwoodsim/property-tycoon/server/internal/platform/logger"
)

func main() {
	days := flag.Int("days", 360, "number of simulated days to run")
	seed := flag.Int64("seed", 1, "random seed")
	buyFirst := flag.Bool("buy", false, "buy the cheapest opening listing with a mortgage before running")
	verbose := flag.Bool("v", false, "print the full history log")
	flag.Parse()

	if *days < 1 {
		fmt.Fprintln(os.Stderr, "days must be at least 1")
		os.Exit(1)
	}

	os.Setenv("LOG_LEVEL", "error") // keep the run quiet unless something breaks
	appLogger := logger.NewLogger()

	rng := rand.New(rand.NewSource(*seed))
	historyLog := events.NewLog(nil)
	eng := engine.NewEngine(engine.DefaultConfig(), rng.Float64, historyLog, appLogger)

	if *buyFirst {
		snap := eng.Snapshot()
		cheapest := snap.Market[0]
		for _, p := range snap.Market {
			if p.Cost < cheapest.Cost {
				cheapest = p
			}
		}
		if err := eng.FinancePurchase(cheapest.ID, 0.20, 25, 5, false); err != nil {
			fmt.Fprintf(os.Stderr, "opening purchase failed: %v\n", err)
			os.Exit(1)
		}
		if err := eng.SetAutoRelist(cheapest.ID, true); err != nil {
			fmt.Fprintf(os.Stderr, "auto-relist failed: %v\n", err)
			os.Exit(1)
		}
	}

	for i := 0; i < *days; i++ {
		eng.AdvanceDay()
	}

	s := eng.Snapshot()
	fmt.Printf("Run complete: seed %d, %s simulated days\n", *seed, humanize.Comma(int64(*days)))
	fmt.Printf("  Day:              %d\n", s.Day)
	fmt.Printf("  Balance:          $%s\n", humanize.CommafWithDigits(s.Balance, 2))
	fmt.Printf("  Central bank:     %.2f%%\n", s.CentralBankRate*100)
	fmt.Printf("  Market listings:  %d\n", len(s.Market))
	fmt.Printf("  Portfolio:        %d\n", len(s.Portfolio))

	for _, h := range s.Portfolio {
		occupancy := "vacant"
		if h.Tenant != nil {
			occupancy = fmt.Sprintf("tenant $%s/mo, %d months left",
				humanize.Comma(int64(h.Tenant.MonthlyRent)), h.Tenant.LeaseMonthsRemaining)
		}
		fmt.Printf("    %-28s value $%s, condition %.1f%%, %s\n",
			h.Name, humanize.Comma(int64(h.Cost)), h.MaintenancePercent, occupancy)
	}

	all := historyLog.Replay()
	byKind := make(map[events.Kind]int)
	for _, e := range all {
		byKind[e.Kind]++
	}
	fmt.Printf("  History entries:  %s\n", humanize.Comma(int64(len(all))))
	for _, kind := range []events.Kind{
		events.KindPurchase, events.KindSale, events.KindForcedSale, events.KindRent,
		events.KindTenancy, events.KindMortgage, events.KindMaintenance,
		events.KindMarket, events.KindRateChange, events.KindRejected,
	} {
		if n := byKind[kind]; n > 0 {
			fmt.Printf("    %-14s %d\n", kind, n)
		}
	}

	if *verbose {
		fmt.Println()
		for _, e := range all {
			fmt.Printf("[day %4d] %-12s %s\n", e.Day, e.Kind, e.Message)
		}
	}
}
