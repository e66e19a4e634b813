// Package main provides a small validator for archive catalog files.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/lautanlab/lautan/internal/adapter/catalog"
)

func main() {
	path := flag.String("catalog", "sources.csv", "Path to the catalog CSV file")
	flag.Parse()

	store, err := catalog.Load(*path)
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}

	entries := store.Entries()
	log.Printf("Loaded %d catalog entries from %s", len(entries), *path)

	failed := false
	seen := make(map[string]int)

	for i, e := range entries {
		key := e.Parameter + "/" + e.Temporal
		seen[key]++

		if e.MultiYearURL == "" {
			fmt.Printf("row %d (%s): empty opendap_my URL\n", i+1, key)
			failed = true
		}
		if e.NearRealTimeURL == "" {
			fmt.Printf("row %d (%s): empty opendap_nrt URL\n", i+1, key)
			failed = true
		}
		if !e.NRTDate.After(e.InitDate) {
			fmt.Printf("row %d (%s): nrt_date %s is not after init_date %s\n",
				i+1, key, e.NRTDate.Format("2006-01-02"), e.InitDate.Format("2006-01-02"))
			failed = true
		}
		if e.ValueMin > e.ValueMax {
			fmt.Printf("row %d (%s): value_min %g is greater than value_max %g\n", i+1, key, e.ValueMin, e.ValueMax)
			failed = true
		}
	}

	for key, n := range seen {
		if n > 1 {
			fmt.Printf("%d rows for %s, lookups require exactly 1\n", n, key)
			failed = true
		}
	}

	if failed {
		os.Exit(1)
	}
	log.Printf("Catalog OK")
}
