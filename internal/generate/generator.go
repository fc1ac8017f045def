// Package generate produces the synthetic corporate registry sources: a
// supply-chain view and a financial view with overlapping identities under
// different key names.
package generate

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/google/uuid"

	"github.com/rohanpatankar926/data-ml-pipeline-end-end/internal/config"
	"github.com/rohanpatankar926/data-ml-pipeline-end-end/internal/model"
)

var (
	namePrefixes = []string{
		"Apex", "Borealis", "Cascade", "Delta", "Evergreen", "Fulcrum",
		"Granite", "Horizon", "Ironwood", "Juniper", "Keystone", "Lumen",
		"Meridian", "Northgate", "Obsidian", "Pinnacle", "Quartz", "Redwood",
		"Summit", "Tidewater", "Umbra", "Vanguard", "Westfield", "Zenith",
	}
	nameSuffixes = []string{
		"Industries", "Holdings", "Logistics", "Manufacturing", "Partners",
		"Systems", "Trading", "Ventures", "Materials", "Dynamics",
	}
	cities = []string{
		"Amsterdam", "Berlin", "Chicago", "Dublin", "Frankfurt", "Geneva",
		"Helsinki", "Lisbon", "Madrid", "Oslo", "Prague", "Rotterdam",
		"Singapore", "Tokyo", "Toronto", "Vienna", "Warsaw", "Zurich",
	}
	streets = []string{
		"Harbor Road", "Market Street", "Station Lane", "Industrial Way",
		"Commerce Avenue", "Dock Street", "Foundry Road", "Mill Lane",
	}
)

// Output is the generated pair of record sets.
type Output struct {
	SupplyChain []model.SupplyChainRecord
	Financial   []model.FinancialRecord

	// SharedIdentities counts corporations present in both sources.
	SharedIdentities int
}

// Generate produces exactly NumRows rows per source. A configured fraction of
// corporate identities appears in both sources under different key names,
// with casing/punctuation/whitespace jitter applied to the financial side.
// Output is deterministic for a fixed seed.
func Generate(cfg config.GenerationConfig) (*Output, error) {
	if cfg.NumRows < 0 {
		return nil, fmt.Errorf("numRows must be >= 0, got %d", cfg.NumRows)
	}
	overlap := cfg.OverlapFraction
	if overlap < 0 || overlap > 1 {
		return nil, fmt.Errorf("overlapFraction must be in [0,1], got %v", overlap)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	n := cfg.NumRows
	shared := int(float64(n) * overlap)

	// One pool of distinct corporate names: n for the supply-chain side plus
	// enough extras so the financial side reaches n rows on its own.
	names := distinctNames(rng, n+(n-shared))

	out := &Output{SharedIdentities: shared}
	for i := 0; i < n; i++ {
		out.SupplyChain = append(out.SupplyChain, model.SupplyChainRecord{
			ExternalID:        externalID("source1", names[i], i),
			CompanyName:       names[i],
			Address:           randomAddress(rng),
			ActivityLocations: sample(rng, cities, 1+rng.Intn(4)),
			TopSuppliers:      supplierNames(rng, 1+rng.Intn(3)),
		})
	}

	for i := 0; i < n; i++ {
		var name string
		if i < shared {
			// Same identity as the supply-chain side, different surface form.
			name = jitterName(rng, names[i])
		} else {
			name = names[n+(i-shared)]
		}
		revenue := 1e5 + rng.Float64()*9.9e6
		// Margin in [-0.2, 0.4]; some corporations run at a loss.
		margin := -0.2 + rng.Float64()*0.6
		out.Financial = append(out.Financial, model.FinancialRecord{
			ExternalID:    externalID("source2", name, i),
			Corporation:   name,
			MainCustomers: supplierNames(rng, 1+rng.Intn(4)),
			Revenue:       roundCents(revenue),
			Profit:        roundCents(revenue * margin),
		})
	}

	return out, nil
}

// externalID derives a stable name-based UUID so reruns with the same seed
// produce identical files.
func externalID(source, name string, row int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s/%s/%d", source, name, row))).String()
}

// jitterName alters casing, whitespace and punctuation without changing the
// normalized identity.
func jitterName(rng *rand.Rand, name string) string {
	switch rng.Intn(4) {
	case 0:
		return strings.ToUpper(name)
	case 1:
		return strings.ToLower(name)
	case 2:
		// Comma before the suffix word, the registry-filing style.
		if idx := strings.LastIndex(name, " "); idx > 0 {
			return name[:idx] + ", " + name[idx+1:]
		}
		return name + "."
	default:
		return "  " + strings.ReplaceAll(name, " ", "  ") + " "
	}
}

func distinctNames(rng *rand.Rand, count int) []string {
	seen := make(map[string]bool, count)
	names := make([]string, 0, count)
	for len(names) < count {
		name := namePrefixes[rng.Intn(len(namePrefixes))] + " " + nameSuffixes[rng.Intn(len(nameSuffixes))]
		if seen[name] {
			// Pools are small; qualify collisions with a numeric suffix.
			name = fmt.Sprintf("%s %d", name, len(names))
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

func randomAddress(rng *rand.Rand) string {
	return fmt.Sprintf("%d %s, %s", 1+rng.Intn(400), streets[rng.Intn(len(streets))], cities[rng.Intn(len(cities))])
}

func supplierNames(rng *rand.Rand, count int) []string {
	out := make([]string, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, namePrefixes[rng.Intn(len(namePrefixes))]+" "+nameSuffixes[rng.Intn(len(nameSuffixes))])
	}
	return out
}

func sample(rng *rand.Rand, pool []string, count int) []string {
	idx := rng.Perm(len(pool))
	if count > len(pool) {
		count = len(pool)
	}
	out := make([]string, 0, count)
	for _, i := range idx[:count] {
		out = append(out, pool[i])
	}
	return out
}

func roundCents(v float64) float64 {
	return float64(int64(v*100)) / 100
}
