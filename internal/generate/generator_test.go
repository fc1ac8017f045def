package generate

import (
	"reflect"
	"testing"

	"github.com/rohanpatankar926/data-ml-pipeline-end-end/internal/config"
	"github.com/rohanpatankar926/data-ml-pipeline-end-end/internal/resolve"
)

func genConfig(n int) config.GenerationConfig {
	return config.GenerationConfig{
		NumRows:         n,
		Seed:            42,
		OverlapFraction: 0.8,
		Format:          "json",
		OutputDir:       "data",
	}
}

func TestGenerateRowCounts(t *testing.T) {
	for _, n := range []int{0, 1, 10, 250} {
		out, err := Generate(genConfig(n))
		if err != nil {
			t.Fatalf("Generate(%d): %v", n, err)
		}
		if len(out.SupplyChain) != n {
			t.Errorf("n=%d: supply-chain rows = %d", n, len(out.SupplyChain))
		}
		if len(out.Financial) != n {
			t.Errorf("n=%d: financial rows = %d", n, len(out.Financial))
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	a, err := Generate(genConfig(100))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Generate(genConfig(100))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("same seed produced different output")
	}

	c, err := Generate(config.GenerationConfig{NumRows: 100, Seed: 7, OverlapFraction: 0.8})
	if err != nil {
		t.Fatal(err)
	}
	if reflect.DeepEqual(a.SupplyChain, c.SupplyChain) {
		t.Errorf("different seeds produced identical output")
	}
}

func TestGenerateOverlap(t *testing.T) {
	n := 100
	out, err := Generate(genConfig(n))
	if err != nil {
		t.Fatal(err)
	}
	if out.SharedIdentities != 80 {
		t.Fatalf("SharedIdentities = %d, want 80", out.SharedIdentities)
	}

	supplyNames := map[string]bool{}
	for _, rec := range out.SupplyChain {
		supplyNames[resolve.NormalizeName(rec.CompanyName)] = true
	}
	shared := 0
	for _, rec := range out.Financial {
		if supplyNames[resolve.NormalizeName(rec.Corporation)] {
			shared++
		}
	}
	if shared != out.SharedIdentities {
		t.Errorf("normalized-name intersection = %d, want %d", shared, out.SharedIdentities)
	}
}

func TestGenerateJitterKeepsIdentity(t *testing.T) {
	out, err := Generate(genConfig(50))
	if err != nil {
		t.Fatal(err)
	}
	// The shared block of the financial side carries jittered spellings of
	// the corresponding supply-chain names.
	jittered := 0
	for i := 0; i < out.SharedIdentities; i++ {
		sc := out.SupplyChain[i].CompanyName
		fin := out.Financial[i].Corporation
		if resolve.NormalizeName(sc) != resolve.NormalizeName(fin) {
			t.Errorf("row %d: %q and %q normalize differently", i, sc, fin)
		}
		if sc != fin {
			jittered++
		}
	}
	if jittered == 0 {
		t.Errorf("no jitter applied across %d shared identities", out.SharedIdentities)
	}
}

func TestGenerateValidation(t *testing.T) {
	if _, err := Generate(config.GenerationConfig{NumRows: -1}); err == nil {
		t.Errorf("negative numRows should fail")
	}
	if _, err := Generate(config.GenerationConfig{NumRows: 10, OverlapFraction: 1.5}); err == nil {
		t.Errorf("overlap above 1 should fail")
	}
}
