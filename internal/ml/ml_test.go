package ml

import (
	"math/rand"
	"reflect"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/rohanpatankar926/data-ml-pipeline-end-end/internal/model"
)

func TestBuildFeatures(t *testing.T) {
	records := []model.UnifiedRecord{
		{CanonicalName: "A", HasFinancial: true, Revenue: 1000, Profit: 100, ProfitMargin: 0.1, TopSuppliers: []string{"x", "y"}},
		{CanonicalName: "B", HasFinancial: true, Revenue: 2000, Profit: -50, ProfitMargin: -0.025},
		{CanonicalName: "C", HasFinancial: false, HasSupplyChain: true},
		{CanonicalName: "D", HasFinancial: true, Revenue: 500, Profit: 0, ProfitMargin: 0},
	}

	ds, err := BuildFeatures(records, 0)
	if err != nil {
		t.Fatalf("BuildFeatures: %v", err)
	}
	if ds.NumRows() != 3 {
		t.Fatalf("rows = %d, want 3", ds.NumRows())
	}
	if len(ds.Skipped) != 1 {
		t.Fatalf("skipped = %d, want 1", len(ds.Skipped))
	}
	if !reflect.DeepEqual(ds.Names, FeatureNames) {
		t.Errorf("Names = %v", ds.Names)
	}

	t.Run("label is profit strictly above threshold", func(t *testing.T) {
		// A: 100 > 0 -> 1; B: -50 -> 0; D: 0 -> 0 (not strict).
		want := []float64{1, 0, 0}
		if !reflect.DeepEqual(ds.Y, want) {
			t.Errorf("labels = %v, want %v", ds.Y, want)
		}
	})

	t.Run("feature order", func(t *testing.T) {
		row := mat.Row(nil, 0, ds.X)
		want := []float64{1000, 2, 0.1}
		if !reflect.DeepEqual(row, want) {
			t.Errorf("features = %v, want %v", row, want)
		}
	})

	t.Run("custom threshold", func(t *testing.T) {
		ds, err := BuildFeatures(records, -100)
		if err != nil {
			t.Fatal(err)
		}
		want := []float64{1, 1, 1}
		if !reflect.DeepEqual(ds.Y, want) {
			t.Errorf("labels = %v, want %v", ds.Y, want)
		}
	})

	t.Run("no financial rows at all", func(t *testing.T) {
		if _, err := BuildFeatures([]model.UnifiedRecord{{HasSupplyChain: true}}, 0); err == nil {
			t.Errorf("expected an error with no trainable rows")
		}
	})
}

func TestSplit(t *testing.T) {
	n := 1000
	data := make([]float64, n*2)
	labels := make([]float64, n)
	for i := 0; i < n; i++ {
		data[i*2] = float64(i)
		data[i*2+1] = float64(i % 7)
		labels[i] = float64(i % 2)
	}
	ds := &Dataset{Names: []string{"a", "b"}, X: mat.NewDense(n, 2, data), Y: labels}

	t.Run("ratio split within rounding", func(t *testing.T) {
		res, err := Split(ds, 0.8, 42)
		if err != nil {
			t.Fatalf("Split: %v", err)
		}
		if len(res.YTrain) != 800 || len(res.YTest) != 200 {
			t.Fatalf("split = %d/%d, want 800/200", len(res.YTrain), len(res.YTest))
		}
	})

	t.Run("deterministic for a seed", func(t *testing.T) {
		a, err := Split(ds, 0.8, 42)
		if err != nil {
			t.Fatal(err)
		}
		b, err := Split(ds, 0.8, 42)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(a.YTrain, b.YTrain) || !mat.Equal(a.XTrain, b.XTrain) {
			t.Errorf("same seed produced different splits")
		}
	})

	t.Run("rows are shuffled, not truncated", func(t *testing.T) {
		res, err := Split(ds, 0.8, 42)
		if err != nil {
			t.Fatal(err)
		}
		// The first train row being row 0 of the input would mean no shuffle.
		inOrder := true
		for i := 0; i < 10; i++ {
			if res.XTrain.At(i, 0) != float64(i) {
				inOrder = false
				break
			}
		}
		if inOrder {
			t.Errorf("first 10 train rows are in input order; shuffle missing")
		}
	})

	t.Run("bad ratios", func(t *testing.T) {
		for _, ratio := range []float64{0, 1, -0.5, 1.5} {
			if _, err := Split(ds, ratio, 42); err == nil {
				t.Errorf("ratio %v should fail", ratio)
			}
		}
	})
}

// separableDataset builds a dataset where the label follows the first two
// features linearly, so a logistic regression must fit it well.
func separableDataset(n int, seed int64) (*mat.Dense, []float64) {
	rng := rand.New(rand.NewSource(seed))
	X := mat.NewDense(n, 3, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		a := rng.NormFloat64()
		b := rng.NormFloat64()
		c := rng.NormFloat64()
		X.SetRow(i, []float64{a * 1000, b * 5, c})
		if 2*a+b > 0 {
			y[i] = 1
		}
	}
	return X, y
}

func TestTrainAndEvaluate(t *testing.T) {
	X, y := separableDataset(400, 1)
	m, err := Train(X, y, FeatureNames, 0, TrainConfig{LearningRate: 0.5, Epochs: 500})
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if len(m.Weights) != 3 || len(m.Mean) != 3 || len(m.Std) != 3 {
		t.Fatalf("model shape wrong: %+v", m)
	}

	t.Run("fits separable data", func(t *testing.T) {
		metrics, err := Evaluate(m, X, y)
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		if metrics.Accuracy < 0.95 {
			t.Errorf("train accuracy = %v, want >= 0.95", metrics.Accuracy)
		}
		if metrics.Rows != 400 {
			t.Errorf("Rows = %d, want 400", metrics.Rows)
		}
	})

	t.Run("generalizes to held-out data", func(t *testing.T) {
		XTest, yTest := separableDataset(200, 2)
		metrics, err := Evaluate(m, XTest, yTest)
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		if metrics.Accuracy < 0.9 {
			t.Errorf("test accuracy = %v, want >= 0.9", metrics.Accuracy)
		}
		if metrics.F1 <= 0 {
			t.Errorf("F1 = %v, want > 0", metrics.F1)
		}
	})

	t.Run("probabilities are calibrated around the boundary", func(t *testing.T) {
		p := m.PredictProba([]float64{5000, 20, 0})
		if p <= 0.5 {
			t.Errorf("strongly positive point scored %v", p)
		}
		p = m.PredictProba([]float64{-5000, -20, 0})
		if p >= 0.5 {
			t.Errorf("strongly negative point scored %v", p)
		}
	})
}

func TestEvaluateShapeMismatch(t *testing.T) {
	X, y := separableDataset(50, 3)
	m, err := Train(X, y, FeatureNames, 0, TrainConfig{LearningRate: 0.5, Epochs: 100})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Evaluate(m, X, y[:10]); err == nil {
		t.Errorf("label/row mismatch should fail")
	}
}

func TestDatasetEncodeDecode(t *testing.T) {
	records := []model.UnifiedRecord{
		{CanonicalName: "A", HasFinancial: true, Revenue: 1000, Profit: 100, ProfitMargin: 0.1, TopSuppliers: []string{"x"}},
		{CanonicalName: "B", HasFinancial: true, Revenue: 2000, Profit: -50, ProfitMargin: -0.025},
		{CanonicalName: "C", HasSupplyChain: true},
	}
	ds, err := BuildFeatures(records, 0)
	if err != nil {
		t.Fatal(err)
	}

	data, err := EncodeDataset(ds)
	if err != nil {
		t.Fatalf("EncodeDataset: %v", err)
	}
	got, err := DecodeDataset(data)
	if err != nil {
		t.Fatalf("DecodeDataset: %v", err)
	}
	if !mat.Equal(got.X, ds.X) {
		t.Errorf("feature matrix changed across encode/decode")
	}
	if !reflect.DeepEqual(got.Y, ds.Y) {
		t.Errorf("labels changed: %v vs %v", got.Y, ds.Y)
	}
	if len(got.Skipped) != len(ds.Skipped) {
		t.Errorf("skipped issues lost: %d vs %d", len(got.Skipped), len(ds.Skipped))
	}

	if _, err := DecodeDataset([]byte("{}")); err == nil {
		t.Errorf("empty dataset should fail to decode")
	}
}
