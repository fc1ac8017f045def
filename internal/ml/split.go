package ml

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// SplitResult holds the train/test partition of a dataset.
type SplitResult struct {
	XTrain *mat.Dense
	YTrain []float64
	XTest  *mat.Dense
	YTest  []float64
}

// Split shuffles rows with the seed and partitions them by ratio. The train
// size is the rounded ratio share (0.8 on 1000 rows gives 800/200).
func Split(ds *Dataset, ratio float64, seed int64) (*SplitResult, error) {
	if ds == nil || ds.X == nil {
		return nil, fmt.Errorf("dataset is required")
	}
	if ratio <= 0 || ratio >= 1 {
		return nil, fmt.Errorf("split ratio must be in (0,1), got %v", ratio)
	}

	n, d := ds.X.Dims()
	nTrain := int(math.Round(ratio * float64(n)))
	if nTrain == 0 || nTrain == n {
		return nil, fmt.Errorf("split ratio %v leaves an empty partition for %d rows", ratio, n)
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)

	out := &SplitResult{
		XTrain: mat.NewDense(nTrain, d, nil),
		YTrain: make([]float64, nTrain),
		XTest:  mat.NewDense(n-nTrain, d, nil),
		YTest:  make([]float64, n-nTrain),
	}
	for i, src := range perm {
		if i < nTrain {
			out.XTrain.SetRow(i, mat.Row(nil, src, ds.X))
			out.YTrain[i] = ds.Y[src]
			continue
		}
		out.XTest.SetRow(i-nTrain, mat.Row(nil, src, ds.X))
		out.YTest[i-nTrain] = ds.Y[src]
	}
	return out, nil
}
