package ml

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// TrainConfig controls gradient descent.
type TrainConfig struct {
	LearningRate float64
	Epochs       int
}

// Model is a trained logistic-regression classifier. Feature standardization
// parameters travel with the weights so prediction accepts raw features.
type Model struct {
	FeatureNames    []string  `json:"featureNames"`
	Weights         []float64 `json:"weights"`
	Bias            float64   `json:"bias"`
	Mean            []float64 `json:"mean"`
	Std             []float64 `json:"std"`
	ProfitThreshold float64   `json:"profitThreshold"`
	Epochs          int       `json:"epochs"`
	LearningRate    float64   `json:"learningRate"`
	TrainedAt       time.Time `json:"trainedAt"`
}

// Train fits a logistic regression with batch gradient descent on
// standardized features.
func Train(X *mat.Dense, y []float64, names []string, profitThreshold float64, cfg TrainConfig) (*Model, error) {
	if X == nil {
		return nil, fmt.Errorf("feature matrix is required")
	}
	n, d := X.Dims()
	if n != len(y) {
		return nil, fmt.Errorf("got %d rows but %d labels", n, len(y))
	}
	if cfg.Epochs <= 0 {
		cfg.Epochs = 500
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = 0.1
	}

	mean, std := columnStats(X)
	Xs := standardize(X, mean, std)

	w := mat.NewVecDense(d, nil)
	bias := 0.0
	yVec := mat.NewVecDense(n, y)

	z := mat.NewVecDense(n, nil)
	errVec := mat.NewVecDense(n, nil)
	grad := mat.NewVecDense(d, nil)

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		z.MulVec(Xs, w)
		for i := 0; i < n; i++ {
			z.SetVec(i, sigmoid(z.AtVec(i)+bias))
		}
		errVec.SubVec(z, yVec)

		grad.MulVec(Xs.T(), errVec)
		w.AddScaledVec(w, -cfg.LearningRate/float64(n), grad)
		bias -= cfg.LearningRate * floats.Sum(errVec.RawVector().Data) / float64(n)
	}

	weights := make([]float64, d)
	copy(weights, w.RawVector().Data)

	return &Model{
		FeatureNames:    append([]string(nil), names...),
		Weights:         weights,
		Bias:            bias,
		Mean:            mean,
		Std:             std,
		ProfitThreshold: profitThreshold,
		Epochs:          cfg.Epochs,
		LearningRate:    cfg.LearningRate,
		TrainedAt:       time.Now().UTC(),
	}, nil
}

// PredictProba returns the probability of the positive class for one raw
// feature vector.
func (m *Model) PredictProba(features []float64) float64 {
	z := m.Bias
	for i, v := range features {
		if i >= len(m.Weights) {
			break
		}
		z += m.Weights[i] * standardizeOne(v, m.Mean[i], m.Std[i])
	}
	return sigmoid(z)
}

// Predict returns the class decision at the 0.5 boundary.
func (m *Model) Predict(features []float64) bool {
	return m.PredictProba(features) >= 0.5
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func columnStats(X *mat.Dense) (mean, std []float64) {
	n, d := X.Dims()
	mean = make([]float64, d)
	std = make([]float64, d)
	col := make([]float64, n)
	for j := 0; j < d; j++ {
		mat.Col(col, j, X)
		mean[j] = floats.Sum(col) / float64(n)
		var ss float64
		for _, v := range col {
			diff := v - mean[j]
			ss += diff * diff
		}
		std[j] = math.Sqrt(ss / float64(n))
		if std[j] == 0 {
			std[j] = 1
		}
	}
	return mean, std
}

func standardize(X *mat.Dense, mean, std []float64) *mat.Dense {
	n, d := X.Dims()
	out := mat.NewDense(n, d, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < d; j++ {
			out.Set(i, j, standardizeOne(X.At(i, j), mean[j], std[j]))
		}
	}
	return out
}

func standardizeOne(v, mean, std float64) float64 {
	return (v - mean) / std
}
