package dispatcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func prob(p float64) *float64 { return &p }

var binaryLabels = []string{"Normal", "Pneumonia"}

func TestNormalizeSigmoid(t *testing.T) {
	cases := []struct {
		name       string
		p          float64
		label      string
		confidence float64
	}{
		{"high probability picks positive class", 0.82, "Pneumonia", 82.0},
		{"low probability picks negative class", 0.3, "Normal", 70.0},
		{"certain positive", 1.0, "Pneumonia", 100.0},
		{"certain negative", 0.0, "Normal", 100.0},
		{"exactly half goes negative", 0.5, "Normal", 50.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := Normalize(Prediction{Probability: prob(tc.p)}, binaryLabels)
			assert.NoError(t, err)
			assert.Equal(t, tc.label, result.Label)
			assert.InDelta(t, tc.confidence, result.Confidence, 1e-9)
		})
	}
}

func TestNormalizeSoftmax(t *testing.T) {
	labels := []string{"Normal", "Pneumonia", "Lung Opacity", "Viral Pneumonia"}
	result, err := Normalize(Prediction{Probabilities: []float64{0.05, 0.1, 0.7, 0.15}}, labels)
	assert.NoError(t, err)
	assert.Equal(t, "Lung Opacity", result.Label)
	assert.InDelta(t, 70.0, result.Confidence, 1e-9)
}

func TestNormalizeFallbackLabels(t *testing.T) {
	result, err := Normalize(Prediction{Probabilities: []float64{0.2, 0.8}}, nil)
	assert.NoError(t, err)
	assert.Equal(t, "class-1", result.Label)

	result, err = Normalize(Prediction{Probability: prob(0.9)}, nil)
	assert.NoError(t, err)
	assert.Equal(t, "class-1", result.Label)
	assert.InDelta(t, 90.0, result.Confidence, 1e-9)
}

func TestNormalizeRejectsBadInput(t *testing.T) {
	_, err := Normalize(Prediction{}, binaryLabels)
	assert.Error(t, err)

	_, err = Normalize(Prediction{Probability: prob(1.3)}, binaryLabels)
	assert.Error(t, err)

	_, err = Normalize(Prediction{Probabilities: []float64{0.5, -0.1}}, binaryLabels)
	assert.Error(t, err)
}

// Confidence stays within [0,100] for any valid probability.
func TestNormalizeConfidenceRange(t *testing.T) {
	for p := 0.0; p <= 1.0; p += 0.01 {
		result, err := Normalize(Prediction{Probability: prob(p)}, binaryLabels)
		assert.NoError(t, err)
		assert.GreaterOrEqual(t, result.Confidence, 0.0)
		assert.LessOrEqual(t, result.Confidence, 100.0)
	}
}
