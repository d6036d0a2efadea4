package dispatcher

import (
	"fmt"
)

// Result is a finalized interpretation: a diagnosis label and a
// confidence percentage in [0,100].
type Result struct {
	Label      string
	Confidence float64
}

// Normalize maps a raw scorer output onto a Result. For a two-class
// sigmoid output, probability > 0.5 means the positive class
// (labels[1]) with confidence p*100, otherwise the negative class
// (labels[0]) with confidence (1-p)*100. For a softmax vector the label
// is the arg-max index and the confidence that index's probability*100.
func Normalize(prediction Prediction, labels []string) (Result, error) {
	if prediction.Probability != nil {
		p := *prediction.Probability
		if p < 0 || p > 1 {
			return Result{}, fmt.Errorf("probability %v out of range", p)
		}
		if p > 0.5 {
			return Result{Label: labelAt(labels, 1), Confidence: p * 100}, nil
		}
		return Result{Label: labelAt(labels, 0), Confidence: (1 - p) * 100}, nil
	}
	if len(prediction.Probabilities) == 0 {
		return Result{}, fmt.Errorf("empty prediction")
	}
	best := 0
	for i, p := range prediction.Probabilities {
		if p < 0 || p > 1 {
			return Result{}, fmt.Errorf("probability %v out of range", p)
		}
		if p > prediction.Probabilities[best] {
			best = i
		}
	}
	return Result{Label: labelAt(labels, best), Confidence: prediction.Probabilities[best] * 100}, nil
}

func labelAt(labels []string, i int) string {
	if i >= 0 && i < len(labels) && labels[i] != "" {
		return labels[i]
	}
	return fmt.Sprintf("class-%d", i)
}
