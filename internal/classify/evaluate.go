package classify

import (
	"github.com/aaronalt/gcc-lulc/internal/sample"
)

// Evaluation summarizes model performance on a held-out test set.
type Evaluation struct {
	// Total and Correct count the evaluated rows.
	Total   int `json:"total"`
	Correct int `json:"correct"`

	// Accuracy is Correct/Total.
	Accuracy float64 `json:"accuracy"`

	// Recall maps class value to the fraction of that class's test rows
	// predicted correctly.
	Recall map[int]float64 `json:"recall"`

	// Confusion maps actual class to predicted class to count.
	Confusion map[int]map[int]int `json:"confusion"`
}

// Evaluate runs the model over the test rows and tabulates accuracy,
// per-class recall and the confusion matrix.
func Evaluate(m *Model, test *sample.Set) (*Evaluation, error) {
	ev := &Evaluation{
		Recall:    make(map[int]float64),
		Confusion: make(map[int]map[int]int),
	}

	classTotals := make(map[int]int)
	classCorrect := make(map[int]int)

	for _, row := range test.Rows {
		predicted, _, err := m.Predict(row.Values)
		if err != nil {
			return nil, err
		}

		ev.Total++
		classTotals[row.Class]++
		if ev.Confusion[row.Class] == nil {
			ev.Confusion[row.Class] = make(map[int]int)
		}
		ev.Confusion[row.Class][predicted]++

		if predicted == row.Class {
			ev.Correct++
			classCorrect[row.Class]++
		}
	}

	if ev.Total > 0 {
		ev.Accuracy = float64(ev.Correct) / float64(ev.Total)
	}
	for class, total := range classTotals {
		ev.Recall[class] = float64(classCorrect[class]) / float64(total)
	}
	return ev, nil
}
