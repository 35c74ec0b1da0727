package classify

import (
	"fmt"

	"github.com/kucinghitam13/TF-FeatureExtraction/models"
)

const (
	// ImageNetClasses is the label space of models trained without a
	// background class; ImageNetClassesWithBackground adds class 0 =
	// background, shifting every real class up by one.
	ImageNetClasses               = 1000
	ImageNetClassesWithBackground = 1001

	backgroundOffset = 1
)

// Decode reduces each row of the classification layer to a class index in
// the 1001-entry label vocabulary. Arg-max per row, first occurrence winning
// ties; 1000-class models get the +1 background shift so both conventions
// land in the same vocabulary. Row i always describes image i of the batch.
func Decode(outputs models.LayerOutputs, layerName string, numClasses int) ([]int, error) {
	if numClasses != ImageNetClasses && numClasses != ImageNetClassesWithBackground {
		return nil, fmt.Errorf("num_classes %d: %w", numClasses, models.ErrUnsupportedClassCount)
	}

	rows, ok := outputs[layerName]
	if !ok {
		return nil, fmt.Errorf("layer %q missing from backend outputs", layerName)
	}

	classes := make([]int, len(rows))
	for i, row := range rows {
		if len(row) == 0 {
			return nil, fmt.Errorf("layer %q row %d is empty", layerName, i)
		}
		classes[i] = argmax(row)
		if numClasses == ImageNetClasses {
			classes[i] += backgroundOffset
		}
	}
	return classes, nil
}

func argmax(row []float32) int {
	best := 0
	for i, v := range row {
		if v > row[best] {
			best = i
		}
	}
	return best
}
