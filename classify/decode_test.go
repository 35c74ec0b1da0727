package classify

import (
	"errors"
	"testing"

	"github.com/kucinghitam13/TF-FeatureExtraction/models"
)

func oneHot(width, hot int) []float32 {
	row := make([]float32, width)
	row[hot] = 1.0
	return row
}

func TestDecodeLabelShift(t *testing.T) {
	outputs := models.LayerOutputs{
		"logits": {oneHot(1001, 0), oneHot(1001, 42)},
	}

	got, err := Decode(outputs, "logits", ImageNetClassesWithBackground)
	if err != nil {
		t.Fatalf("Decode(1001): %v", err)
	}
	if got[0] != 0 || got[1] != 42 {
		t.Errorf("Decode(1001) = %v, want [0 42]", got)
	}

	outputs = models.LayerOutputs{
		"logits": {oneHot(1000, 0), oneHot(1000, 42)},
	}
	got, err = Decode(outputs, "logits", ImageNetClasses)
	if err != nil {
		t.Fatalf("Decode(1000): %v", err)
	}
	if got[0] != 1 || got[1] != 43 {
		t.Errorf("Decode(1000) = %v, want [1 43]", got)
	}
}

func TestDecodeUnsupportedClassCount(t *testing.T) {
	outputs := models.LayerOutputs{"logits": {oneHot(10, 3)}}

	for _, numClasses := range []int{0, 10, 999, 1002, -1} {
		_, err := Decode(outputs, "logits", numClasses)
		if !errors.Is(err, models.ErrUnsupportedClassCount) {
			t.Errorf("Decode(num_classes=%d) error = %v, want ErrUnsupportedClassCount", numClasses, err)
		}
	}
}

func TestDecodeTieBreaksLow(t *testing.T) {
	row := make([]float32, 1001)
	row[5] = 0.9
	row[800] = 0.9

	got, err := Decode(models.LayerOutputs{"logits": {row}}, "logits", ImageNetClassesWithBackground)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got[0] != 5 {
		t.Errorf("tie decoded to %d, want first occurrence 5", got[0])
	}
}

func TestDecodeMissingLayer(t *testing.T) {
	outputs := models.LayerOutputs{"pool4": {oneHot(1001, 1)}}
	if _, err := Decode(outputs, "logits", ImageNetClassesWithBackground); err == nil {
		t.Error("Decode succeeded without the requested layer")
	}
}

func TestDecodePositionalCorrespondence(t *testing.T) {
	rows := make([][]float32, 5)
	for i := range rows {
		rows[i] = oneHot(1001, i*10)
	}

	got, err := Decode(models.LayerOutputs{"logits": rows}, "logits", ImageNetClassesWithBackground)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	for i, class := range got {
		if class != i*10 {
			t.Errorf("row %d decoded to %d, want %d", i, class, i*10)
		}
	}
}
