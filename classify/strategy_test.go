package classify

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/kucinghitam13/TF-FeatureExtraction/imageset"
	"github.com/kucinghitam13/TF-FeatureExtraction/models"
)

// stubBackend serves canned one-hot outputs. hotFor picks the hot index per
// output row, so tests can verify positional correspondence.
type stubBackend struct {
	batchSize  int
	numClasses int
	imageSize  int
	hotFor     func(row int) int

	enqueued []string
	fedBatch *models.Batch
}

func (s *stubBackend) ImageSize() int  { return s.imageSize }
func (s *stubBackend) BatchSize() int  { return s.batchSize }
func (s *stubBackend) NumClasses() int { return s.numClasses }

func (s *stubBackend) EnqueueImageFiles(paths []string) {
	s.enqueued = paths
}

func (s *stubBackend) FeedForwardBatch(layerNames []string, input *models.Batch, fetchImages bool) (models.LayerOutputs, []image.Image, error) {
	s.fedBatch = input

	rows := make([][]float32, s.batchSize)
	for i := range rows {
		row := make([]float32, s.numClasses)
		row[s.hotFor(i)] = 1.0
		rows[i] = row
	}
	outputs := make(models.LayerOutputs, len(layerNames))
	for _, name := range layerNames {
		outputs[name] = rows
	}

	var images []image.Image
	if input == nil && fetchImages {
		images = make([]image.Image, s.batchSize)
		for i := range images {
			images[i] = image.NewRGBA(image.Rect(0, 0, s.imageSize, s.imageSize))
		}
	}
	return outputs, images, nil
}

func writeTestImages(t *testing.T, dir string, count int) []string {
	t.Helper()
	for i := 0; i < count; i++ {
		img := image.NewNRGBA(image.Rect(0, 0, 6, 6))
		for p := 0; p < 6*6; p++ {
			img.SetNRGBA(p%6, p/6, color.NRGBA{R: uint8(40 * i), G: 128, B: 200, A: 255})
		}
		f, err := os.Create(filepath.Join(dir, fmt.Sprintf("img_%d.png", i)))
		if err != nil {
			t.Fatal(err)
		}
		if err := png.Encode(f, img); err != nil {
			t.Fatal(err)
		}
		f.Close()
	}

	paths, err := imageset.Resolve(dir, imageset.DefaultExtensions)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(paths) != count {
		t.Fatalf("resolved %d images, want %d", len(paths), count)
	}
	return paths
}

// Three PNGs, batch of 3, 1001 classes, one-hot at 42: every prediction is
// class 42.
func TestPlaceholderStrategyBackgroundModel(t *testing.T) {
	paths := writeTestImages(t, t.TempDir(), 3)
	backend := &stubBackend{
		batchSize: 3, numClasses: 1001, imageSize: 8,
		hotFor: func(int) int { return 42 },
	}

	predictions, err := (&PlaceholderStrategy{}).Run(backend, paths, []string{"logits"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(predictions) != 3 {
		t.Fatalf("got %d predictions, want 3", len(predictions))
	}
	for i, pred := range predictions {
		if pred.ClassIndex != 42 {
			t.Errorf("prediction %d class = %d, want 42", i, pred.ClassIndex)
		}
		if pred.Path != paths[i] {
			t.Errorf("prediction %d path = %s, want %s", i, pred.Path, paths[i])
		}
		if pred.Image == nil {
			t.Errorf("prediction %d has no display image", i)
		}
	}

	if backend.fedBatch == nil {
		t.Fatal("backend never received an explicit batch")
	}
	if len(backend.fedBatch.Tensors) != 3 || len(backend.fedBatch.Paths) != 3 {
		t.Errorf("fed batch sizes: tensors=%d paths=%d, want 3",
			len(backend.fedBatch.Tensors), len(backend.fedBatch.Paths))
	}
}

// Same run against a 1000-class model: the background shift moves every
// prediction to 43.
func TestPlaceholderStrategyShiftedModel(t *testing.T) {
	paths := writeTestImages(t, t.TempDir(), 3)
	backend := &stubBackend{
		batchSize: 3, numClasses: 1000, imageSize: 8,
		hotFor: func(int) int { return 42 },
	}

	predictions, err := (&PlaceholderStrategy{}).Run(backend, paths, []string{"logits"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i, pred := range predictions {
		if pred.ClassIndex != 43 {
			t.Errorf("prediction %d class = %d, want 43", i, pred.ClassIndex)
		}
	}
}

// An empty image directory cannot fill a batch: the run fails with the
// not-enough-images condition rather than indexing out of range.
func TestStrategiesEmptyDirectory(t *testing.T) {
	paths, err := imageset.Resolve(t.TempDir(), imageset.DefaultExtensions)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(paths) != 0 {
		t.Fatalf("resolved %d images from empty dir", len(paths))
	}

	backend := &stubBackend{
		batchSize: 3, numClasses: 1001, imageSize: 8,
		hotFor: func(int) int { return 0 },
	}

	for name, strategy := range map[string]Strategy{
		"queue":       &QueueStrategy{},
		"placeholder": &PlaceholderStrategy{},
	} {
		if _, err := strategy.Run(backend, paths, []string{"logits"}); !errors.Is(err, models.ErrNotEnoughImages) {
			t.Errorf("%s: error = %v, want ErrNotEnoughImages", name, err)
		}
	}
}

func TestQueueStrategyPositionalCorrespondence(t *testing.T) {
	paths := writeTestImages(t, t.TempDir(), 4)
	backend := &stubBackend{
		batchSize: 4, numClasses: 1001, imageSize: 8,
		hotFor: func(row int) int { return row * 7 },
	}

	predictions, err := (&QueueStrategy{}).Run(backend, paths, []string{"logits"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(backend.enqueued) != 4 {
		t.Fatalf("backend saw %d enqueued paths, want 4", len(backend.enqueued))
	}
	for i, pred := range predictions {
		if pred.ClassIndex != i*7 {
			t.Errorf("prediction %d class = %d, want %d (row order)", i, pred.ClassIndex, i*7)
		}
		if pred.Path != paths[i] {
			t.Errorf("prediction %d path = %s, want %s", i, pred.Path, paths[i])
		}
		if pred.Image == nil {
			t.Errorf("prediction %d missing echoed image", i)
		}
	}
}

func TestRunWithoutLayerNames(t *testing.T) {
	backend := &stubBackend{
		batchSize: 1, numClasses: 1001, imageSize: 8,
		hotFor: func(int) int { return 0 },
	}
	if _, err := (&QueueStrategy{}).Run(backend, []string{"a.png"}, nil); err == nil {
		t.Error("Run succeeded without layer names")
	}
}
