// Package classify drives one batch of images through the backend and decodes
// the classification layer into label-space predictions. Two feeding
// strategies share the same output contract: QueueStrategy streams file
// names through the backend's own queue, PlaceholderStrategy loads and
// preprocesses the batch itself and feeds tensors directly.
package classify

import (
	"fmt"

	"github.com/kucinghitam13/TF-FeatureExtraction/extractor"
	"github.com/kucinghitam13/TF-FeatureExtraction/labels"
	"github.com/kucinghitam13/TF-FeatureExtraction/models"
	"github.com/kucinghitam13/TF-FeatureExtraction/preprocess"
)

// Strategy feeds one batch of images to the backend and returns a prediction
// per consumed image, in input order. layerNames[0] must be the
// classification layer.
type Strategy interface {
	Run(backend extractor.Backend, paths []string, layerNames []string) ([]models.Prediction, error)
}

// QueueStrategy hands the whole path list to the backend's filename queue
// and takes one batch of results. It pairs output row i with enqueued path
// i: the backend's promise to consume images in enqueue order is trusted,
// not verified, so a backend that reorders silently mislabels results.
type QueueStrategy struct {
	Vocab *labels.Vocabulary
}

func (s *QueueStrategy) Run(backend extractor.Backend, paths []string, layerNames []string) ([]models.Prediction, error) {
	batchSize := backend.BatchSize()
	if err := checkBatch(len(paths), batchSize, layerNames); err != nil {
		return nil, err
	}

	backend.EnqueueImageFiles(paths)
	outputs, images, err := backend.FeedForwardBatch(layerNames, nil, true)
	if err != nil {
		return nil, fmt.Errorf("queue feed forward: %w", err)
	}
	if len(images) != batchSize {
		return nil, fmt.Errorf("backend echoed %d images, want %d", len(images), batchSize)
	}

	classes, err := Decode(outputs, layerNames[0], backend.NumClasses())
	if err != nil {
		return nil, err
	}
	if len(classes) < batchSize {
		return nil, fmt.Errorf("backend returned %d output rows, want %d", len(classes), batchSize)
	}

	predictions := make([]models.Prediction, batchSize)
	for i := 0; i < batchSize; i++ {
		predictions[i] = models.Prediction{
			Path:       paths[i],
			ClassIndex: classes[i],
			Label:      s.Vocab.Name(classes[i]),
			Image:      images[i],
		}
	}
	return predictions, nil
}

// PlaceholderStrategy preprocesses the first batchSize paths itself and
// feeds the tensors directly. Display images are reconstructed by
// denormalizing the fed tensors, never by re-reading disk, so what is shown
// is pixel-exact what the model saw.
type PlaceholderStrategy struct {
	Vocab *labels.Vocabulary
}

func (s *PlaceholderStrategy) Run(backend extractor.Backend, paths []string, layerNames []string) ([]models.Prediction, error) {
	batchSize := backend.BatchSize()
	if err := checkBatch(len(paths), batchSize, layerNames); err != nil {
		return nil, err
	}

	prep := preprocess.New(backend.ImageSize())
	batch, err := prep.Batch(paths, batchSize)
	if err != nil {
		return nil, err
	}

	outputs, _, err := backend.FeedForwardBatch(layerNames, batch, false)
	if err != nil {
		return nil, fmt.Errorf("placeholder feed forward: %w", err)
	}

	classes, err := Decode(outputs, layerNames[0], backend.NumClasses())
	if err != nil {
		return nil, err
	}
	if len(classes) < batchSize {
		return nil, fmt.Errorf("backend returned %d output rows, want %d", len(classes), batchSize)
	}

	predictions := make([]models.Prediction, batchSize)
	for i := 0; i < batchSize; i++ {
		predictions[i] = models.Prediction{
			Path:       batch.Paths[i],
			ClassIndex: classes[i],
			Label:      s.Vocab.Name(classes[i]),
			Image:      prep.ToImage(batch.Tensors[i]),
		}
	}
	return predictions, nil
}

func checkBatch(available, batchSize int, layerNames []string) error {
	if len(layerNames) == 0 {
		return fmt.Errorf("no layer names given, need at least the classification layer")
	}
	if batchSize <= 0 {
		return fmt.Errorf("batch size %d must be positive", batchSize)
	}
	if available < batchSize {
		return fmt.Errorf("have %d images, batch size %d: %w",
			available, batchSize, models.ErrNotEnoughImages)
	}
	return nil
}
