// Package extractor abstracts the feature-extraction backend: a pre-trained
// classification model that turns batches of normalized image tensors into
// named layer outputs. The pipeline only ever talks to the Backend interface;
// the ONNX adapter is one implementation, test stubs are another.
package extractor

import (
	"image"

	"github.com/kucinghitam13/TF-FeatureExtraction/models"
)

// Backend is the capability contract the feeding strategies need.
//
// EnqueueImageFiles registers images for streaming consumption and must hand
// them to inference in the order given. FeedForwardBatch runs one forward
// pass: with a nil input it draws the next batch from the internal queue,
// otherwise it feeds the supplied batch directly. When fetchImages is true
// the raw images actually consumed are returned alongside the layer outputs;
// for a supplied batch the caller already holds the tensors, so images are
// only returned for queue-fed passes.
type Backend interface {
	EnqueueImageFiles(paths []string)
	FeedForwardBatch(layerNames []string, input *models.Batch, fetchImages bool) (models.LayerOutputs, []image.Image, error)

	ImageSize() int
	BatchSize() int
	NumClasses() int
}
