package preprocess

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/kucinghitam13/TF-FeatureExtraction/models"
)

// Preprocessor turns image files into normalized model-input tensors at a
// fixed square resolution.
type Preprocessor struct {
	targetSize int
}

func New(targetSize int) *Preprocessor {
	return &Preprocessor{targetSize: targetSize}
}

func (p *Preprocessor) TargetSize() int {
	return p.targetSize
}

// Load decodes one image, resizes it to targetSize×targetSize and returns
// its normalized tensor.
func (p *Preprocessor) Load(path string) ([]float32, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, &models.ProcessingError{Message: fmt.Sprintf("decode %s", path), Cause: err}
	}
	return p.FromImage(img), nil
}

// FromImage resizes and normalizes an already-decoded image.
func (p *Preprocessor) FromImage(img image.Image) []float32 {
	resized := imaging.Resize(img, p.targetSize, p.targetSize, imaging.Linear)
	return imageToTensor(resized, p.targetSize)
}

// Batch loads exactly batchSize images from the head of paths. Fails with
// ErrNotEnoughImages rather than reading past the end of the list.
func (p *Preprocessor) Batch(paths []string, batchSize int) (*models.Batch, error) {
	if len(paths) < batchSize {
		return nil, fmt.Errorf("have %d images, batch size %d: %w",
			len(paths), batchSize, models.ErrNotEnoughImages)
	}

	batch := &models.Batch{
		Tensors: make([][]float32, 0, batchSize),
		Paths:   make([]string, 0, batchSize),
		Size:    batchSize,
	}
	for _, path := range paths[:batchSize] {
		tensor, err := p.Load(path)
		if err != nil {
			return nil, err
		}
		batch.Tensors = append(batch.Tensors, tensor)
		batch.Paths = append(batch.Paths, path)
	}
	return batch, nil
}

// ToImage reconstructs the displayable form of a tensor produced by this
// preprocessor.
func (p *Preprocessor) ToImage(tensor []float32) *image.RGBA {
	return ToImage(tensor, p.targetSize)
}
