package present

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/kucinghitam13/TF-FeatureExtraction/models"
)

// Console logs one line per prediction. With OutDir set it also saves each
// displayed image (the denormalized tensor or the queue echo, exactly as the
// model consumed it) as a PNG named after its position and class.
type Console struct {
	Logger *zap.Logger
	OutDir string
	// Prefix distinguishes saved files when several batches share OutDir.
	Prefix string
}

func (c *Console) Present(predictions []models.Prediction) error {
	if c.OutDir != "" {
		if err := os.MkdirAll(c.OutDir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	for i, pred := range predictions {
		c.Logger.Info("prediction",
			zap.Int("index", i),
			zap.String("image", pred.Path),
			zap.Int("class", pred.ClassIndex),
			zap.String("label", pred.Label))

		if c.OutDir == "" || pred.Image == nil {
			continue
		}
		name := fmt.Sprintf("%s%03d_%d.png", c.Prefix, i, pred.ClassIndex)
		if err := imaging.Save(pred.Image, filepath.Join(c.OutDir, name)); err != nil {
			return fmt.Errorf("save %s: %w", name, err)
		}
	}
	return nil
}
