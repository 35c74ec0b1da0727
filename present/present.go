// Package present renders decoded predictions for humans: a console
// presenter that logs each image's label and optionally writes the displayed
// images to disk, and an HTTP gallery serving the same results as JSON and
// PNG.
package present

import "github.com/kucinghitam13/TF-FeatureExtraction/models"

type Presenter interface {
	Present(predictions []models.Prediction) error
}
