package models

import (
	"image"
	"time"
)

// Batch is one inference call's worth of images: normalized HWC float32
// tensors plus the paths they came from, in the same order. Row i of every
// layer output produced from a Batch refers to Tensors[i] / Paths[i].
type Batch struct {
	Tensors [][]float32
	Paths   []string
	Size    int
}

// LayerOutputs maps a requested layer name to its per-image output rows
// (batch size × layer width). By caller convention the first requested layer
// name is the classification logits.
type LayerOutputs map[string][][]float32

// Prediction pairs one processed image with its decoded class.
type Prediction struct {
	Path       string      `json:"path"`
	ClassIndex int         `json:"class_index"`
	Label      string      `json:"label,omitempty"`
	Image      image.Image `json:"-"`
}

type RunTimings struct {
	RunID          string
	Resolve        time.Duration
	QueueRun       time.Duration
	PlaceholderRun time.Duration
	Present        time.Duration
	Total          time.Duration
}
