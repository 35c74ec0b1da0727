package extractor

import (
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/kucinghitam13/TF-FeatureExtraction/models"
	"github.com/kucinghitam13/TF-FeatureExtraction/preprocess"
)

const (
	// PrefetchDepth bounds how many decoded images wait in the queue ahead
	// of the consumer.
	PrefetchDepth  = 64
	DequeueTimeout = 30 * time.Second
)

type queuedImage struct {
	path   string
	tensor []float32
	img    image.Image
	err    error
}

// imageQueue is the backend's internal filename queue: paths go in, decoded
// and normalized tensors come out. A single background goroutine does the
// decode work so dequeue order always matches enqueue order; consumers trust
// that ordering, nothing re-verifies it downstream.
type imageQueue struct {
	items   chan queuedImage
	prep    *preprocess.Preprocessor
	mu      sync.Mutex
	closed  bool
	metrics *QueueMetrics
}

type QueueMetrics struct {
	mu           sync.RWMutex
	enqueued     int64
	dequeued     int64
	decodeErrors int64
	waitTime     time.Duration
}

// QueueMetricsSnapshot is the exported view served by the gallery's metrics
// endpoint.
type QueueMetricsSnapshot struct {
	Enqueued     int64         `json:"enqueued"`
	Dequeued     int64         `json:"dequeued"`
	DecodeErrors int64         `json:"decode_errors"`
	WaitTime     time.Duration `json:"wait_time_ns"`
}

func newImageQueue(prep *preprocess.Preprocessor) *imageQueue {
	return &imageQueue{
		items:   make(chan queuedImage, PrefetchDepth),
		prep:    prep,
		metrics: &QueueMetrics{},
	}
}

// enqueue starts prefetching the given paths in order. It returns
// immediately; decode happens in the background.
func (q *imageQueue) enqueue(paths []string) {
	q.metrics.mu.Lock()
	q.metrics.enqueued += int64(len(paths))
	q.metrics.mu.Unlock()

	go func() {
		for _, path := range paths {
			img, tensor, err := q.load(path)
			if err != nil {
				q.metrics.mu.Lock()
				q.metrics.decodeErrors++
				q.metrics.mu.Unlock()
			}
			q.items <- queuedImage{path: path, tensor: tensor, img: img, err: err}
		}
	}()
}

func (q *imageQueue) load(path string) (image.Image, []float32, error) {
	tensor, err := q.prep.Load(path)
	if err != nil {
		return nil, nil, err
	}
	// Displayable form at network resolution, recovered from the tensor so
	// the echoed image is exactly what the model saw.
	return q.prep.ToImage(tensor), tensor, nil
}

// next blocks until count images have been dequeued, preserving enqueue
// order.
func (q *imageQueue) next(count int) (*models.Batch, []image.Image, error) {
	start := time.Now()
	defer func() {
		q.metrics.mu.Lock()
		q.metrics.waitTime += time.Since(start)
		q.metrics.mu.Unlock()
	}()

	batch := &models.Batch{
		Tensors: make([][]float32, 0, count),
		Paths:   make([]string, 0, count),
		Size:    count,
	}
	images := make([]image.Image, 0, count)

	for i := 0; i < count; i++ {
		select {
		case item := <-q.items:
			if item.err != nil {
				return nil, nil, item.err
			}
			batch.Tensors = append(batch.Tensors, item.tensor)
			batch.Paths = append(batch.Paths, item.path)
			images = append(images, item.img)

			q.metrics.mu.Lock()
			q.metrics.dequeued++
			q.metrics.mu.Unlock()
		case <-time.After(DequeueTimeout):
			return nil, nil, fmt.Errorf("timeout waiting for queued image %d of %d", i+1, count)
		}
	}

	return batch, images, nil
}

func (q *imageQueue) destroy() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
}

func (q *imageQueue) snapshot() QueueMetricsSnapshot {
	q.metrics.mu.RLock()
	defer q.metrics.mu.RUnlock()
	return QueueMetricsSnapshot{
		Enqueued:     q.metrics.enqueued,
		Dequeued:     q.metrics.dequeued,
		DecodeErrors: q.metrics.decodeErrors,
		WaitTime:     q.metrics.waitTime,
	}
}
