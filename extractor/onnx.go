package extractor

import (
	"fmt"
	"image"
	"os"
	"runtime"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/kucinghitam13/TF-FeatureExtraction/models"
	"github.com/kucinghitam13/TF-FeatureExtraction/preprocess"
)

const DefaultImageSize = 224

// Square input resolutions for known network families; anything else falls
// back to DefaultImageSize.
var networkImageSizes = map[string]int{
	"inception_v3": 299,
	"inception_v4": 299,
	"resnet_v2":    299,
	"nasnet_large": 331,
}

type Config struct {
	// Network is the model family name, e.g. "resnet_v2_101". It selects
	// the input resolution and the default preprocessing function.
	Network    string
	Checkpoint string
	BatchSize  int
	NumClasses int
	// PreprocFunc optionally forces the preprocessing function; empty means
	// auto-selected for the network. Only "inception" preprocessing is
	// implemented.
	PreprocFunc string
	// ImageSize overrides the network's input resolution when nonzero.
	ImageSize int
}

// ONNX adapts an onnxruntime session to the Backend contract. The ONNX
// environment must be initialized before constructing one.
type ONNX struct {
	cfg       Config
	imageSize int

	inputName  string
	outputInfo []ort.InputOutputInfo
	prep       *preprocess.Preprocessor
	queue      *imageQueue
	sessionMu  sync.Mutex
	session    *ort.DynamicAdvancedSession
	sessionKey string
}

func NewONNX(cfg Config) (*ONNX, error) {
	if _, err := os.Stat(cfg.Checkpoint); os.IsNotExist(err) {
		return nil, fmt.Errorf("checkpoint %s: %w", cfg.Checkpoint, models.ErrNotFound)
	}
	if cfg.PreprocFunc != "" && cfg.PreprocFunc != "inception" {
		return nil, fmt.Errorf("preprocessing function %q not supported", cfg.PreprocFunc)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(cfg.Checkpoint)
	if err != nil {
		return nil, fmt.Errorf("read model info: %w", err)
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("model %s declares no inputs", cfg.Checkpoint)
	}

	size := cfg.ImageSize
	if size == 0 {
		size = imageSizeFor(cfg.Network)
	}

	prep := preprocess.New(size)
	return &ONNX{
		cfg:        cfg,
		imageSize:  size,
		inputName:  inputs[0].Name,
		outputInfo: outputs,
		prep:       prep,
		queue:      newImageQueue(prep),
	}, nil
}

func imageSizeFor(network string) int {
	for prefix, size := range networkImageSizes {
		if strings.HasPrefix(network, prefix) {
			return size
		}
	}
	return DefaultImageSize
}

func (o *ONNX) ImageSize() int  { return o.imageSize }
func (o *ONNX) BatchSize() int  { return o.cfg.BatchSize }
func (o *ONNX) NumClasses() int { return o.cfg.NumClasses }

// Metrics reports the internal queue's counters.
func (o *ONNX) Metrics() QueueMetricsSnapshot {
	return o.queue.snapshot()
}

// EnqueueImageFiles starts background prefetch of the given files, in order.
func (o *ONNX) EnqueueImageFiles(paths []string) {
	o.queue.enqueue(paths)
}

// Summary describes the model's declared outputs; these are the names to
// pass as layer names.
func (o *ONNX) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "network %s (%s), input %q at %dx%dx%d, batch %d\n",
		o.cfg.Network, o.cfg.Checkpoint, o.inputName,
		o.imageSize, o.imageSize, preprocess.Channels, o.cfg.BatchSize)
	b.WriteString("outputs:\n")
	for _, info := range o.outputInfo {
		fmt.Fprintf(&b, "  %s %v\n", info.Name, info.Dimensions)
	}
	return b.String()
}

// FeedForwardBatch runs one forward pass. A nil input draws the next batch
// from the filename queue; fetchImages then also returns the consumed
// images. A supplied batch is fed as-is and never echoes images back.
func (o *ONNX) FeedForwardBatch(layerNames []string, input *models.Batch, fetchImages bool) (models.LayerOutputs, []image.Image, error) {
	batch := input
	var images []image.Image
	if batch == nil {
		var err error
		batch, images, err = o.queue.next(o.cfg.BatchSize)
		if err != nil {
			return nil, nil, fmt.Errorf("dequeue batch: %w", err)
		}
		if !fetchImages {
			images = nil
		}
	}
	if len(batch.Tensors) != o.cfg.BatchSize {
		return nil, nil, fmt.Errorf("batch has %d tensors, want %d", len(batch.Tensors), o.cfg.BatchSize)
	}

	session, err := o.sessionFor(layerNames)
	if err != nil {
		return nil, nil, err
	}

	inputTensor, err := o.buildInputTensor(batch)
	if err != nil {
		return nil, nil, err
	}
	defer inputTensor.Destroy()

	outputs := make([]ort.Value, len(layerNames))
	if err := session.Run([]ort.Value{inputTensor}, outputs); err != nil {
		return nil, nil, fmt.Errorf("model inference: %w", err)
	}

	result := make(models.LayerOutputs, len(layerNames))
	for i, name := range layerNames {
		tensor, ok := outputs[i].(*ort.Tensor[float32])
		if !ok {
			destroyAll(outputs[i:])
			return nil, nil, fmt.Errorf("layer %s: output is not a float32 tensor", name)
		}
		result[name] = splitRows(tensor.GetData(), o.cfg.BatchSize)
		tensor.Destroy()
	}

	return result, images, nil
}

func (o *ONNX) buildInputTensor(batch *models.Batch) (*ort.Tensor[float32], error) {
	per := o.imageSize * o.imageSize * preprocess.Channels
	flat := make([]float32, o.cfg.BatchSize*per)
	for i, tensor := range batch.Tensors {
		if len(tensor) != per {
			return nil, fmt.Errorf("image %d: tensor has %d samples, want %d", i, len(tensor), per)
		}
		copy(flat[i*per:], tensor)
	}

	shape := ort.NewShape(int64(o.cfg.BatchSize),
		int64(o.imageSize), int64(o.imageSize), int64(preprocess.Channels))
	tensor, err := ort.NewTensor(shape, flat)
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}
	return tensor, nil
}

// sessionFor returns a session fetching exactly layerNames, rebuilding the
// cached one when the requested set changes.
func (o *ONNX) sessionFor(layerNames []string) (*ort.DynamicAdvancedSession, error) {
	o.sessionMu.Lock()
	defer o.sessionMu.Unlock()

	key := strings.Join(layerNames, ",")
	if o.session != nil && o.sessionKey == key {
		return o.session, nil
	}
	o.destroySessionLocked()

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("create session options: %w", err)
	}
	defer options.Destroy()

	options.SetIntraOpNumThreads(runtime.NumCPU())
	options.SetInterOpNumThreads(runtime.NumCPU())

	session, err := ort.NewDynamicAdvancedSession(o.cfg.Checkpoint,
		[]string{o.inputName}, layerNames, options)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	o.session = session
	o.sessionKey = key
	return session, nil
}

func (o *ONNX) destroySessionLocked() {
	if o.session != nil {
		o.session.Destroy()
		o.session = nil
	}
	o.sessionKey = ""
}

func (o *ONNX) Destroy() {
	o.sessionMu.Lock()
	o.destroySessionLocked()
	o.sessionMu.Unlock()
	o.queue.destroy()
}

func splitRows(data []float32, rows int) [][]float32 {
	if rows <= 0 || len(data)%rows != 0 {
		return [][]float32{data}
	}
	width := len(data) / rows
	out := make([][]float32, rows)
	for i := range out {
		row := make([]float32, width)
		copy(row, data[i*width:(i+1)*width])
		out[i] = row
	}
	return out
}

func destroyAll(values []ort.Value) {
	for _, v := range values {
		if v != nil {
			v.Destroy()
		}
	}
}
