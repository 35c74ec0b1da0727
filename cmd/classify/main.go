package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/zap"

	"github.com/kucinghitam13/TF-FeatureExtraction/classify"
	"github.com/kucinghitam13/TF-FeatureExtraction/config"
	"github.com/kucinghitam13/TF-FeatureExtraction/extractor"
	"github.com/kucinghitam13/TF-FeatureExtraction/imageset"
	"github.com/kucinghitam13/TF-FeatureExtraction/labels"
	"github.com/kucinghitam13/TF-FeatureExtraction/models"
	"github.com/kucinghitam13/TF-FeatureExtraction/present"
	"github.com/kucinghitam13/TF-FeatureExtraction/utils"
)

func main() {
	cfg := config.New()

	network := flag.String("network", "", "model name, e.g. 'resnet_v2_101' (required)")
	checkpoint := flag.String("checkpoint", "", "path to the pre-trained model file (required)")
	imagePath := flag.String("image_path", "", "path to directory containing images (required)")
	layerNamesFlag := flag.String("layer_names", "", "layer names separated by commas, first must be the classification layer (required)")
	preprocFunc := flag.String("preproc_func", "", "force the image preprocessing function (default: auto-selected)")
	batchSize := flag.Int("batch_size", cfg.Run.BatchSize, "batch size")
	numClasses := flag.Int("num_classes", cfg.Run.NumClasses, "number of classes (1000 or 1001)")
	labelsPath := flag.String("labels", "", "path to the label vocabulary file, one name per line")
	inputMode := flag.String("input_mode", cfg.Run.InputMode, "feeding strategy: queue, placeholder or both")
	outDir := flag.String("out_dir", cfg.Present.OutDir, "directory to save displayed images into")
	serveAddr := flag.String("serve", cfg.Present.ServeAddr, "address to serve the result gallery on, e.g. 127.0.0.1:8080")
	flag.Parse()

	if err := utils.InitLogger(cfg.Run.Mode); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer utils.Sync()
	log := utils.Logger

	if *network == "" || *checkpoint == "" || *imagePath == "" || *layerNamesFlag == "" {
		flag.Usage()
		log.Fatal("missing required flags: -network, -checkpoint, -image_path, -layer_names")
	}
	layerNames := strings.Split(*layerNamesFlag, ",")

	timings := &models.RunTimings{RunID: utils.RunID()}
	startTotal := time.Now()

	log.Info("starting classification run",
		zap.String("run_id", timings.RunID),
		zap.String("network", *network),
		zap.String("checkpoint", *checkpoint),
		zap.Int("batch_size", *batchSize),
		zap.Int("num_classes", *numClasses),
		zap.Strings("layer_names", layerNames))

	if cfg.Backend.LibraryPath != "" {
		ort.SetSharedLibraryPath(cfg.Backend.LibraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		log.Fatal("failed to initialize ONNX environment", zap.Error(err))
	}
	defer ort.DestroyEnvironment()

	backend, err := extractor.NewONNX(extractor.Config{
		Network:     *network,
		Checkpoint:  *checkpoint,
		BatchSize:   *batchSize,
		NumClasses:  *numClasses,
		PreprocFunc: *preprocFunc,
		ImageSize:   cfg.Backend.ImageSize,
	})
	if err != nil {
		log.Fatal("failed to initialize feature extractor", zap.Error(err))
	}
	defer backend.Destroy()

	fmt.Print(backend.Summary())

	resolveStart := time.Now()
	files, err := imageset.Resolve(*imagePath, cfg.Run.Extensions)
	timings.Resolve = time.Since(resolveStart)
	if err != nil {
		log.Fatal("failed to resolve image directory", zap.Error(err))
	}
	log.Info("resolved images", zap.Int("count", len(files)), zap.String("dir", *imagePath))

	var vocab *labels.Vocabulary
	if *labelsPath != "" {
		vocab, err = labels.Load(*labelsPath)
		if err != nil {
			log.Warn("labels unavailable, falling back to numeric classes", zap.Error(err))
		}
	}

	console := &present.Console{Logger: log, OutDir: *outDir}
	gallery := present.NewGallery(backend.Metrics)

	run := func(name string, strategy classify.Strategy) ([]models.Prediction, time.Duration) {
		start := time.Now()
		predictions, err := strategy.Run(backend, files, layerNames)
		elapsed := time.Since(start)
		if err != nil {
			if errors.Is(err, models.ErrNotEnoughImages) {
				log.Fatal("not enough images for one batch",
					zap.String("strategy", name), zap.Error(err))
			}
			log.Fatal("strategy failed", zap.String("strategy", name), zap.Error(err))
		}
		log.Info("strategy finished", zap.String("strategy", name),
			zap.Int("predictions", len(predictions)), zap.Duration("elapsed", elapsed))
		return predictions, elapsed
	}

	var predictions []models.Prediction
	switch *inputMode {
	case "queue":
		predictions, timings.QueueRun = run("queue", &classify.QueueStrategy{Vocab: vocab})
	case "placeholder":
		predictions, timings.PlaceholderRun = run("placeholder", &classify.PlaceholderStrategy{Vocab: vocab})
	case "both":
		// The queue path first, then the placeholder path over the same
		// files; the gallery keeps the last batch.
		console.Prefix = "placeholder_"
		queued, queueElapsed := run("queue", &classify.QueueStrategy{Vocab: vocab})
		timings.QueueRun = queueElapsed
		queueConsole := &present.Console{Logger: log, OutDir: *outDir, Prefix: "queue_"}
		if err := queueConsole.Present(queued); err != nil {
			log.Fatal("failed to present queue results", zap.Error(err))
		}
		predictions, timings.PlaceholderRun = run("placeholder", &classify.PlaceholderStrategy{Vocab: vocab})
	default:
		log.Fatal("unknown input mode", zap.String("input_mode", *inputMode))
	}

	presentStart := time.Now()
	if err := console.Present(predictions); err != nil {
		log.Fatal("failed to present results", zap.Error(err))
	}
	gallery.Present(predictions)
	timings.Present = time.Since(presentStart)
	timings.Total = time.Since(startTotal)

	logTimings(log, timings)

	if *serveAddr != "" {
		log.Info("serving result gallery", zap.String("addr", *serveAddr))
		if err := gallery.Serve(*serveAddr); err != nil {
			log.Fatal("gallery server failed", zap.Error(err))
		}
	}
}

func logTimings(log *zap.Logger, t *models.RunTimings) {
	log.Debug("run timings",
		zap.String("run_id", t.RunID),
		zap.Duration("resolve", t.Resolve),
		zap.Duration("queue_run", t.QueueRun),
		zap.Duration("placeholder_run", t.PlaceholderRun),
		zap.Duration("present", t.Present),
		zap.Duration("total", t.Total))
}
