package present

import (
	"encoding/json"
	"fmt"
	"image/png"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/nfnt/resize"

	"github.com/kucinghitam13/TF-FeatureExtraction/extractor"
	"github.com/kucinghitam13/TF-FeatureExtraction/models"
)

const DefaultThumbnailWidth = 128

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Gallery serves the run's predictions over HTTP: the decoded classes as
// JSON, each displayed image as PNG (full size or thumbnail), and the
// backend queue counters.
type Gallery struct {
	mu             sync.RWMutex
	predictions    []models.Prediction
	metrics        func() extractor.QueueMetricsSnapshot
	ThumbnailWidth uint
}

func NewGallery(metrics func() extractor.QueueMetricsSnapshot) *Gallery {
	return &Gallery{
		metrics:        metrics,
		ThumbnailWidth: DefaultThumbnailWidth,
	}
}

// Present stores the predictions for serving. Safe to call again with a
// later batch; the gallery always shows the most recent one.
func (g *Gallery) Present(predictions []models.Prediction) error {
	g.mu.Lock()
	g.predictions = predictions
	g.mu.Unlock()
	return nil
}

func (g *Gallery) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/predictions", g.handlePredictions).Methods("GET")
	r.HandleFunc("/images/{index}", g.handleImage).Methods("GET")
	r.HandleFunc("/images/{index}/thumb", g.handleThumbnail).Methods("GET")
	r.HandleFunc("/metrics", g.handleMetrics).Methods("GET")
	return r
}

// Serve blocks on ListenAndServe.
func (g *Gallery) Serve(addr string) error {
	srv := &http.Server{
		Handler:      g.Router(),
		Addr:         addr,
		WriteTimeout: 60 * time.Second,
		ReadTimeout:  60 * time.Second,
	}
	return srv.ListenAndServe()
}

func (g *Gallery) handlePredictions(w http.ResponseWriter, _ *http.Request) {
	g.mu.RLock()
	predictions := g.predictions
	g.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(predictions)
}

func (g *Gallery) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if g.metrics == nil {
		json.NewEncoder(w).Encode(extractor.QueueMetricsSnapshot{})
		return
	}
	json.NewEncoder(w).Encode(g.metrics())
}

func (g *Gallery) handleImage(w http.ResponseWriter, r *http.Request) {
	pred, ok := g.lookup(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, pred.Image); err != nil {
		sendErrorResponse(w, "encode_error", err.Error(), http.StatusInternalServerError)
	}
}

func (g *Gallery) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	pred, ok := g.lookup(w, r)
	if !ok {
		return
	}
	thumb := resize.Resize(g.ThumbnailWidth, 0, pred.Image, resize.Lanczos3)
	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, thumb); err != nil {
		sendErrorResponse(w, "encode_error", err.Error(), http.StatusInternalServerError)
	}
}

func (g *Gallery) lookup(w http.ResponseWriter, r *http.Request) (models.Prediction, bool) {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		sendErrorResponse(w, "invalid_index", "index must be an integer", http.StatusBadRequest)
		return models.Prediction{}, false
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	if index < 0 || index >= len(g.predictions) {
		sendErrorResponse(w, "not_found",
			fmt.Sprintf("no prediction at index %d", index), http.StatusNotFound)
		return models.Prediction{}, false
	}
	pred := g.predictions[index]
	if pred.Image == nil {
		sendErrorResponse(w, "not_found", "prediction has no image", http.StatusNotFound)
		return models.Prediction{}, false
	}
	return pred, true
}

func sendErrorResponse(w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Code: code, Message: message})
}
