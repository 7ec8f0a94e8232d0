package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Image-API Metrics
var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "resize",
			Subsystem: "image_api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "resize",
			Subsystem: "image_api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"method", "endpoint"},
	)

	// Upload counters
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "resize",
			Subsystem: "image_api",
			Name:      "uploads_total",
			Help:      "Total origin image uploads",
		},
		[]string{"status"},
	)

	// Upload bytes counter
	UploadBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "resize",
			Subsystem: "image_api",
			Name:      "upload_bytes_total",
			Help:      "Total bytes uploaded",
		},
	)

	// Resize counters
	ResizesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "resize",
			Subsystem: "image_api",
			Name:      "resizes_total",
			Help:      "Total resize operations",
		},
		[]string{"status"},
	)

	// Resize duration
	ResizeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "resize",
			Subsystem: "image_api",
			Name:      "resize_duration_seconds",
			Help:      "Resize operation duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
	)

	// Blob storage operations counter
	StorageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "resize",
			Subsystem: "image_api",
			Name:      "storage_operations_total",
			Help:      "Total blob storage operations",
		},
		[]string{"operation", "status"},
	)
)

// RecordRequest records an HTTP request
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(durationSec)
}

// RecordUpload records an origin upload
func RecordUpload(status string, bytes int64) {
	UploadsTotal.WithLabelValues(status).Inc()
	if status == "success" {
		UploadBytesTotal.Add(float64(bytes))
	}
}

// RecordResize records a resize operation
func RecordResize(status string, durationSec float64) {
	ResizesTotal.WithLabelValues(status).Inc()
	ResizeDuration.Observe(durationSec)
}

// RecordStorageOperation records a blob storage operation
func RecordStorageOperation(operation, status string) {
	StorageOperationsTotal.WithLabelValues(operation, status).Inc()
}
