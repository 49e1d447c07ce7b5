package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kinstretch_jobs_processed_total",
		Help: "Total number of ingestion jobs finished, by terminal status",
	}, []string{"status"})

	JobProcessingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kinstretch_job_processing_duration_seconds",
		Help:    "Duration of batch ingestion pipeline stages",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"stage"})

	FramesExtractedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kinstretch_frames_extracted_total",
		Help: "Total number of pose frames extracted by the batch pipeline",
	})

	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kinstretch_active_workers",
		Help: "Number of currently running batch orchestrations",
	})

	StreamFramesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kinstretch_stream_frames_received_total",
		Help: "Total pose_frame messages received over live sessions",
	})

	StreamFlushesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kinstretch_stream_flushes_total",
		Help: "Total live-session buffer flushes persisted",
	})
)
