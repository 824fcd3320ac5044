package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Conversion metrics
	framesInputTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cadence_frames_input_total",
		Help: "Total input frames accepted into the conversion window",
	})

	framesOutputTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cadence_frames_output_total",
		Help: "Total output frames emitted, by synthesis kind",
	}, []string{"kind"}) // clone or blend

	framesDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cadence_frames_dropped_total",
		Help: "Total input frames dropped, by reason",
	}, []string{"reason"})

	sceneChangesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cadence_scene_changes_total",
		Help: "Total window pairs where blending was suppressed by scene detection",
	})

	windowResetsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cadence_window_resets_total",
		Help: "Total sliding window resets caused by timestamp discontinuities",
	})

	blendDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cadence_blend_duration_seconds",
		Help:    "Duration of a single frame blend",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12), // 100µs to ~400ms
	})

	sceneScore = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cadence_scene_score",
		Help: "Most recent scene change score for the active window pair",
	})

	// Frame pool metrics
	poolAllocatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cadence_frame_pool_allocated_total",
		Help: "Total frame buffers newly allocated by the pool",
	})

	poolReusedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cadence_frame_pool_reused_total",
		Help: "Total frame buffers recycled from the pool free list",
	})

	poolFreeBuffers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cadence_frame_pool_free_buffers",
		Help: "Frame buffers currently held on the pool free list",
	})
)

// IncFramesInput counts an accepted input frame.
func IncFramesInput() {
	framesInputTotal.Inc()
}

// IncFramesOutput counts an emitted output frame by synthesis kind
// ("clone" or "blend").
func IncFramesOutput(kind string) {
	framesOutputTotal.WithLabelValues(kind).Inc()
}

// IncFramesDropped counts a dropped input frame by reason.
func IncFramesDropped(reason string) {
	framesDroppedTotal.WithLabelValues(reason).Inc()
}

// IncSceneChanges counts a blend suppressed by the scene gate.
func IncSceneChanges() {
	sceneChangesTotal.Inc()
}

// IncWindowResets counts a discontinuity-driven window reset.
func IncWindowResets() {
	windowResetsTotal.Inc()
}

// ObserveBlendDuration records the wall time of one blend.
func ObserveBlendDuration(seconds float64) {
	blendDuration.Observe(seconds)
}

// SetSceneScore publishes the latest scene change score.
func SetSceneScore(score float64) {
	sceneScore.Set(score)
}

// IncPoolAllocated counts a fresh buffer allocation.
func IncPoolAllocated() {
	poolAllocatedTotal.Inc()
}

// IncPoolReused counts a recycled buffer.
func IncPoolReused() {
	poolReusedTotal.Inc()
}

// SetPoolFree publishes the pool free list depth.
func SetPoolFree(n int) {
	poolFreeBuffers.Set(float64(n))
}
