package metrics

import "time"

// Namespace prefixes every metric name exported by pitchtrack.
const Namespace = "pitchtrack"

// Label names shared by several collectors.
const (
	LabelVerdict   = "verdict"
	LabelSink      = "sink"
	LabelComponent = "component"
	LabelCategory  = "category"
)

// Verdict label values, matching the estimator verdict names.
const (
	VerdictAccepted = "accepted"
	VerdictSilent   = "silent"
	VerdictUnclear  = "unclear"
	VerdictNoPeak   = "no_peak"
)

// Verdicts lists every verdict label value.
var Verdicts = []string{VerdictAccepted, VerdictSilent, VerdictUnclear, VerdictNoPeak}

// Sink label values.
const (
	SinkConsole = "console"
	SinkMQTT    = "mqtt"
)

// Histogram bucket configuration for per-window processing time, in seconds.
// A 512 sample window at 44.1 kHz arrives every ~11.6 ms.
const (
	WindowDurationBucketStart  = 0.000005
	WindowDurationBucketFactor = 2
	WindowDurationBucketCount  = 14
)

// Publish latency buckets, in seconds.
const (
	PublishLatencyBucketStart  = 0.001
	PublishLatencyBucketFactor = 2
	PublishLatencyBucketCount  = 10
)

// ShutdownTimeout bounds graceful shutdown of the metrics HTTP server.
const ShutdownTimeout = 5 * time.Second
