// Package analysis runs pitch analysis end to end: it opens an audio source,
// feeds its chunks through the pipeline and delivers note events to the
// configured outputs until the input ends or the context is cancelled.
package analysis

import (
	"context"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tphakala/pitchtrack/internal/audiocore"
	"github.com/tphakala/pitchtrack/internal/conf"
	"github.com/tphakala/pitchtrack/internal/cpuspec"
	"github.com/tphakala/pitchtrack/internal/errors"
	"github.com/tphakala/pitchtrack/internal/logger"
	"github.com/tphakala/pitchtrack/internal/mqtt"
	"github.com/tphakala/pitchtrack/internal/notes"
	"github.com/tphakala/pitchtrack/internal/observability"
	"github.com/tphakala/pitchtrack/internal/observability/metrics"
	"github.com/tphakala/pitchtrack/internal/pipeline"
	"github.com/tphakala/pitchtrack/internal/pitch"
	"github.com/tphakala/pitchtrack/internal/report"
)

// ComponentAnalysis identifies errors raised by this package
const ComponentAnalysis = "analysis"

const (
	// mqttConnectTimeout bounds the initial broker connection.
	mqttConnectTimeout = 15 * time.Second
	sentryFlushTimeout = 2 * time.Second
)

// Summary describes a finished analysis run.
type Summary struct {
	Format   audiocore.Format
	Windows  uint64
	Events   uint64
	Duration time.Duration
}

// Options carries the collaborators of a run that are not part of Settings.
type Options struct {
	Output     io.Writer              // destination of console events
	Metrics    *observability.Metrics // created from settings when nil and telemetry is enabled
	MQTTClient mqtt.Client            // overrides the client built from settings
}

// Run analyses source until it ends or ctx is cancelled.
func Run(ctx context.Context, settings *conf.Settings, source audiocore.Source, opts Options) (Summary, error) {
	log := getLogger()
	start := time.Now()

	spec := cpuspec.GetCPUSpec()
	log.Debug("host cpu",
		logger.String("brand", spec.BrandName),
		logger.String("arch", spec.Arch),
		logger.Int("cores", spec.LogicalCores),
		logger.String("vector", spec.BestVectorExtension()))

	reporting, err := observability.InitSentry(settings)
	if err != nil {
		return Summary{}, err
	}
	if reporting {
		observability.InstallSentryHook()
		defer observability.FlushSentry(sentryFlushTimeout)
	}

	m := opts.Metrics
	if m == nil && settings.Telemetry.Enabled {
		if m, err = observability.NewMetrics(); err != nil {
			return Summary{}, err
		}
		m.InstallErrorHook()
	}
	var pitchMetrics *metrics.PitchMetrics
	var mqttMetrics *metrics.MQTTMetrics
	if m != nil {
		pitchMetrics = m.Pitch
		mqttMetrics = m.MQTT
	}

	format, err := source.Open()
	if err != nil {
		return Summary{}, err
	}
	defer func() {
		if err := source.Stop(); err != nil {
			log.Warn("failed to stop audio source", logger.Error(err))
		}
	}()
	log.Info("audio input ready",
		logger.String("source", source.Name()),
		logger.String("format", format.String()))

	outputs, err := newOutputs(ctx, settings, opts, mqttMetrics, pitchMetrics)
	if err != nil {
		return Summary{Format: format}, err
	}
	defer outputs.Close()

	p, err := newPipeline(settings, format.SampleRate, outputs.Sink(), pitchMetrics)
	if err != nil {
		return Summary{Format: format}, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	if settings.Telemetry.Enabled {
		endpoint, err := observability.NewEndpoint(settings, m)
		if err != nil {
			return Summary{Format: format}, err
		}
		g.Go(func() error { return endpoint.Run(gctx) })
	}

	if err := source.Start(gctx, p.Process); err != nil {
		cancel()
		_ = g.Wait()
		return Summary{Format: format}, err
	}

	g.Go(func() error {
		defer cancel()
		for {
			select {
			case err := <-source.Errors():
				log.Warn("audio stream error", logger.Error(err))
				pitchMetrics.RecordStreamError()
			case <-source.Done():
				log.Debug("audio input ended")
				return nil
			case <-gctx.Done():
				return nil
			}
		}
	})

	err = g.Wait()

	// no more Process calls once the source is stopped
	if stopErr := source.Stop(); stopErr != nil {
		log.Warn("failed to stop audio source", logger.Error(stopErr))
	}
	p.Close()

	return Summary{
		Format:   format,
		Windows:  p.Windows(),
		Events:   p.Events(),
		Duration: time.Since(start),
	}, err
}

// newPipeline builds the estimator, mapper and pipeline from settings.
func newPipeline(settings *conf.Settings, sampleRate int, sink pipeline.Sink, m *metrics.PitchMetrics) (*pipeline.Pipeline, error) {
	estimator, err := pitch.NewEstimator(pitch.Config{
		WindowSize:       settings.Pitch.WindowSize,
		PowerThreshold:   settings.Pitch.PowerThreshold,
		ClarityThreshold: settings.Pitch.ClarityThreshold,
		PeakCutoff:       settings.Pitch.PeakCutoff,
	}, sampleRate)
	if err != nil {
		return nil, err
	}

	tuning, err := notes.NewTuning(settings.Tuning.A4)
	if err != nil {
		return nil, err
	}

	return pipeline.New(estimator, notes.NewMapper(tuning), sink,
		pipeline.WithOverlap(settings.Pitch.Overlap),
		pipeline.WithMetrics(m))
}

// outputs owns the event sinks of a run.
type outputs struct {
	sinks   []pipeline.Sink
	closers []func()
}

func newOutputs(ctx context.Context, settings *conf.Settings, opts Options, mqttMetrics *metrics.MQTTMetrics, pitchMetrics *metrics.PitchMetrics) (*outputs, error) {
	o := &outputs{}

	if settings.Output.Console.Enabled && opts.Output != nil {
		format, err := report.ParseFormat(settings.Output.Console.Format)
		if err != nil {
			return nil, err
		}
		console := report.NewConsoleSink(opts.Output, format, settings.Output.Console.QueueSize, pitchMetrics)
		o.add(console, console.Close)
	}

	if settings.Output.MQTT.Enabled {
		client := opts.MQTTClient
		if client == nil {
			var err error
			client, err = mqtt.NewClient(mqtt.ConfigFromSettings(&settings.Output.MQTT), mqttMetrics)
			if err != nil {
				o.Close()
				return nil, err
			}
		}

		connectCtx, cancel := context.WithTimeout(ctx, mqttConnectTimeout)
		err := client.Connect(connectCtx)
		cancel()
		if err != nil {
			o.Close()
			return nil, errors.New(err).
				Component(ComponentAnalysis).
				Category(errors.CategoryMQTTConnect).
				Context("broker", settings.Output.MQTT.Broker).
				Build()
		}

		sink := report.NewMQTTSink(client, settings.Output.MQTT.Topic, settings.Output.MQTT.QueueSize, pitchMetrics)
		o.add(sink, func() {
			sink.Close()
			client.Disconnect()
		})
		getLogger().Info("publishing note events to MQTT",
			logger.String("broker", settings.Output.MQTT.Broker),
			logger.String("topic", settings.Output.MQTT.Topic))
	}

	return o, nil
}

func (o *outputs) add(sink pipeline.Sink, closer func()) {
	o.sinks = append(o.sinks, sink)
	o.closers = append(o.closers, closer)
}

// Sink returns a sink delivering to every output.
func (o *outputs) Sink() pipeline.Sink {
	return report.Multi(o.sinks...)
}

// Close flushes and stops every output in creation order. It is idempotent.
func (o *outputs) Close() {
	for _, c := range o.closers {
		c()
	}
	o.closers = nil
}
