// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/z5labs/tamed/app"
	"github.com/z5labs/tamed/config"
	"github.com/z5labs/tamed/queue"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kotel"
	"github.com/twmb/franz-go/plugin/kslog"
	"go.opentelemetry.io/otel"
)

var (
	// ErrMissingBrokers is returned by [Build] when no broker address is configured.
	ErrMissingBrokers = errors.New("kafka: at least one broker must be configured")

	// ErrMissingGroupID is returned by [Build] when no consumer group is configured.
	ErrMissingGroupID = errors.New("kafka: consumer group id must be configured")

	// ErrMissingTopic is returned by [Build] when no topic is configured.
	ErrMissingTopic = errors.New("kafka: topic must be configured")

	// ErrMissingProcessor is returned by [Build] when no message processor is configured.
	ErrMissingProcessor = errors.New("kafka: processor must be configured")
)

// Config holds everything needed to consume a topic with the engine.
//
// Infrastructure settings are [config.Reader]s so they can be composed from
// environment variables, files or static values. Only Brokers, GroupID, Topic
// and Processor are required.
type Config struct {
	Brokers        config.Reader[[]string]
	GroupID        config.Reader[string]
	Topic          config.Reader[string]
	ClientID       config.Reader[string]
	SessionTimeout config.Reader[time.Duration]
	FetchMaxBytes  config.Reader[int32]
	Concurrency    config.Reader[int]
	RetryTimes     config.Reader[int]
	RetryInterval  config.Reader[time.Duration]

	// Processor is the primary message handler.
	Processor queue.Processor[Message]

	// Recycler receives messages the Processor failed to handle.
	Recycler queue.Processor[Message]

	// Logger defaults to a logger backed by the global OpenTelemetry LoggerProvider.
	Logger *slog.Logger

	// Flow defaults to [queue.PauseUntilDrained].
	Flow queue.FlowStrategy
}

// BrokersFromEnv reads Kafka broker addresses from the KAFKA_BROKERS environment variable.
// Brokers should be comma-separated (e.g., "localhost:9092,localhost:9093").
func BrokersFromEnv() config.Reader[[]string] {
	return config.Map(
		config.Env("KAFKA_BROKERS"),
		func(ctx context.Context, s string) ([]string, error) {
			var brokers []string
			for broker := range strings.SplitSeq(s, ",") {
				broker = strings.TrimSpace(broker)
				if broker == "" {
					continue
				}
				brokers = append(brokers, broker)
			}
			return brokers, nil
		},
	)
}

// GroupIDFromEnv reads the Kafka consumer group ID from the KAFKA_GROUP_ID environment variable.
func GroupIDFromEnv() config.Reader[string] {
	return config.Env("KAFKA_GROUP_ID")
}

// TopicFromEnv reads the topic to consume from the KAFKA_TOPIC environment variable.
func TopicFromEnv() config.Reader[string] {
	return config.Env("KAFKA_TOPIC")
}

// ConcurrencyFromEnv reads the maximum number of messages handled at once
// from the TAMED_CONCURRENCY environment variable.
func ConcurrencyFromEnv() config.Reader[int] {
	return config.IntFromString(config.Env("TAMED_CONCURRENCY"))
}

// RetryTimesFromEnv reads the number of processing attempts per message
// from the TAMED_RETRY_TIMES environment variable.
func RetryTimesFromEnv() config.Reader[int] {
	return config.IntFromString(config.Env("TAMED_RETRY_TIMES"))
}

// RetryIntervalFromEnv reads the delay between processing attempts from the
// TAMED_RETRY_INTERVAL environment variable. The value should be a duration
// string (e.g., "500ms", "2s").
func RetryIntervalFromEnv() config.Reader[time.Duration] {
	return config.DurationFromString(config.Env("TAMED_RETRY_INTERVAL"))
}

type settings struct {
	brokers        []string
	groupID        string
	topic          string
	clientID       string
	sessionTimeout time.Duration
	fetchMaxBytes  int32
	concurrency    int
	retry          queue.RetryPolicy
}

func readRequired[T any](ctx context.Context, r config.Reader[T], missing error) (T, error) {
	v, err := config.Read(ctx, r)
	if errors.Is(err, config.ErrValueNotSet) {
		return v, missing
	}
	if err != nil {
		return v, fmt.Errorf("%w: %w", missing, err)
	}
	return v, nil
}

func (cfg Config) read(ctx context.Context) (settings, error) {
	var s settings
	var err error

	s.brokers, err = readRequired(ctx, cfg.Brokers, ErrMissingBrokers)
	if err != nil {
		return s, err
	}
	if len(s.brokers) == 0 {
		return s, ErrMissingBrokers
	}

	s.groupID, err = readRequired(ctx, cfg.GroupID, ErrMissingGroupID)
	if err != nil {
		return s, err
	}

	s.topic, err = readRequired(ctx, cfg.Topic, ErrMissingTopic)
	if err != nil {
		return s, err
	}

	if cfg.Processor == nil {
		return s, ErrMissingProcessor
	}

	s.clientID, err = config.ReadOr(ctx, "tamed-"+uuid.NewString(), cfg.ClientID)
	if err != nil {
		return s, fmt.Errorf("kafka: failed to read client id: %w", err)
	}

	s.sessionTimeout, err = config.ReadOr(ctx, 45*time.Second, cfg.SessionTimeout)
	if err != nil {
		return s, fmt.Errorf("kafka: failed to read session timeout: %w", err)
	}

	s.fetchMaxBytes, err = config.ReadOr(ctx, int32(50*1024*1024), cfg.FetchMaxBytes)
	if err != nil {
		return s, fmt.Errorf("kafka: failed to read fetch max bytes: %w", err)
	}

	s.concurrency, err = config.ReadOr(ctx, 1, cfg.Concurrency)
	if err != nil {
		return s, fmt.Errorf("kafka: failed to read concurrency: %w", err)
	}

	def := queue.DefaultRetryPolicy()
	s.retry.MaxAttempts, err = config.ReadOr(ctx, def.MaxAttempts, cfg.RetryTimes)
	if err != nil {
		return s, fmt.Errorf("kafka: failed to read retry times: %w", err)
	}

	s.retry.Interval, err = config.ReadOr(ctx, def.Interval, cfg.RetryInterval)
	if err != nil {
		return s, fmt.Errorf("kafka: failed to read retry interval: %w", err)
	}

	return s, nil
}

func logPartitions(log *slog.Logger, msg string) func(context.Context, *kgo.Client, map[string][]int32) {
	return func(ctx context.Context, _ *kgo.Client, partitions map[string][]int32) {
		for topic, ps := range partitions {
			for _, partition := range ps {
				log.InfoContext(ctx, msg, TopicAttr(topic), PartitionAttr(partition))
			}
		}
	}
}

// Build creates an [app.Builder] for an engine consuming a single Kafka topic.
//
// Required settings are validated before any connection to Kafka is made.
// Offsets of handled messages are committed periodically and once more when
// the engine stops, before the client is closed.
//
// Example:
//
//	cfg := kafka.Config{
//	    Brokers:   kafka.BrokersFromEnv(),
//	    GroupID:   kafka.GroupIDFromEnv(),
//	    Topic:     kafka.TopicFromEnv(),
//	    Processor: ordersProcessor,
//	    Recycler:  deadLetterProducer,
//	}
//
//	err := app.Run(ctx, kafka.Build(cfg))
func Build(cfg Config) app.Builder[app.Runtime] {
	return app.WithHooks(func(ctx context.Context, hooks *app.HookRegistry) (*queue.Engine[Message], error) {
		s, err := cfg.read(ctx)
		if err != nil {
			return nil, err
		}

		log := cfg.Logger
		if log == nil {
			log = logger()
		}
		log = log.With(GroupIDAttr(s.groupID), TopicAttr(s.topic))

		qcfg := queue.Config[Message]{
			Processor:    cfg.Processor,
			Recycler:     cfg.Recycler,
			Concurrency:  s.concurrency,
			Retry:        s.retry,
			Logger:       log,
			Flow:         cfg.Flow,
			MessageAttrs: MessageAttrs,
		}
		err = qcfg.Validate()
		if err != nil {
			return nil, err
		}

		log.InfoContext(
			ctx,
			"setting up kafka consumer",
			slog.Any("messaging.kafka.brokers", s.brokers),
			ClientIDAttr(s.clientID),
			queue.ConcurrencyAttr(s.concurrency),
		)

		metrics, err := newMetricsRecorder()
		if err != nil {
			return nil, fmt.Errorf("kafka: failed to create metrics: %w", err)
		}

		client, err := kgo.NewClient(
			kgo.WithLogger(kslog.New(clientLogger())),
			kgo.WithHooks(
				kotel.NewTracer(
					kotel.TracerProvider(otel.GetTracerProvider()),
					kotel.TracerPropagator(otel.GetTextMapPropagator()),
					kotel.LinkSpans(),
					kotel.ConsumerGroup(s.groupID),
				),
				kotel.NewMeter(
					kotel.MeterProvider(otel.GetMeterProvider()),
					kotel.WithMergedConnectsMeter(),
				),
			),
			kgo.SeedBrokers(s.brokers...),
			kgo.ClientID(s.clientID),
			kgo.ConsumerGroup(s.groupID),
			kgo.ConsumeTopics(s.topic),
			kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
			kgo.Balancers(kgo.CooperativeStickyBalancer()),
			kgo.SessionTimeout(s.sessionTimeout),
			kgo.FetchMaxBytes(s.fetchMaxBytes),
			kgo.AutoCommitMarks(),
			kgo.OnPartitionsAssigned(logPartitions(log, "topic partition assigned")),
			kgo.OnPartitionsRevoked(logPartitions(log, "topic partition revoked")),
			kgo.OnPartitionsLost(logPartitions(log, "topic partition lost")),
		)
		if err != nil {
			return nil, fmt.Errorf("kafka: failed to create client: %w", err)
		}

		src := newSource(log, metrics, client, s.topic, s.concurrency)
		qcfg.OnOutcome = src.acknowledge

		engine, err := queue.NewEngine[Message](src, qcfg)
		if err != nil {
			client.Close()
			return nil, err
		}

		hooks.OnPostRun(func(ctx context.Context) error {
			defer client.Close()

			err := client.CommitMarkedOffsets(ctx)
			if err != nil {
				return fmt.Errorf("kafka: failed to commit marked offsets: %w", err)
			}
			return nil
		})

		return engine, nil
	})
}
