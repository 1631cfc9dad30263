// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package kafka consumes a Kafka topic with the flow-controlled engine from the
// [github.com/z5labs/tamed/queue] package, using the franz-go client library.
//
// # Architecture
//
// A [Source] joins a consumer group and polls records for a single topic. Each
// record is handed to the engine on its own. On arrival the engine pauses the
// Source, which stops fetching the topic and holds back any records it already
// polled, and resumes it once the pending messages have been handled.
//
// Every message goes through the engine's process, retry and recycle lifecycle.
// Once a message reached its terminal outcome its offset is marked and committed
// with the next autocommit. Messages interrupted by shutdown are not marked, so
// they are redelivered when the consumer group rebalances or restarts.
//
// # Configuration
//
// Infrastructure settings are [config.Reader]s. Environment based readers are
// provided for the common settings:
//
//   - KAFKA_BROKERS: comma-separated broker addresses, see [BrokersFromEnv]
//   - KAFKA_GROUP_ID: consumer group, see [GroupIDFromEnv]
//   - KAFKA_TOPIC: topic to consume, see [TopicFromEnv]
//   - TAMED_CONCURRENCY: messages handled at once, see [ConcurrencyFromEnv]
//   - TAMED_RETRY_TIMES: attempts per message, see [RetryTimesFromEnv]
//   - TAMED_RETRY_INTERVAL: delay between attempts, see [RetryIntervalFromEnv]
//
// New consumer groups start from the earliest available offset.
//
// # Example
//
//	func main() {
//	    cfg := kafka.Config{
//	        Brokers:       kafka.BrokersFromEnv(),
//	        GroupID:       kafka.GroupIDFromEnv(),
//	        Topic:         kafka.TopicFromEnv(),
//	        Concurrency:   kafka.ConcurrencyFromEnv(),
//	        RetryTimes:    kafka.RetryTimesFromEnv(),
//	        RetryInterval: kafka.RetryIntervalFromEnv(),
//	        Processor:     queue.ProcessorFunc[kafka.Message](handleOrder),
//	        Recycler:      queue.ProcessorFunc[kafka.Message](recycleOrder),
//	    }
//
//	    err := app.Run(context.Background(), kafka.Build(cfg))
//	    if err != nil {
//	        app.LogError(slog.NewJSONHandler(os.Stderr, nil), err)
//	        os.Exit(1)
//	    }
//	}
//
// # Observability
//
// The franz-go client is instrumented with kotel for tracing and metrics and logs
// through kslog. The Source records delivered messages, marked offsets and fetch
// errors as OpenTelemetry metrics.
package kafka
