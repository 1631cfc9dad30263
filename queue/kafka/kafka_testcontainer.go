//go:build testcontainers

// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

// startKafka starts a single node KRaft cluster reachable on localhost:9092.
// The container is terminated when the test completes.
func startKafka(t *testing.T) []string {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image: "docker.io/apache/kafka-native:latest",
		HostConfigModifier: func(hc *container.HostConfig) {
			hc.NetworkMode = "host"
		},
		User: "root",
		Env: map[string]string{
			"KAFKA_NODE_ID":                        "1",
			"KAFKA_PROCESS_ROLES":                  "broker,controller",
			"KAFKA_CONTROLLER_QUORUM_VOTERS":       "1@localhost:9093",
			"KAFKA_CONTROLLER_LISTENER_NAMES":      "CONTROLLER",
			"KAFKA_LISTENERS":                      "PLAINTEXT://0.0.0.0:9092,CONTROLLER://0.0.0.0:9093",
			"KAFKA_ADVERTISED_LISTENERS":           "PLAINTEXT://localhost:9092",
			"KAFKA_LISTENER_SECURITY_PROTOCOL_MAP": "PLAINTEXT:PLAINTEXT,CONTROLLER:PLAINTEXT",
			"KAFKA_INTER_BROKER_LISTENER_NAME":     "PLAINTEXT",
			"KAFKA_LOG_DIRS":                       "/var/lib/kafka/data",
			"KAFKA_CLUSTER_ID":                     "WmV3pZkQR0O6n5j3x8j6bg==",

			"KAFKA_OFFSETS_TOPIC_REPLICATION_FACTOR":         "1",
			"KAFKA_TRANSACTION_STATE_LOG_REPLICATION_FACTOR": "1",
			"KAFKA_TRANSACTION_STATE_LOG_MIN_ISR":            "1",
			"KAFKA_GROUP_INITIAL_REBALANCE_DELAY_MS":         "0",
			"KAFKA_AUTO_CREATE_TOPICS_ENABLE":                "false",
		},
		WaitingFor: wait.ForLog("Kafka Server started").WithStartupTimeout(60 * time.Second),
	}

	kafkaContainer, err := testcontainers.GenericContainer(t.Context(), testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "failed to start Kafka container")

	t.Cleanup(func() {
		err := kafkaContainer.Terminate(context.Background())
		if err != nil {
			t.Logf("failed to terminate Kafka container: %v", err)
		}
	})

	return []string{"localhost:9092"}
}

// newAdmin returns an admin client which is closed when the test completes.
func newAdmin(t *testing.T, brokers []string) *kadm.Client {
	t.Helper()

	client, err := kgo.NewClient(kgo.SeedBrokers(brokers...))
	require.NoError(t, err, "failed to create Kafka client")
	t.Cleanup(client.Close)

	return kadm.NewClient(client)
}

// createTopic creates topic with a single replica per partition.
func createTopic(t *testing.T, admin *kadm.Client, topic string, partitions int32) {
	t.Helper()

	resp, err := admin.CreateTopics(t.Context(), partitions, 1, nil, topic)
	require.NoError(t, err, "failed to create topic")
	for _, topicResp := range resp {
		require.NoError(t, topicResp.Err, "failed to create topic %s", topic)
	}
}

// produce synchronously writes a record per value, keyed by its index.
func produce(t *testing.T, brokers []string, topic string, values ...string) {
	t.Helper()

	client, err := kgo.NewClient(kgo.SeedBrokers(brokers...))
	require.NoError(t, err, "failed to create Kafka client")
	defer client.Close()

	records := make([]*kgo.Record, len(values))
	for i, value := range values {
		records[i] = &kgo.Record{
			Topic: topic,
			Key:   []byte(value),
			Value: []byte(value),
		}
	}

	err = client.ProduceSync(t.Context(), records...).FirstErr()
	require.NoError(t, err, "failed to produce records")
}
