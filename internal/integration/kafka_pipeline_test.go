//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	kafkatc "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/storm-data-geomatch/internal/adapter/kafka"
	"github.com/couchcryptid/storm-data-geomatch/internal/config"
	"github.com/couchcryptid/storm-data-geomatch/internal/domain"
	"github.com/couchcryptid/storm-data-geomatch/internal/geo"
	"github.com/couchcryptid/storm-data-geomatch/internal/observability"
	"github.com/couchcryptid/storm-data-geomatch/internal/pipeline"
)

const (
	testSourceTopic = "test-source"
	testSinkTopic   = "test-sink"
)

// startKafka runs a single-node Kafka container and returns its broker address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := kafkatc.Run(ctx, "confluentinc/confluent-local:7.5.0",
		kafkatc.WithClusterID("test-cluster"),
	)
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "resolve kafka brokers")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic via the cluster controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial broker")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "resolve controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "dial controller")
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}), "create topic %s", topic)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// candidateCities is a small fixed candidate set: every fixture event is
// closest to exactly one of these.
var candidateCities = []domain.City{
	{Name: "Oklahoma City", State: "OK", Geo: geo.Point{Lat: 35.4676, Lon: -97.5164}, Population: 681054},
	{Name: "Dallas", State: "TX", Geo: geo.Point{Lat: 32.7767, Lon: -96.7970}, Population: 1304379},
	{Name: "Wichita", State: "KS", Geo: geo.Point{Lat: 37.6872, Lon: -97.3301}, Population: 397532},
}

// fixtureRecords are StormEvents-details shaped records spanning all three
// candidate cities.
var fixtureRecords = []domain.RawEventRecord{
	{
		EventType:      "Hail",
		State:          "OKLAHOMA",
		CZName:         "CLEVELAND",
		BeginDateTime:  "26-APR-24 15:10:00",
		DamageProperty: "25.00K",
		BeginLat:       "35.2226",
		BeginLon:       "-97.4395",
	},
	{
		EventType:      "Tornado",
		State:          "TEXAS",
		CZName:         "TARRANT",
		BeginDateTime:  "26-APR-24 18:45:00",
		DeathsDirect:   "1",
		DamageProperty: "2.5M",
		BeginLat:       "32.70",
		BeginLon:       "-97.35",
		EndLat:         "32.82",
		EndLon:         "-97.31",
	},
	{
		EventType:     "Thunderstorm Wind",
		State:         "KANSAS",
		CZName:        "SEDGWICK",
		BeginDateTime: "26-APR-24 20:05:00",
		BeginLat:      "37.65",
		BeginLon:      "-97.40",
	},
}

// expectedCities maps fixture index to the candidate each record must match.
var expectedCities = map[int]string{0: "Oklahoma City", 1: "Dallas", 2: "Wichita"}

func newTestTransformer(t *testing.T) *pipeline.MatchTransformer {
	t.Helper()
	matcher, err := domain.NewMatcher(candidateCities, domain.MatcherOptions{})
	require.NoError(t, err)
	return pipeline.NewTransformer(matcher, observability.NewMetricsForTesting(), discardLogger())
}

// transformedMessage holds a deserialized message read from the sink topic.
type transformedMessage struct {
	Event   domain.StormEvent
	Key     string
	Headers map[string]string
}

// readTransformed reads a single message from the sink consumer and deserializes it.
func readTransformed(ctx context.Context, t *testing.T, consumer *kafkago.Reader) transformedMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var event domain.StormEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event), "unmarshal sink message")

	return transformedMessage{
		Event:   event,
		Key:     string(msg.Key),
		Headers: headers,
	}
}

// TestKafkaReaderWriter verifies the adapter layer: kafka.Reader and
// kafka.Writer correctly round-trip a message through Kafka.
func TestKafkaReaderWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)

	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       fmt.Sprintf("test-reader-%d", time.Now().UnixNano()),
		BatchFlushInterval: 5 * time.Second,
	}

	payload, err := json.Marshal(fixtureRecords[0])
	require.NoError(t, err)

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	require.NoError(t, producer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte("test-key"),
		Value: payload,
	}))

	// Extract via kafka.Reader.
	// Retry because the consumer group may need time to rebalance before
	// partitions are assigned and messages become available.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	var batch []domain.RawEvent
	for {
		var err error
		batch, err = reader.ExtractBatch(ctx, 1)
		require.NoError(t, err)
		if len(batch) > 0 {
			break
		}
		if ctx.Err() != nil {
			t.Fatal("timed out waiting for message from source topic")
		}
	}
	require.Len(t, batch, 1)
	raw := batch[0]
	assert.Equal(t, []byte("test-key"), raw.Key)
	assert.Equal(t, payload, raw.Value)
	assert.Equal(t, testSourceTopic, raw.Topic)
	require.NotNil(t, raw.Commit, "commit callback should be set")

	require.NoError(t, raw.Commit(ctx))

	// Transform and load via kafka.Writer.
	out, err := newTestTransformer(t).Transform(ctx, raw)
	require.NoError(t, err)

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	require.NoError(t, writer.LoadBatch(ctx, []domain.OutputEvent{out}))

	// Read from the sink topic and verify headers + enrichment.
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	tm := readTransformed(ctx, t, consumer)
	assert.Equal(t, "Hail", tm.Headers["event_type"])
	assert.Contains(t, tm.Headers, "processed_at")
	_, err = time.Parse(time.RFC3339, tm.Headers["processed_at"])
	assert.NoError(t, err, "processed_at should be valid RFC3339")

	assert.Equal(t, "Hail", tm.Event.EventType)
	assert.Equal(t, "OKLAHOMA", tm.Event.State)
	assert.Equal(t, "CLEVELAND", tm.Event.County)
	assert.Equal(t, "Oklahoma City", tm.Event.NearestCity)
	assert.Equal(t, "OK", tm.Event.NearestCityState)
	assert.Equal(t, 681054, tm.Event.NearestCityPopulation)
	assert.Greater(t, tm.Event.NearestCityDistanceM, 0.0)
	assert.Equal(t, tm.Event.ID, tm.Key)
}

// TestPipelineEndToEnd wires the full pipeline (Reader, Transformer, Writer)
// with real Kafka and verifies every record comes out enriched with the right
// nearest city.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)

	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       fmt.Sprintf("test-pipeline-%d", time.Now().UnixNano()),
		BatchFlushInterval: 5 * time.Second,
	}

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	msgs := make([]kafkago.Message, 0, len(fixtureRecords))
	for i, rec := range fixtureRecords {
		payload, err := json.Marshal(rec)
		require.NoError(t, err)
		msgs = append(msgs, kafkago.Message{
			Key:   []byte(fmt.Sprintf("record-%d", i)),
			Value: payload,
		})
	}
	require.NoError(t, producer.WriteMessages(ctx, msgs...))

	// Wire up the pipeline.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(reader, newTestTransformer(t), writer, discardLogger(), metrics, 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	// Read all enriched messages from the sink topic.
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	received := make([]transformedMessage, 0, len(fixtureRecords))
	for len(received) < len(fixtureRecords) {
		received = append(received, readTransformed(ctx, t, consumer))
	}

	pipelineCancel()
	require.NoError(t, <-errCh)

	require.Len(t, received, len(fixtureRecords))
	cityCounts := map[string]int{}
	for _, tm := range received {
		cityCounts[tm.Event.NearestCity]++

		assert.NotEmpty(t, tm.Headers["event_type"], "missing event_type header")
		assert.Contains(t, tm.Headers, "processed_at", "missing processed_at header")
		_, err := time.Parse(time.RFC3339, tm.Headers["processed_at"])
		assert.NoError(t, err, "invalid processed_at format")

		assert.NotEmpty(t, tm.Event.NearestCity, "missing nearest city")
		assert.Greater(t, tm.Event.NearestCityPopulation, 0, "missing nearest city population")
		assert.False(t, tm.Event.ProcessedAt.IsZero(), "missing processed_at")
	}

	for _, want := range expectedCities {
		assert.Equal(t, 1, cityCounts[want], "events matched to %s", want)
	}

	// Spot-check the tornado record: midpoint of the track, death and damage
	// fields parsed, nearest city Dallas.
	var foundTornado bool
	for _, tm := range received {
		if tm.Event.EventType != "Tornado" {
			continue
		}
		foundTornado = true
		assert.Equal(t, "TEXAS", tm.Event.State)
		assert.Equal(t, "TARRANT", tm.Event.County)
		assert.InDelta(t, 32.76, tm.Event.Geo.Lat, 1e-9)
		assert.InDelta(t, -97.33, tm.Event.Geo.Lon, 1e-9)
		assert.Equal(t, 1, tm.Event.Deaths)
		assert.InDelta(t, 2_500_000, tm.Event.DamageUSD, 1e-9)
		assert.Equal(t, "Dallas", tm.Event.NearestCity)
		break
	}
	assert.True(t, foundTornado, "expected to find the Tarrant County tornado record")
}

// TestPipelineTransformError verifies that an invalid message (poison pill) is
// skipped and the pipeline continues processing valid messages.
func TestPipelineTransformError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)

	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       fmt.Sprintf("test-poison-%d", time.Now().UnixNano()),
		BatchFlushInterval: 5 * time.Second,
	}

	validPayload, err := json.Marshal(fixtureRecords[0])
	require.NoError(t, err)

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	require.NoError(t, producer.WriteMessages(ctx,
		kafkago.Message{Key: []byte("bad"), Value: []byte("not-json{{{")},
		kafkago.Message{Key: []byte("good"), Value: validPayload},
	))

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(reader, newTestTransformer(t), writer, discardLogger(), metrics, 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	// Only the valid message should appear on the sink topic.
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	tm := readTransformed(ctx, t, consumer)
	assert.Equal(t, "Hail", tm.Event.EventType)
	assert.Equal(t, "Oklahoma City", tm.Event.NearestCity)

	// Verify no second message arrives (the poison pill was skipped).
	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err = consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no second message on sink topic")

	pipelineCancel()
	require.NoError(t, <-errCh)
}
