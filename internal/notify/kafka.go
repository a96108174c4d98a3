package notify

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"vigil/internal/alert"
	"vigil/internal/ledger"
	dErrors "vigil/pkg/domain-errors"
)

// KafkaSink publishes alerts and sealed commitments to Kafka. Alerts are
// keyed by location so consumers see per-location ordering; commits are
// keyed by batch so replays stay idempotent downstream.
type KafkaSink struct {
	client      *kgo.Client
	alertTopic  string
	commitTopic string
	logger      *slog.Logger
}

type KafkaOption func(*KafkaSink)

func WithKafkaLogger(logger *slog.Logger) KafkaOption {
	return func(s *KafkaSink) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewKafkaSink(brokers []string, alertTopic, commitTopic string, opts ...KafkaOption) (*KafkaSink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeConfig, "create kafka client", err)
	}
	s := &KafkaSink{
		client:      client,
		alertTopic:  alertTopic,
		commitTopic: commitTopic,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *KafkaSink) Deliver(ctx context.Context, a alert.Alert) error {
	value, err := json.Marshal(a)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "marshal alert", err)
	}
	record := &kgo.Record{
		Topic: s.alertTopic,
		Key:   []byte(a.Location.Norm()),
		Value: value,
	}
	// Synchronous produce: the dispatcher owns retry policy, not the sink.
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "publish alert", err)
	}
	return nil
}

type commitEnvelope struct {
	BatchID    string `json:"batch_id"`
	RootHash   string `json:"root_hash"`
	EntryCount int    `json:"entry_count"`
	FirstSeq   uint64 `json:"first_seq"`
	SealedAt   string `json:"sealed_at"`
}

func (s *KafkaSink) Export(ctx context.Context, c ledger.Commit) error {
	value, err := json.Marshal(commitEnvelope{
		BatchID:    c.BatchID.String(),
		RootHash:   hex.EncodeToString(c.RootHash),
		EntryCount: c.EntryCount,
		FirstSeq:   c.FirstSeq,
		SealedAt:   c.SealedAt.Format("2006-01-02T15:04:05.000Z07:00"),
	})
	if err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "marshal commit", err)
	}
	record := &kgo.Record{
		Topic: s.commitTopic,
		Key:   []byte(c.BatchID.String()),
		Value: value,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "publish commit", err)
	}
	return nil
}

func (s *KafkaSink) Close() {
	s.client.Close()
}
