package usecase

import (
	"context"
	"encoding/json"
	"time"

	"StableBench/internal/domain/models"
	domrepo "StableBench/internal/domain/repository"
	mid "StableBench/internal/middleware"
	pkgkafka "StableBench/pkg/kafka"
)

// KafkaObservationsHandler consumes observation messages published by
// external collectors and feeds them through the ingest pipeline.
type KafkaObservationsHandler struct {
	topic   string
	pipe    *mid.IngestPipeline
	metrics domrepo.Metrics
}

func NewKafkaObservationsHandler(topic string, pipe *mid.IngestPipeline, metrics domrepo.Metrics) *KafkaObservationsHandler {
	return &KafkaObservationsHandler{topic: topic, pipe: pipe, metrics: metrics}
}

func (h *KafkaObservationsHandler) Topic() string { return h.topic }

type observationMessage struct {
	Symbol string `json:"symbol"`
	TsMs   int64  `json:"ts_ms"`
	Quotes []struct {
		Venue  string  `json:"venue"`
		Price  float64 `json:"price"`
		Volume float64 `json:"volume"`
		TsMs   int64   `json:"ts_ms"`
	} `json:"quotes"`
	RawAPY    float64 `json:"raw_apy"`
	Depth10   float64 `json:"depth_10bps"`
	Depth20   float64 `json:"depth_20bps"`
	Depth50   float64 `json:"depth_50bps"`
	SpreadBps float64 `json:"spread_bps"`
	MarketCap float64 `json:"market_cap"`
	Class     string  `json:"asset_class"`
}

func (h *KafkaObservationsHandler) Handle(ctx context.Context, b []byte) error {
	var m observationMessage
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}

	obs := &models.AssetObservation{
		Symbol:    m.Symbol,
		Timestamp: time.UnixMilli(m.TsMs),
		Quotes:    make([]models.VenueQuote, 0, len(m.Quotes)),
		RawAPY:    m.RawAPY,
		Depth: models.DepthProfile{
			Bps10: m.Depth10,
			Bps20: m.Depth20,
			Bps50: m.Depth50,
		},
		SpreadBps:  m.SpreadBps,
		MarketCap:  m.MarketCap,
		AssetClass: m.Class,
	}
	for _, q := range m.Quotes {
		obs.Quotes = append(obs.Quotes, models.VenueQuote{
			Venue:      q.Venue,
			Price:      q.Price,
			Volume:     q.Volume,
			ObservedAt: time.UnixMilli(q.TsMs),
		})
	}

	// E2E latency from event time to ingest (approx)
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(obs.Timestamp).Seconds())

	return h.pipe.Process(ctx, obs)
}

var _ pkgkafka.MessageHandler = (*KafkaObservationsHandler)(nil)
