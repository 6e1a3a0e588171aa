package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"StableBench/internal/domain/models"
	drepo "StableBench/internal/domain/repository"
	pkghttp "StableBench/pkg/http"
	applogger "StableBench/pkg/logger"

	"github.com/gorilla/websocket"
)

// LiveConfig configures the live observation feed.
type LiveConfig struct {
	WebsocketURL    string
	APIKey          string
	Symbols         []string
	ReconnectDelay  time.Duration
	PingInterval    time.Duration
	MetadataURL     string        // REST endpoint serving market cap and yield metadata
	MetadataRefresh time.Duration // polling cadence for slow-moving fields
}

// LiveFeed implements an ObservationSource over an aggregator WebSocket.
// Fast fields (quotes, depth, spread) arrive on the socket; slow fields
// (market cap, raw APY, asset class) come from a REST metadata endpoint
// polled on its own cadence and merged into each observation.
type LiveFeed struct {
	cfg  LiveConfig
	log  *applogger.Logger
	http *pkghttp.Client

	connMu    sync.RWMutex
	conn      *websocket.Conn
	connected bool

	metaMu   sync.RWMutex
	meta     map[string]assetMetadata
	metaOnce sync.Once
	stopCh   chan struct{}
}

type assetMetadata struct {
	RawAPY     float64 `json:"raw_apy"`
	MarketCap  float64 `json:"market_cap"`
	AssetClass string  `json:"asset_class"`
}

// NewLiveFeed creates a live observation source.
func NewLiveFeed(cfg LiveConfig, httpClient *pkghttp.Client, log *applogger.Logger) drepo.ObservationSource {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 5 * time.Second
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	if cfg.MetadataRefresh <= 0 {
		cfg.MetadataRefresh = 5 * time.Minute
	}
	return &LiveFeed{
		cfg:    cfg,
		log:    log,
		http:   httpClient,
		meta:   make(map[string]assetMetadata),
		stopCh: make(chan struct{}),
	}
}

// Connect establishes the WebSocket connection and primes metadata.
func (f *LiveFeed) Connect(ctx context.Context) error {
	u := f.cfg.WebsocketURL
	if f.cfg.APIKey != "" {
		u = fmt.Sprintf("%s?token=%s", u, f.cfg.APIKey)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("feed connect: %w", err)
	}
	f.connMu.Lock()
	f.conn = conn
	f.connected = true
	f.connMu.Unlock()
	f.log.Info("feed connected", applogger.String("url", f.cfg.WebsocketURL))

	if f.cfg.MetadataURL != "" {
		if err := f.refreshMetadata(ctx); err != nil {
			f.log.Warn("initial metadata fetch failed", applogger.Error(err))
		}
		f.metaOnce.Do(func() { go f.metadataLoop(ctx) })
	}
	return nil
}

// Subscribe subscribes to configured symbols.
func (f *LiveFeed) Subscribe(ctx context.Context) error {
	conn := f.currentConn()
	if conn == nil {
		return fmt.Errorf("feed not connected")
	}
	for _, s := range f.cfg.Symbols {
		msg := map[string]string{"type": "subscribe", "symbol": s}
		if err := conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", s, err)
		}
		f.log.Debug("feed subscribed", applogger.String("symbol", s))
	}
	return nil
}

type wsQuote struct {
	Venue  string  `json:"venue"`
	Price  float64 `json:"price"`
	Volume float64 `json:"volume"`
	TsMs   int64   `json:"ts_ms"`
}

type wsObservation struct {
	Symbol    string    `json:"symbol"`
	TsMs      int64     `json:"ts_ms"`
	Quotes    []wsQuote `json:"quotes"`
	Depth10   float64   `json:"depth_10bps"`
	Depth20   float64   `json:"depth_20bps"`
	Depth50   float64   `json:"depth_50bps"`
	SpreadBps float64   `json:"spread_bps"`
}

type wsMessage struct {
	Type string          `json:"type"`
	Data []wsObservation `json:"data"`
}

// Read streams observations and errors over the current connection.
// When the connection fails the error is reported and both channels
// close; the caller reconnects and calls Read again for a new stream.
func (f *LiveFeed) Read(ctx context.Context) (<-chan *models.AssetObservation, <-chan error) {
	obsCh := make(chan *models.AssetObservation, 1024)
	errs := make(chan error, 1)
	conn := f.currentConn()
	done := make(chan struct{})

	// ping loop, scoped to this stream
	go func() {
		ticker := time.NewTicker(f.cfg.PingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-f.stopCh:
				return
			case <-done:
				return
			case <-ticker.C:
				if conn != nil {
					_ = conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(obsCh)
		defer close(errs)
		defer close(done)
		if conn == nil {
			errs <- fmt.Errorf("feed conn nil")
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			default:
				_, b, err := conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("feed read: %w", err)
					return
				}
				var m wsMessage
				if err := json.Unmarshal(b, &m); err != nil {
					// ignore non-observation frames
					continue
				}
				if m.Type != "observation" {
					continue
				}
				for _, d := range m.Data {
					obs := f.toObservation(d)
					select {
					case obsCh <- obs:
					default:
						// drop on backpressure
					}
				}
			}
		}
	}()

	return obsCh, errs
}

func (f *LiveFeed) toObservation(d wsObservation) *models.AssetObservation {
	obs := &models.AssetObservation{
		Symbol:    d.Symbol,
		Timestamp: time.UnixMilli(d.TsMs),
		Quotes:    make([]models.VenueQuote, 0, len(d.Quotes)),
		Depth: models.DepthProfile{
			Bps10: d.Depth10,
			Bps20: d.Depth20,
			Bps50: d.Depth50,
		},
		SpreadBps: d.SpreadBps,
	}
	for _, q := range d.Quotes {
		obs.Quotes = append(obs.Quotes, models.VenueQuote{
			Venue:      q.Venue,
			Price:      q.Price,
			Volume:     q.Volume,
			ObservedAt: time.UnixMilli(q.TsMs),
		})
	}
	f.metaMu.RLock()
	if md, ok := f.meta[d.Symbol]; ok {
		obs.RawAPY = md.RawAPY
		obs.MarketCap = md.MarketCap
		obs.AssetClass = md.AssetClass
	}
	f.metaMu.RUnlock()
	return obs
}

func (f *LiveFeed) metadataLoop(ctx context.Context) {
	ticker := time.NewTicker(f.cfg.MetadataRefresh)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-f.stopCh:
			return
		case <-ticker.C:
			if err := f.refreshMetadata(ctx); err != nil {
				f.log.Warn("metadata refresh failed", applogger.Error(err))
			}
		}
	}
}

func (f *LiveFeed) refreshMetadata(ctx context.Context) error {
	var payload map[string]assetMetadata
	err := f.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: http.MethodGet,
		URL:    f.cfg.MetadataURL,
		QueryParams: map[string][]string{
			"symbols": f.cfg.Symbols,
		},
	}, &payload)
	if err != nil {
		return err
	}
	f.metaMu.Lock()
	for sym, md := range payload {
		f.meta[sym] = md
	}
	f.metaMu.Unlock()
	f.log.Debug("metadata refreshed", applogger.Int("symbols", len(payload)))
	return nil
}

// Reconnect closes and re-establishes the connection.
func (f *LiveFeed) Reconnect(ctx context.Context) error {
	_ = f.closeConn()
	time.Sleep(f.cfg.ReconnectDelay)
	if err := f.Connect(ctx); err != nil {
		return err
	}
	return f.Subscribe(ctx)
}

func (f *LiveFeed) currentConn() *websocket.Conn {
	f.connMu.RLock()
	defer f.connMu.RUnlock()
	if !f.connected {
		return nil
	}
	return f.conn
}

func (f *LiveFeed) closeConn() error {
	f.connMu.Lock()
	conn := f.conn
	f.conn = nil
	f.connected = false
	f.connMu.Unlock()
	if conn != nil {
		return conn.Close()
	}
	return nil
}

// Close shuts the feed down.
func (f *LiveFeed) Close() error {
	select {
	case <-f.stopCh:
	default:
		close(f.stopCh)
	}
	return f.closeConn()
}

// IsConnected indicates status.
func (f *LiveFeed) IsConnected() bool {
	f.connMu.RLock()
	defer f.connMu.RUnlock()
	return f.connected
}
