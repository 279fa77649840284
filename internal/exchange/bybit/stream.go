package bybit

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/quangdle/crypto-signal-bot/internal/exchange"
	"github.com/quangdle/crypto-signal-bot/pkg/types"
)

const (
	mainnetStreamURL = "wss://stream.bybit.com/v5/public/spot"
	testnetStreamURL = "wss://stream-testnet.bybit.com/v5/public/spot"

	streamPingInterval = 20 * time.Second
	streamRedialDelay  = 5 * time.Second
)

// TickerStream maintains a public websocket subscription to the ticker
// topic of each tracked symbol and pushes price updates to a callback.
// It redials with a fixed delay on any read failure; the REST polling
// path stays authoritative, so missed updates are tolerable.
type TickerStream struct {
	url      string
	catalog  *exchange.Catalog
	onTicker func(types.Ticker)
	log      *zap.Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	symbols []string
	cancel  context.CancelFunc
}

// NewTickerStream creates a stream for the given canonical symbols.
// The callback is invoked from the read goroutine and must not block.
func NewTickerStream(cfg Config, catalog *exchange.Catalog, symbols []string, onTicker func(types.Ticker), log *zap.Logger) *TickerStream {
	url := mainnetStreamURL
	if cfg.Testnet {
		url = testnetStreamURL
	}
	return &TickerStream{
		url:      url,
		catalog:  catalog,
		onTicker: onTicker,
		symbols:  symbols,
		log:      log.Named("ticker_stream"),
	}
}

// Start dials the stream and runs the read loop until Stop or context
// cancellation. The initial dial failure is returned; later failures
// trigger redials.
func (s *TickerStream) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	if err := s.dial(ctx); err != nil {
		cancel()
		return err
	}

	go s.run(ctx)
	return nil
}

// Stop closes the connection and ends the read loop.
func (s *TickerStream) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
}

func (s *TickerStream) dial(ctx context.Context) error {
	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, _, err := dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return exchange.WrapError(exchange.KindConnection, "stream_dial", err)
	}

	topics := make([]string, 0, len(s.symbols))
	for _, sym := range s.symbols {
		topics = append(topics, "tickers."+exchange.CompactSymbol(sym))
	}
	sub := map[string]interface{}{"op": "subscribe", "args": topics}
	if err := conn.WriteJSON(sub); err != nil {
		conn.Close()
		return exchange.WrapError(exchange.KindConnection, "stream_subscribe", err)
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	s.log.Info("stream connected", zap.Strings("topics", topics))
	return nil
}

func (s *TickerStream) run(ctx context.Context) {
	go s.keepAlive(ctx)

	for {
		s.mu.Lock()
		conn := s.conn
		s.mu.Unlock()
		if conn == nil {
			return
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.log.Warn("stream read failed, redialing", zap.Error(err))
			conn.Close()
			select {
			case <-ctx.Done():
				return
			case <-time.After(streamRedialDelay):
			}
			if err := s.dial(ctx); err != nil {
				s.log.Warn("stream redial failed", zap.Error(err))
			}
			continue
		}

		s.handleMessage(message)
	}
}

func (s *TickerStream) keepAlive(ctx context.Context) {
	ticker := time.NewTicker(streamPingInterval)
	defer ticker.Stop()

	ping := []byte(`{"op":"ping"}`)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			conn := s.conn
			s.mu.Unlock()
			if conn == nil {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, ping); err != nil {
				s.log.Warn("stream ping failed", zap.Error(err))
			}
		}
	}
}

func (s *TickerStream) handleMessage(message []byte) {
	var frame struct {
		Topic string `json:"topic"`
		TS    int64  `json:"ts"`
		Data  struct {
			Symbol    string `json:"symbol"`
			LastPrice string `json:"lastPrice"`
			Volume24h string `json:"volume24h"`
		} `json:"data"`
	}
	if err := json.Unmarshal(message, &frame); err != nil {
		return
	}
	if frame.Data.Symbol == "" || frame.Data.LastPrice == "" {
		// Subscription acks and pong frames carry no data.
		return
	}

	price, err := strconv.ParseFloat(frame.Data.LastPrice, 64)
	if err != nil || price <= 0 {
		return
	}
	volume, _ := strconv.ParseFloat(frame.Data.Volume24h, 64)

	s.onTicker(types.Ticker{
		Symbol:    s.catalog.Normalize(frame.Data.Symbol),
		Price:     price,
		Volume:    volume,
		Timestamp: time.UnixMilli(frame.TS),
	})
}
