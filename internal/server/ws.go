package server

import (
	"context"
	"net/http"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const tickerInterval = 2 * time.Second

// tickerFrame is one websocket market update.
type tickerFrame struct {
	Day        int                `json:"day"`
	IndexValue float64            `json:"index_value"`
	Prices     map[string]float64 `json:"prices"`
	Timestamp  time.Time          `json:"timestamp"`
}

// handleTickerWS streams the current index value and per-symbol prices
// over a websocket at a fixed interval until the client disconnects.
func (s *Server) handleTickerWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	s.log.Info().Str("remote", r.RemoteAddr).Msg("Ticker websocket connected")

	ticker := time.NewTicker(tickerInterval)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		frame, err := s.buildTickerFrame()
		if err != nil {
			s.log.Warn().Err(err).Msg("Ticker frame unavailable, closing websocket")
			conn.Close(websocket.StatusInternalError, "market unavailable")
			return
		}

		writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err = wsjson.Write(writeCtx, conn, frame)
		cancel()
		if err != nil {
			s.log.Info().Str("remote", r.RemoteAddr).Msg("Ticker websocket disconnected")
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) buildTickerFrame() (tickerFrame, error) {
	status, err := s.sim.Status()
	if err != nil {
		return tickerFrame{}, err
	}
	companies, err := s.sim.Companies()
	if err != nil {
		return tickerFrame{}, err
	}

	prices := make(map[string]float64, len(companies))
	for _, c := range companies {
		if !c.Delisted {
			prices[c.Symbol] = c.Price
		}
	}

	return tickerFrame{
		Day:        status.Day,
		IndexValue: status.IndexValue,
		Prices:     prices,
		Timestamp:  time.Now().UTC(),
	}, nil
}
