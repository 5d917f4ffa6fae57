package api

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"
)

type TimeoutConfig struct {
	PongWait   time.Duration
	PingPeriod time.Duration
	WriteWait  time.Duration
}

var DefaultTimeouts = TimeoutConfig{
	PongWait:   60 * time.Second,
	PingPeriod: 54 * time.Second, // (PongWait * 9) / 10
	WriteWait:  10 * time.Second,
}

type streamRequest struct {
	Text string `json:"text"`
}

func (h *APIHandler) checkOrigin(r *http.Request) bool {
	if len(h.allowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == "" || slices.Contains(h.allowedOrigins, origin)
}

// StreamHandler pushes every message appended to the session's conversation
// and accepts {"text": ...} frames as submissions. Rejected submissions are
// answered with an error frame; accepted ones show up as pushed messages.
func (h *APIHandler) StreamHandler(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warnw("Websocket upgrade failed", "session", session.ID, "error", err)
		return
	}
	defer conn.Close()

	messages, unsubscribe := session.Assistant.Conversation().Subscribe()
	defer unsubscribe()

	h.logger.Infow("Stream opened", "session", session.ID)
	defer h.logger.Infow("Stream closed", "session", session.ID)

	timeouts := h.timeouts
	conn.SetReadDeadline(time.Now().Add(timeouts.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(timeouts.PongWait))
	})

	rejections := make(chan errorResponse, 8)
	done := make(chan struct{})
	writerDone := make(chan struct{})
	defer func() {
		close(done)
		<-writerDone
	}()

	// The writer owns every write on conn.
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(timeouts.PingPeriod)
		defer ticker.Stop()

		write := func(v any) error {
			conn.SetWriteDeadline(time.Now().Add(timeouts.WriteWait))
			return conn.WriteJSON(v)
		}

		for {
			select {
			case msg, ok := <-messages:
				if !ok {
					return
				}
				if err := write(msg); err != nil {
					return
				}
			case rej := <-rejections:
				if err := write(rej); err != nil {
					return
				}
			case <-ticker.C:
				deadline := time.Now().Add(timeouts.WriteWait)
				if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	reject := func(msg string) bool {
		select {
		case rejections <- errorResponse{Error: msg}:
			return true
		case <-writerDone:
			return false
		}
	}

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debugw("Stream read ended", "session", session.ID, "error", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(timeouts.PongWait))

		var req streamRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			if !reject("invalid message: " + err.Error()) {
				return
			}
			continue
		}
		if _, err := session.Assistant.Start(context.WithoutCancel(r.Context()), req.Text); err != nil {
			if !reject(err.Error()) {
				return
			}
		}
	}
}
