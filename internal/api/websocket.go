package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/valpere/peredoc/internal/pipeline"
	"github.com/valpere/peredoc/internal/service"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const writeWait = 10 * time.Second

// Message is one frame sent to a streaming client. Exactly one of Event,
// Result or Error is set; the Result or Error frame is the last.
type Message struct {
	Type   string           `json:"type"`
	Event  *pipeline.Event  `json:"event,omitempty"`
	Result *pipeline.Result `json:"result,omitempty"`
	Error  string           `json:"error,omitempty"`
}

const (
	msgEvent  = "event"
	msgResult = "result"
	msgError  = "error"
)

// Stream upgrades to a websocket, reads one service.Request and streams
// progress events followed by the Result. The connection is closed after
// the final frame. The run is canceled when the client goes away.
func (h *Handler) Stream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	var mu sync.Mutex
	send := func(m Message) {
		mu.Lock()
		defer mu.Unlock()
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(m); err != nil {
			h.logger.Debug("websocket write failed", "error", err)
		}
	}

	conn.SetReadLimit(MaxUploadBytes)
	var req service.Request
	if err := conn.ReadJSON(&req); err != nil {
		send(Message{Type: msgError, Error: "invalid request: " + err.Error()})
		return
	}

	// The request context is not canceled for hijacked connections, so a
	// reader watches for the close and cancels the run.
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	obs := pipeline.ObserverFunc(func(e pipeline.Event) {
		send(Message{Type: msgEvent, Event: &e})
	})
	res, err := h.svc.Translate(ctx, req, obs)
	if err != nil {
		send(Message{Type: msgError, Error: err.Error()})
		return
	}
	send(Message{Type: msgResult, Result: res})

	mu.Lock()
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	mu.Unlock()
}
