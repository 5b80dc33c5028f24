package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"schemagen/internal/domain/entity"
	"schemagen/internal/infrastructure/metrics"
)

const (
	StreamStatusGenerating = "generating"
	StreamStatusDone       = "done"
	StreamStatusError      = "error"

	streamWriteWait = 10 * time.Second
)

type streamMessage struct {
	Status string                     `json:"status"`
	Result *entity.GenerationResponse `json:"result,omitempty"`
	Error  string                     `json:"error,omitempty"`
}

// GET /api/generate-schema/ws
//
// Each text frame carries one GenerationRequest. Frames are handled in order,
// so a connection has at most one generation in flight. The generation
// context is cancelled as soon as the connection stops reading.
func (h *GenerationHandler) handleGenerateStream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	metrics.IncWSConnections()
	defer metrics.DecWSConnections()
	defer func() {
		_ = conn.Close()
	}()

	conn.SetReadLimit(maxBodyBytes)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	frames := h.readFrames(ctx, cancel, conn)
	for data := range frames {
		var req entity.GenerationRequest
		if err := json.Unmarshal(data, &req); err != nil {
			if err := h.sendStream(conn, streamMessage{Status: StreamStatusError, Error: "bad request body"}); err != nil {
				return
			}
			continue
		}

		if err := req.Validate(); err != nil {
			var ve *entity.ValidationError
			if errors.As(err, &ve) {
				metrics.IncValidationFailure(ve.Field)
			}
			if err := h.sendStream(conn, streamMessage{Status: StreamStatusError, Error: h.streamErrorMessage(err)}); err != nil {
				return
			}
			continue
		}

		if err := h.sendStream(conn, streamMessage{Status: StreamStatusGenerating}); err != nil {
			return
		}

		resp, err := h.service.Generate(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if err := h.sendStream(conn, streamMessage{Status: StreamStatusError, Error: h.streamErrorMessage(err)}); err != nil {
				return
			}
			continue
		}
		if err := h.sendStream(conn, streamMessage{Status: StreamStatusDone, Result: &resp}); err != nil {
			return
		}
	}
}

// readFrames owns the connection's read side. It cancels ctx and closes the
// returned channel when reading fails.
func (h *GenerationHandler) readFrames(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn) <-chan []byte {
	frames := make(chan []byte)
	go func() {
		defer close(frames)
		defer cancel()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					h.logger.Warn("websocket read failed", "err", err)
				}
				return
			}
			select {
			case frames <- data:
			case <-ctx.Done():
				return
			}
		}
	}()
	return frames
}

func (h *GenerationHandler) sendStream(conn *websocket.Conn, msg streamMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	if err := conn.WriteJSON(msg); err != nil {
		metrics.IncError("transport", "ws_write")
		h.logger.Warn("websocket write failed", "err", err)
		return err
	}
	return nil
}

func (h *GenerationHandler) streamErrorMessage(err error) string {
	var ve *entity.ValidationError
	switch {
	case errors.As(err, &ve):
		return ve.Message
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "request canceled"
	}
	h.logger.Error("stream generation failed", "err", err)
	return genericFailure
}
