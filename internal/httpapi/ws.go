package httpapi

import (
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"predictd/pkg/types"
)

// predictWS godoc
// @Summary      Stream a prediction over a websocket
// @Description  The client sends one PredictionRequest frame; the server answers with StreamEvent frames and closes after the final {"done":true}.
// @Tags         predictions
// @Success      101
// @Router       /ws/predictions [get]
func (h *handlers) predictWS(w http.ResponseWriter, r *http.Request) {
	opts := &websocket.AcceptOptions{}
	if corsEnabled && len(corsAllowedOrigins) > 0 {
		opts.OriginPatterns = corsAllowedOrigins
	}
	c, err := websocket.Accept(w, r, opts)
	if err != nil {
		// Accept has already written the handshake error.
		return
	}
	defer c.CloseNow()
	c.SetReadLimit(maxBodyBytes)

	rl := newRequestLogger(r)
	ctx, cancel := predictContext(r.Context())
	defer cancel()

	req := types.PredictionRequest{Input: h.svc.Defaults()}
	if err := wsjson.Read(ctx, c, &req); err != nil {
		_ = c.Close(websocket.StatusUnsupportedData, "invalid request frame")
		return
	}
	rl.begin("predict ws start")

	res, err := h.svc.Predict(ctx, req.Input, func(piece string) error {
		if err := wsjson.Write(ctx, c, types.StreamEvent{Token: piece}); err != nil {
			return err
		}
		streamedPiecesTotal.WithLabelValues("websocket").Inc()
		return nil
	})
	if err != nil {
		if abandoned(r.Context()) {
			return
		}
		status := statusFor(err)
		if status == http.StatusTooManyRequests {
			IncrementBackpressure("queue")
		}
		_ = wsjson.Write(ctx, c, types.StreamEvent{Done: true, Error: err.Error()})
		_ = c.Close(websocket.StatusNormalClosure, "")
		rl.end("predict ws end", status, err)
		return
	}
	_ = wsjson.Write(ctx, c, types.StreamEvent{Done: true, Output: res.Output, Metrics: metricsOf(res)})
	_ = c.Close(websocket.StatusNormalClosure, "")
	rl.end("predict ws end", http.StatusOK, nil)
}
