package transport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// handleWebSocket serves one tool call per text frame. Calls are answered in
// order; the next frame is not read until the previous reply is written.
// Closing the socket does not end the tutoring session.
func (d *Dispatcher) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	studentID, ok := studentFromPath(w, r)
	if !ok {
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: d.originPatterns,
	})
	if err != nil {
		slog.Warn("websocket accept failed", "student_id", studentID, "error", err)
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(d.maxBody)

	slog.Info("websocket connected", "student_id", studentID)
	if err := d.serveConn(r.Context(), conn, studentID); err != nil {
		slog.Warn("websocket closed", "student_id", studentID, "error", err)
		return
	}
	conn.Close(websocket.StatusNormalClosure, "")
}

func (d *Dispatcher) serveConn(ctx context.Context, conn *websocket.Conn, studentID string) error {
	for {
		var req Request
		if err := wsjson.Read(ctx, conn, &req); err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				slog.Info("websocket disconnected", "student_id", studentID)
				return nil
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		resp := d.Dispatch(ctx, studentID, req)
		if err := wsjson.Write(ctx, conn, resp); err != nil {
			return err
		}
	}
}
