package web

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/cjeanneret/UVCam/internal/debug"
)

const (
	frameBoundary = "frame"
	wsWriteWait   = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 64 * 1024,
	// The UI is served from the same origin; LAN clients may use any host name.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// frameInterval is the delay between two pushed frames.
func (h *Handlers) frameInterval() time.Duration {
	fps := h.Camera.FPS()
	if fps <= 0 {
		fps = defaultStreamFPS
	}
	return time.Second / time.Duration(fps)
}

// HandleVideoFeed handles GET /video_feed as a multipart JPEG stream.
// The stream ends when the client goes away or a grab fails.
func (h *Handlers) HandleVideoFeed(w http.ResponseWriter, r *http.Request) {
	if !h.requireCamera(w) {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	frame, err := h.Camera.GetFrame()
	if err != nil {
		debug.Errorf("video feed: %v", err)
		http.Error(w, "frame capture failed", http.StatusInternalServerError)
		return
	}

	id := uuid.NewString()
	debug.Live("Video feed client %s connected", id)
	defer debug.Live("Video feed client %s gone", id)

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+frameBoundary)
	w.Header().Set("Cache-Control", "no-cache")

	ticker := time.NewTicker(h.frameInterval())
	defer ticker.Stop()

	for {
		if err := writePart(w, frame); err != nil {
			return
		}
		flusher.Flush()

		select {
		case <-r.Context().Done():
			return
		case <-h.ctx.Done():
			return
		case <-ticker.C:
		}

		frame, err = h.Camera.GetFrame()
		if err != nil {
			debug.Errorf("video feed %s: %v", id, err)
			h.Broadcaster.Broadcast("error", "Frame capture failed: "+err.Error())
			return
		}
	}
}

func writePart(w http.ResponseWriter, frame []byte) error {
	if _, err := fmt.Fprintf(w, "--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", frameBoundary, len(frame)); err != nil {
		return err
	}
	if _, err := w.Write(frame); err != nil {
		return err
	}
	_, err := w.Write([]byte("\r\n"))
	return err
}

// HandleWebSocket handles GET /ws: one binary JPEG message per frame.
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !h.requireCamera(w) {
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied
		debug.Verbose("websocket upgrade: %v", err)
		return
	}

	id := uuid.NewString()
	debug.Live("Websocket client %s connected", id)
	defer debug.Live("Websocket client %s gone", id)

	// Reader drains control frames and notices the close.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	defer func() {
		conn.Close()
		<-gone
	}()

	ticker := time.NewTicker(h.frameInterval())
	defer ticker.Stop()

	for {
		frame, err := h.Camera.GetFrame()
		if err != nil {
			debug.Errorf("websocket %s: %v", id, err)
			msg := websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "frame capture failed")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(wsWriteWait))
			return
		}
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			return
		}

		select {
		case <-gone:
			return
		case <-h.ctx.Done():
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(wsWriteWait))
			return
		case <-ticker.C:
		}
	}
}
