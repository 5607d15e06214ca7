package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/cjeanneret/UVCam/internal/debug"
	"github.com/cjeanneret/UVCam/internal/hw/camera"
)

const (
	maxBodyBytes     = 1 << 20
	minTimelapseGap  = 5 * time.Second
	maxFPS           = 240
	maxTimelapse     = 10000
	maxIntervalMs    = 24 * 60 * 60 * 1000
	defaultStreamFPS = 24
)

// CameraService is the part of *camera.Camera the handlers use.
type CameraService interface {
	GetFrame() ([]byte, error)
	SetFPS(fps int) error
	FPS() int
	Size() (int, int)
	GetControlValue(control string) camera.ControlValue
	SetControlValue(control string, value int)
	GetAllControls() map[string]camera.ControlValue
	ControlNames() camera.ControlNames
}

// LampService switches the optional illuminator.
type LampService interface {
	Set(on bool) error
	IsOn() bool
}

// TimelapseRequest is the body of POST /timelapse.
type TimelapseRequest struct {
	Count      int `json:"count"`
	IntervalMs int `json:"interval_ms"`
}

// RunTimelapseFunc runs a timelapse. It is called from POST /timelapse in a goroutine.
type RunTimelapseFunc func(ctx context.Context, req TimelapseRequest) error

// FormConfig is returned by GET /config.
type FormConfig struct {
	Width          int               `json:"width"`
	Height         int               `json:"height"`
	FPS            int               `json:"fps"`
	Controls       []string          `json:"controls"`
	DeviceControls map[string]string `json:"device_controls"` // logical name -> uvcdynctrl name
	Lamp           bool              `json:"lamp"`
	Timelapse      TimelapseRequest  `json:"timelapse"`
}

// Deps are the services behind the routes. Nil services answer 503.
type Deps struct {
	Broadcaster  *StatusBroadcaster
	Camera       CameraService
	Lamp         LampService
	RunTimelapse RunTimelapseFunc
	Timelapse    TimelapseRequest // form defaults
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	Broadcaster  *StatusBroadcaster
	Camera       CameraService
	Lamp         LampService
	RunTimelapse RunTimelapseFunc
	Timelapse    TimelapseRequest

	runningMu sync.Mutex
	running   bool
	lastStart time.Time
	now       func() time.Time

	// ctx is cancelled on server shutdown and stops background runs.
	ctx      context.Context
	staticFS fs.FS
}

func NewHandlers(deps Deps, staticFS fs.FS) *Handlers {
	b := deps.Broadcaster
	if b == nil {
		b = NewStatusBroadcaster()
	}
	return &Handlers{
		Broadcaster:  b,
		Camera:       deps.Camera,
		Lamp:         deps.Lamp,
		RunTimelapse: deps.RunTimelapse,
		Timelapse:    deps.Timelapse,
		now:          time.Now,
		ctx:          context.Background(),
		staticFS:     staticFS,
	}
}

// ValidateTimelapse checks a timelapse request.
func ValidateTimelapse(req TimelapseRequest) error {
	if req.Count < 1 || req.Count > maxTimelapse {
		return fmt.Errorf("count must be between 1 and %d", maxTimelapse)
	}
	if req.IntervalMs < 0 || req.IntervalMs > maxIntervalMs {
		return fmt.Errorf("interval_ms must be between 0 and %d", maxIntervalMs)
	}
	return nil
}

// ValidateFPS checks a frame rate accepted by POST /fps.
func ValidateFPS(fps int) error {
	if fps < 1 || fps > maxFPS {
		return fmt.Errorf("fps must be between 1 and %d", maxFPS)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		debug.Errorf("web: encode response: %v", err)
	}
}

// decodeBody reads a JSON body of at most maxBodyBytes into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			http.Error(w, "request body too large", http.StatusBadRequest)
			return false
		}
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return false
	}
	return true
}

func (h *Handlers) requireCamera(w http.ResponseWriter) bool {
	if h.Camera == nil {
		http.Error(w, "camera not configured", http.StatusServiceUnavailable)
		return false
	}
	return true
}

// HandleConfig returns the page defaults as JSON.
func (h *Handlers) HandleConfig(w http.ResponseWriter, r *http.Request) {
	names := camera.DefaultControlNames()
	fc := FormConfig{
		Lamp:      h.Lamp != nil,
		Timelapse: h.Timelapse,
	}
	if h.Camera != nil {
		fc.Width, fc.Height = h.Camera.Size()
		fc.FPS = h.Camera.FPS()
		names = h.Camera.ControlNames()
	}
	fc.Controls = names.Logical()
	fc.DeviceControls = names.Map()
	writeJSON(w, http.StatusOK, fc)
}

// ServeIndex serves the main HTML page (root path only).
func (h *Handlers) ServeIndex(w http.ResponseWriter, r *http.Request) {
	data, err := fs.ReadFile(h.staticFS, "index.html")
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

// controlResponse is the body of GET/POST /controls/{name}.
type controlResponse struct {
	Control string              `json:"control"`
	Value   camera.ControlValue `json:"value"`
}

// HandleControls returns every control value.
func (h *Handlers) HandleControls(w http.ResponseWriter, r *http.Request) {
	if !h.requireCamera(w) {
		return
	}
	writeJSON(w, http.StatusOK, h.Camera.GetAllControls())
}

// lookupControl resolves {name} or answers 404.
func (h *Handlers) lookupControl(w http.ResponseWriter, r *http.Request) (string, bool) {
	if !h.requireCamera(w) {
		return "", false
	}
	name := r.PathValue("name")
	if _, ok := h.Camera.ControlNames().Lookup(name); !ok {
		http.Error(w, fmt.Sprintf("unknown control %q", name), http.StatusNotFound)
		return "", false
	}
	return name, true
}

// HandleGetControl handles GET /controls/{name}.
func (h *Handlers) HandleGetControl(w http.ResponseWriter, r *http.Request) {
	name, ok := h.lookupControl(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, controlResponse{Control: name, Value: h.Camera.GetControlValue(name)})
}

// HandleSetControl handles POST /controls/{name} with {"value":int}.
func (h *Handlers) HandleSetControl(w http.ResponseWriter, r *http.Request) {
	name, ok := h.lookupControl(w, r)
	if !ok {
		return
	}
	var body struct {
		Value *int `json:"value"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Value == nil {
		http.Error(w, "value is required", http.StatusBadRequest)
		return
	}

	h.Camera.SetControlValue(name, *body.Value)
	h.Broadcaster.Broadcast("info", fmt.Sprintf("%s set to %d", name, *body.Value))
	writeJSON(w, http.StatusOK, controlResponse{Control: name, Value: camera.IntValue(*body.Value)})
}

// HandleSetFPS handles POST /fps with {"fps":int}.
func (h *Handlers) HandleSetFPS(w http.ResponseWriter, r *http.Request) {
	if !h.requireCamera(w) {
		return
	}
	var body struct {
		FPS int `json:"fps"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if err := ValidateFPS(body.FPS); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Camera.SetFPS(body.FPS); err != nil {
		debug.Errorf("web: set fps %d: %v", body.FPS, err)
		http.Error(w, "set fps failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"fps": h.Camera.FPS()})
}

type lampState struct {
	On bool `json:"on"`
}

// HandleGetLamp handles GET /lamp.
func (h *Handlers) HandleGetLamp(w http.ResponseWriter, r *http.Request) {
	if h.Lamp == nil {
		http.Error(w, "lamp not configured", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, lampState{On: h.Lamp.IsOn()})
}

// HandleSetLamp handles POST /lamp with {"on":bool}.
func (h *Handlers) HandleSetLamp(w http.ResponseWriter, r *http.Request) {
	if h.Lamp == nil {
		http.Error(w, "lamp not configured", http.StatusServiceUnavailable)
		return
	}
	var body lampState
	if !decodeBody(w, r, &body) {
		return
	}
	if err := h.Lamp.Set(body.On); err != nil {
		debug.Errorf("web: lamp: %v", err)
		http.Error(w, "lamp switch failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, lampState{On: h.Lamp.IsOn()})
}

// HandleTimelapse handles POST /timelapse to start a run.
func (h *Handlers) HandleTimelapse(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req TimelapseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := ValidateTimelapse(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if h.RunTimelapse == nil {
		http.Error(w, "timelapse not configured", http.StatusServiceUnavailable)
		return
	}

	h.runningMu.Lock()
	if h.running {
		h.runningMu.Unlock()
		http.Error(w, "timelapse already in progress", http.StatusConflict)
		return
	}
	if now := h.now(); !h.lastStart.IsZero() && now.Sub(h.lastStart) < minTimelapseGap {
		h.runningMu.Unlock()
		http.Error(w, "too many requests, retry later", http.StatusTooManyRequests)
		return
	}
	h.running = true
	h.lastStart = h.now()
	h.runningMu.Unlock()

	go func() {
		defer func() {
			h.runningMu.Lock()
			h.running = false
			h.runningMu.Unlock()
		}()

		h.Broadcaster.Broadcast("info", fmt.Sprintf("Timelapse started: %d frames", req.Count))
		if err := h.RunTimelapse(h.ctx, req); err != nil {
			h.Broadcaster.Broadcast("error", "Timelapse failed: "+err.Error())
			debug.Errorf("timelapse failed: %v", err)
		} else {
			h.Broadcaster.Broadcast("info", "Timelapse complete")
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

// Running reports whether a timelapse is in progress.
func (h *Handlers) Running() bool {
	h.runningMu.Lock()
	defer h.runningMu.Unlock()
	return h.running
}

// HandleTimelapseStatus handles GET /timelapse.
func (h *Handlers) HandleTimelapseStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"running": h.Running()})
}

// HandleStatusStream handles GET /status/stream for SSE.
func (h *Handlers) HandleStatusStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // nginx

	ch, unsub := h.Broadcaster.Subscribe()
	defer unsub()

	w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			w.Write([]byte("data: " + msg + "\n\n"))
			flusher.Flush()

		case <-ticker.C:
			w.Write([]byte(": heartbeat\n\n"))
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
