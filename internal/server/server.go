// Package server exposes share-media generation over HTTP for the web
// application's badge-award flow.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"

	"github.com/ivlev/badgecast/internal/config"
	"github.com/ivlev/badgecast/internal/director"
	"github.com/ivlev/badgecast/internal/engine"
	"github.com/ivlev/badgecast/internal/frame"
)

// PublicError is the only failure detail callers ever see for a failed render.
const PublicError = "couldn't generate your share media, try again"

var errBadRequest = errors.New("bad request")

// ShareRequest is the JSON body of both share endpoints.
type ShareRequest struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	ImagePath   string        `json:"imagePath"`
	LogoPath    string        `json:"logoPath"`
	Kind        string        `json:"kind"`
	Frames      int           `json:"frames"`
	Footer      string        `json:"footer"`
	Watermark   string        `json:"watermark"`
	QRURL       string        `json:"qrUrl"`
	Duration    float64       `json:"duration"`
	Audio       *AudioRequest `json:"audio"`
}

type AudioRequest struct {
	Path    string  `json:"path"`
	Volume  float64 `json:"volume"`
	FadeIn  float64 `json:"fadeIn"`
	FadeOut float64 `json:"fadeOut"`
}

type VideoResponse struct {
	OutputPath string `json:"outputPath"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server renders share media for authenticated callers.
type Server struct {
	cfg    config.File
	secret []byte
	deps   engine.Deps
	seq    atomic.Uint64
}

// New returns a server. deps is shared by all requests, so its asset loader
// cache spans requests.
func New(cfg config.File, secret []byte, deps engine.Deps) *Server {
	return &Server{cfg: cfg, secret: secret, deps: deps.WithDefaults()}
}

// Router wires routes and middleware.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(CorsMiddleware(s.cfg.Server.AllowedOrigin))
	r.Use(LoggingMiddleware)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/v1").Subrouter()
	api.Use(AuthMiddleware(s.secret))
	api.HandleFunc("/share/gif", s.handleGIF).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/share/video", s.handleVideo).Methods(http.MethodPost, http.MethodOptions)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleGIF(w http.ResponseWriter, r *http.Request) {
	cfg := s.cfg.Animation
	req, frames, err := s.prepare(w, r, &cfg.Width, &cfg.Height)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ctx, cancel := s.requestContext(r)
	defer cancel()

	applyOverlay(&cfg.Overlay, req)
	data, err := engine.CreateAnimatedGif(ctx, frames, cfg, s.deps)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/gif")
	w.Write(data)
}

func (s *Server) handleVideo(w http.ResponseWriter, r *http.Request) {
	cfg := s.cfg.Video
	req, frames, err := s.prepare(w, r, &cfg.Width, &cfg.Height)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ctx, cancel := s.requestContext(r)
	defer cancel()

	applyOverlay(&cfg.Overlay, req)
	if req.Duration > 0 {
		cfg.Duration = req.Duration
	}
	if limit := s.cfg.Server.MaxDuration; limit > 0 && cfg.Duration > limit {
		s.fail(w, r, fmt.Errorf("%w: duration exceeds %gs", errBadRequest, limit))
		return
	}
	if a := req.Audio; a != nil && a.Path != "" {
		path, err := s.resolveAsset(a.Path)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		cfg.Audio = &config.AudioConfig{Path: path, Volume: a.Volume, FadeIn: a.FadeIn, FadeOut: a.FadeOut}
	}
	cfg.Output = s.outputPath(req.Kind)

	out, err := engine.GenerateVideo(ctx, frames, cfg, s.deps)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(VideoResponse{OutputPath: out})
}

// prepare decodes and validates the request and generates its frames. A zero
// width or height is replaced by the preset size so frames and canvas agree.
func (s *Server) prepare(w http.ResponseWriter, r *http.Request, width, height *int) (ShareRequest, []frame.Frame, error) {
	var req ShareRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if strings.TrimSpace(req.Name) == "" {
		return req, nil, fmt.Errorf("%w: name is required", errBadRequest)
	}
	if req.Frames < 0 || (s.cfg.Server.MaxFrames > 0 && req.Frames > s.cfg.Server.MaxFrames) {
		return req, nil, fmt.Errorf("%w: frames must be within 0..%d", errBadRequest, s.cfg.Server.MaxFrames)
	}
	preset, err := director.PresetByName(req.Kind)
	if err != nil {
		return req, nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if req.Kind == "" {
		req.Kind = preset.Name
	}
	if *width <= 0 {
		*width = preset.Width
	}
	if *height <= 0 {
		*height = preset.Height
	}

	img, err := s.resolveAsset(req.ImagePath)
	if err != nil {
		return req, nil, err
	}
	logo, err := s.resolveAsset(req.LogoPath)
	if err != nil {
		return req, nil, err
	}

	frames, err := director.NewGenerator(preset, nil).Generate(director.Achievement{
		Name:        req.Name,
		Description: req.Description,
		ImagePath:   img,
		LogoPath:    logo,
		Footer:      req.Footer,
	}, director.Options{Frames: req.Frames, Width: *width, Height: *height})
	if err != nil {
		return req, nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return req, frames, nil
}

// resolveAsset keeps local paths inside the asset directory when one is
// configured. URLs pass through to the loader.
func (s *Server) resolveAsset(p string) (string, error) {
	root := s.cfg.Server.AssetDir
	if p == "" || root == "" || strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return p, nil
	}
	clean := filepath.Clean(p)
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: asset path %q escapes the asset directory", errBadRequest, p)
	}
	return filepath.Join(root, clean), nil
}

func (s *Server) outputPath(kind string) string {
	name := fmt.Sprintf("%s_%s_%d.mp4", kind, time.Now().Format("20060102_150405"), s.seq.Add(1))
	return filepath.Join(s.cfg.Server.OutputDir, name)
}

func (s *Server) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if d := s.cfg.Server.RequestTimeout; d > 0 {
		return context.WithTimeout(r.Context(), d)
	}
	return context.WithCancel(r.Context())
}

// fail logs err and answers with a status derived from it. Render failures
// never expose their details.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errBadRequest) {
		writeError(w, strings.TrimPrefix(err.Error(), errBadRequest.Error()+": "), http.StatusBadRequest)
		return
	}
	log.Printf("[!] Share render failed for %q (%s %s): %v", Subject(r.Context()), r.Method, r.URL.Path, err)
	status := http.StatusInternalServerError
	if errors.Is(err, context.DeadlineExceeded) {
		status = http.StatusGatewayTimeout
	}
	writeError(w, PublicError, status)
}

func applyOverlay(o *config.Overlay, req ShareRequest) {
	if req.Watermark != "" {
		o.Watermark = req.Watermark
	}
	if req.QRURL != "" {
		o.QRURL = req.QRURL
	}
}

func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: message})
}
