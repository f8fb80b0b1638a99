package httpapi

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/inhies/go-bytesize"
	"go.uber.org/zap"

	"epaperdash/pkg/config"
	"epaperdash/pkg/frame"
	"epaperdash/pkg/raster"
	"epaperdash/pkg/settings"
)

var allowedExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp"}

// Server is the thin HTTP transport over the controller's operations.
type Server struct {
	cfg    *config.Config
	ctrl   *frame.Controller
	loop   *frame.Loop
	logger *zap.Logger
}

func NewServer(cfg *config.Config, ctrl *frame.Controller, loop *frame.Loop, logger *zap.Logger) *Server {
	return &Server{cfg: cfg, ctrl: ctrl, loop: loop, logger: logger}
}

func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.NoCache)

	r.Get("/", s.handleIndex)
	r.Post("/upload", s.handleUpload)
	r.Post("/clear", s.handleClear)
	r.Post("/refresh", s.handleRefresh)
	r.Post("/rotate", s.handleRotate)
	r.Get("/settings", s.handleGetSettings)
	r.Post("/settings", s.handlePostSettings)
	r.Post("/render_dashboard", s.handleRenderDashboard)
	r.Get("/preview", s.handlePreview)
	r.Post("/preview_resize", s.handlePreviewResize)
	r.Get("/preview_resize_image", s.handlePreviewResizeImage)
	r.Post("/auto", s.handleAuto)

	return r
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte("<!DOCTYPE html><html><body><h1>e-paper frame</h1></body></html>"))
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	file, p, err := s.readImageForm(r)
	if err != nil {
		s.fail(w, err, "upload failed")
		return
	}
	defer func() { _ = file.Close() }()

	rotation, err := s.ctrl.Upload(file, p)
	if err != nil {
		s.fail(w, err, "upload failed")
		return
	}
	s.json(w, map[string]interface{}{"success": true, "rotation": rotation})
}

func (s *Server) handleClear(w http.ResponseWriter, _ *http.Request) {
	if err := s.ctrl.Clear(); err != nil {
		s.fail(w, err, "clear failed")
		return
	}
	s.json(w, map[string]interface{}{"success": true})
}

func (s *Server) handleRefresh(w http.ResponseWriter, _ *http.Request) {
	if err := s.ctrl.Refresh(); err != nil {
		s.fail(w, err, "refresh failed")
		return
	}
	s.json(w, map[string]interface{}{"success": true})
}

func (s *Server) handleRotate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Degrees int `json:"degrees"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.failMsg(w, "invalid request body")
		return
	}

	rotation, err := s.ctrl.Rotate(req.Degrees)
	if err != nil {
		s.fail(w, err, "rotate failed")
		return
	}
	s.json(w, map[string]interface{}{"success": true, "rotation": rotation})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, _ *http.Request) {
	s.json(w, s.ctrl.Settings())
}

func (s *Server) handlePostSettings(w http.ResponseWriter, r *http.Request) {
	var patch settings.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		s.failMsg(w, "invalid request body")
		return
	}

	updated, err := s.ctrl.ApplySettings(patch)
	if err != nil {
		s.fail(w, err, "settings update failed")
		return
	}
	s.json(w, map[string]interface{}{"success": true, "settings": updated})
}

func (s *Server) handleRenderDashboard(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.RenderDashboard(r.Context()); err != nil {
		s.fail(w, err, "render failed")
		return
	}
	s.json(w, map[string]interface{}{"success": true})
}

func (s *Server) handlePreview(w http.ResponseWriter, _ *http.Request) {
	bs, err := s.ctrl.Preview()
	if err != nil {
		s.failMsg(w, "no preview available")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(bs)
}

func (s *Server) handlePreviewResize(w http.ResponseWriter, r *http.Request) {
	file, p, err := s.readImageForm(r)
	if err != nil {
		s.fail(w, err, "preview failed")
		return
	}
	defer func() { _ = file.Close() }()

	if err := s.ctrl.PreviewResize(file, p); err != nil {
		s.fail(w, err, "preview failed")
		return
	}
	s.json(w, map[string]interface{}{"success": true, "preview_url": "/preview_resize_image"})
}

func (s *Server) handlePreviewResizeImage(w http.ResponseWriter, _ *http.Request) {
	bs, ok := s.ctrl.ResizePreview()
	if !ok {
		http.Error(w, "No preview available", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(bs)
}

func (s *Server) handleAuto(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.failMsg(w, "invalid request body")
		return
	}

	switch strings.ToLower(req.Action) {
	case "start":
		s.loop.Start()
	case "stop":
		s.loop.Stop()
	default:
		s.failMsg(w, "action must be start or stop")
		return
	}
	s.json(w, map[string]interface{}{"success": true, "running": s.loop.Running()})
}

func (s *Server) readImageForm(r *http.Request) (multipart.File, raster.Params, error) {
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		return nil, raster.Params{}, frame.Invalid("no image provided")
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		return nil, raster.Params{}, frame.Invalid("no image provided")
	}

	if header.Filename == "" {
		_ = file.Close()
		return nil, raster.Params{}, frame.Invalid("no image selected")
	}
	if !hasAllowedExtension(header.Filename) {
		_ = file.Close()
		return nil, raster.Params{}, frame.Invalid("invalid file type, only JPG, PNG, GIF, BMP are allowed")
	}
	if header.Size > s.cfg.MaxUploadBytes {
		_ = file.Close()
		return nil, raster.Params{}, frame.Invalid("file too large: " +
			bytesize.New(float64(header.Size)).String() + " exceeds " +
			bytesize.New(float64(s.cfg.MaxUploadBytes)).String())
	}

	p := raster.Params{
		Scale:   formFloat(r, "scale", 1.0),
		OffsetX: formInt(r, "offset_x", 0),
		OffsetY: formInt(r, "offset_y", 0),
		CropX:   formInt(r, "crop_x", 0),
		CropY:   formInt(r, "crop_y", 0),
		CropW:   formInt(r, "crop_w", s.cfg.DisplayWidth),
		CropH:   formInt(r, "crop_h", s.cfg.DisplayHeight),
	}
	return file, p, nil
}

func (s *Server) json(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.With(zap.Error(err)).Error("response encode failed")
	}
}

// fail converts an operation error into the JSON failure shape. Validation
// messages are surfaced verbatim; anything else is logged with context and
// reported as a generic failure.
func (s *Server) fail(w http.ResponseWriter, err error, generic string) {
	if frame.IsValidationError(err) {
		s.logger.With(zap.Error(err)).Warn("request rejected")
		s.failMsg(w, err.Error())
		return
	}
	s.logger.With(zap.Error(err)).Error(generic)
	s.failMsg(w, err.Error())
}

func (s *Server) failMsg(w http.ResponseWriter, msg string) {
	s.json(w, map[string]interface{}{"success": false, "error": msg})
}

func hasAllowedExtension(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range allowedExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func formFloat(r *http.Request, key string, def float64) float64 {
	if v := r.FormValue(key); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return def
}

func formInt(r *http.Request, key string, def int) int {
	if v := r.FormValue(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}
