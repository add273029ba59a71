// Package server publishes the generated calendar over HTTP and converts
// uploaded contact exports on demand.
package server

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/tartampluch/birthday-liberator/internal/config"
	"github.com/tartampluch/birthday-liberator/internal/engine"
)

// Converter turns a contact export into a calendar report.
// *engine.Generator implements it.
type Converter interface {
	Convert(ctx context.Context, r io.Reader) (engine.Report, error)
}

// cacheItem stores the rendered calendar and its metadata for HTTP caching.
type cacheItem struct {
	data         []byte
	etag         string
	lastModified string // RFC1123 format required by HTTP headers
}

// CalendarServer serves the latest calendar and the upload endpoint.
type CalendarServer struct {
	// cache uses atomic.Pointer for lock-free reads: clients poll the
	// calendar often, the worker replaces it rarely.
	cache     atomic.Pointer[cacheItem]
	Port      string
	converter Converter
	router    *chi.Mux
}

// NewCalendarServer creates a server. A nil converter disables POST /convert.
func NewCalendarServer(port string, converter Converter) *CalendarServer {
	s := &CalendarServer{
		Port:      port,
		converter: converter,
		router:    chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *CalendarServer) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.GetHead)
}

func (s *CalendarServer) setupRoutes() {
	s.router.Get(config.RouteRoot, s.handleCalendarRequest)
	s.router.Get(config.RouteCalendar, s.handleCalendarRequest)
	s.router.Get(config.RouteHealth, handleHealth)
	if s.converter != nil {
		s.router.Post(config.RouteConvert, s.handleConvert)
	}
	s.router.MethodNotAllowed(handleMethodNotAllowed)
}

// Handler exposes the router, mainly for tests and embedding.
func (s *CalendarServer) Handler() http.Handler {
	return s.router
}

// Start runs the HTTP server and blocks until the context is cancelled.
func (s *CalendarServer) Start(ctx context.Context) error {
	if s.Port == "" {
		return errors.New(config.ErrPortRequired)
	}

	srv := &http.Server{
		Addr:         config.LocalhostBindAddr + config.AddrSeparator + s.Port,
		Handler:      s.router,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	serverError := make(chan error, config.ChannelBufferSize)

	go func() {
		slog.Info(config.MsgServerListen,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyPort, s.Port,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverError <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info(config.MsgServerStop, config.LogKeyComponent, config.CompServer)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: %w", config.ErrServerShutdown, err)
		}
		return nil

	case err := <-serverError:
		return fmt.Errorf("%s: %w", config.ErrServerStartup, err)
	}
}

// Update atomically replaces the served content.
func (s *CalendarServer) Update(data []byte) {
	item := &cacheItem{
		data:         data,
		etag:         etagOf(data),
		lastModified: time.Now().UTC().Format(http.TimeFormat),
	}

	// Readers see either the old or the new item, never a mix.
	s.cache.Store(item)

	slog.Debug(config.MsgCacheUpdated,
		config.LogKeyComponent, config.CompServer,
		config.LogKeySizeBytes, len(data),
		config.LogKeyETag, item.etag,
	)
}

// Ready reports whether a calendar has been published.
func (s *CalendarServer) Ready() bool {
	return s.cache.Load() != nil
}

func etagOf(data []byte) string {
	hash := sha256.Sum256(data)
	return fmt.Sprintf(config.FormatETag, hex.EncodeToString(hash[:]))
}

// handleCalendarRequest serves the ICS content with HTTP caching support.
func (s *CalendarServer) handleCalendarRequest(w http.ResponseWriter, r *http.Request) {
	item := s.cache.Load()

	if item == nil {
		w.Header().Set(config.HeaderRetryAfter, config.RetryAfterSeconds)
		http.Error(w, config.HTTPMsgInitializing, http.StatusServiceUnavailable)
		return
	}

	w.Header().Set(config.HeaderContentType, config.MimeTextCalendar)
	w.Header().Set(config.HeaderXContentType, config.MimeNoSniff)
	w.Header().Set(config.HeaderCacheControl, config.CacheControlPrivate)
	w.Header().Set(config.HeaderETag, item.etag)
	w.Header().Set(config.HeaderLastModified, item.lastModified)

	if match := r.Header.Get(config.HeaderIfNoneMatch); match == item.etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	if since := r.Header.Get(config.HeaderIfModifiedSince); since != "" {
		if clientTime, err := time.Parse(http.TimeFormat, since); err == nil {
			if serverTime, err := time.Parse(http.TimeFormat, item.lastModified); err == nil {
				if !serverTime.After(clientTime) {
					w.WriteHeader(http.StatusNotModified)
					return
				}
			}
		}
	}

	if r.Method == http.MethodGet {
		writeBody(w, item.data)
	}
}

// handleConvert converts an uploaded export, sent either as the "file" field
// of a multipart form or as the raw request body.
func (s *CalendarServer) handleConvert(w http.ResponseWriter, r *http.Request) {
	log := slog.With(
		config.LogKeyComponent, config.CompServer,
		config.LogKeyRequestID, middleware.GetReqID(r.Context()),
	)

	r.Body = http.MaxBytesReader(w, r.Body, config.MaxInputSize)

	src, cleanup, err := uploadSource(r)
	if err != nil {
		log.Warn(config.MsgUploadFailed, config.LogKeyError, err)
		msg := config.ErrUploadRead
		if engine.IsTooLarge(err) {
			msg = config.MsgInputTooLarge
		}
		writeError(w, statusFor(err), msg)
		return
	}
	defer cleanup()

	report, err := s.converter.Convert(r.Context(), src)
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		log.Warn(config.MsgUploadFailed, config.LogKeyError, err)
		writeError(w, statusFor(err), engine.Explain(err))
		return
	}

	w.Header().Set(config.HeaderExtracted, fmt.Sprint(report.Extracted))
	w.Header().Set(config.HeaderProcessed, fmt.Sprint(report.Processed))

	if problem := report.Problem(); problem != nil {
		log.Info(config.MsgUploadFailed, config.LogKeyReason, problem)
		writeError(w, http.StatusUnprocessableEntity, engine.Explain(problem))
		return
	}

	log.Info(config.MsgUploadDone,
		config.LogKeyFormat, report.Format.String(),
		config.LogKeyExtracted, report.Extracted,
		config.LogKeyProcessed, report.Processed,
	)

	w.Header().Set(config.HeaderContentType, config.MimeTextCalendar)
	w.Header().Set(config.HeaderXContentType, config.MimeNoSniff)
	w.Header().Set(config.HeaderContentDisposition, fmt.Sprintf(config.FormatAttachment, config.DefaultUploadName))
	writeBody(w, report.Calendar)
}

// uploadSource picks the multipart file or the raw body.
func uploadSource(r *http.Request) (io.Reader, func(), error) {
	noop := func() {}
	if !isMultipart(r) {
		return r.Body, noop, nil
	}
	if err := r.ParseMultipartForm(config.MaxInputSize); err != nil {
		return nil, noop, err
	}
	file, _, err := r.FormFile(config.FormFieldFile)
	if err != nil {
		return nil, noop, err
	}
	return file, func() { _ = file.Close() }, nil
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get(config.HeaderContentType), config.MimeMultipart)
}

// statusFor maps conversion and upload errors to HTTP statuses.
func statusFor(err error) int {
	if engine.IsTooLarge(err) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set(config.HeaderContentType, config.MimeTextPlain)
	writeBody(w, []byte(config.HTTPMsgOK))
}

func handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	allowed := config.AllowedMethods
	if r.URL.Path == config.RouteConvert {
		allowed = http.MethodPost
	}
	w.Header().Set(config.HeaderAllow, allowed)
	http.Error(w, config.HTTPMsgMethodNotAll, http.StatusMethodNotAllowed)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	http.Error(w, msg, status)
}

func writeBody(w http.ResponseWriter, data []byte) {
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		slog.Error(config.ErrWriteResp,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyError, err,
		)
	}
}

// requestLogger logs every request at debug level with its chi request ID.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		slog.Debug(config.MsgRequestServed,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyRequestID, middleware.GetReqID(r.Context()),
			config.LogKeyMethod, r.Method,
			config.LogKeyPath, r.URL.Path,
			config.LogKeyStatus, ww.Status(),
			config.LogKeySizeBytes, ww.BytesWritten(),
			config.LogKeyDuration, time.Since(start).Milliseconds(),
		)
	})
}
