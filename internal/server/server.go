// Package server exposes the renderer over HTTP.
//
// GET /render returns one encoded image per request. Identical requests that
// arrive while a render is in flight share its result, and completed renders
// are kept in a bounded cache. GET /ws accepts one JSON render request over a
// websocket, streams progress frames while the image is being rendered and
// finishes with the encoded image as a binary frame. Apart from the render
// cache no state is kept between requests.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/coder/websocket"
	"golang.org/x/sync/singleflight"

	"github.com/gogpu/mandelbrot"
	"github.com/gogpu/mandelbrot/internal/cache"
)

// Service defaults.
const (
	// DefaultWidth and DefaultHeight size renders that do not ask for a size.
	DefaultWidth  = 960
	DefaultHeight = 540

	// DefaultMaxPixels caps width*height of a single request.
	DefaultMaxPixels = 4096 * 4096

	// ProgressInterval is the minimum delay between websocket progress frames.
	ProgressInterval = 100 * time.Millisecond
)

// ErrTooLarge is returned for requests above the pixel limit.
var ErrTooLarge = fmt.Errorf("%w: image exceeds the service pixel limit", mandelbrot.ErrConfig)

// Message is a websocket text frame, also used as the JSON body of HTTP errors.
type Message struct {
	// Type is "progress", "done" or "error".
	Type string `json:"type"`

	Done  int `json:"done,omitempty"`
	Total int `json:"total,omitempty"`

	// Format and Bytes describe the binary frame that follows a "done" message.
	Format string `json:"format,omitempty"`
	Bytes  int    `json:"bytes,omitempty"`

	Kind  string `json:"kind,omitempty"`
	Error string `json:"error,omitempty"`
}

// Server is an http.Handler serving the render endpoints.
type Server struct {
	mux        *http.ServeMux
	group      singleflight.Group
	images     *cache.Images
	cacheBytes int64
	maxPixels  int
	log        *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithMaxPixels sets the largest width*height a request may ask for.
// Zero or negative disables the limit.
func WithMaxPixels(n int) Option {
	return func(s *Server) {
		s.maxPixels = n
	}
}

// WithCacheBytes sets the memory budget for completed renders.
// Zero keeps cache.DefaultMaxBytes, a negative value disables caching.
func WithCacheBytes(n int64) Option {
	return func(s *Server) {
		s.cacheBytes = n
	}
}

// WithLogger sets the service logger. By default the server logs through
// mandelbrot.Logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.log = l
	}
}

// New creates a Server with its routes registered.
func New(opts ...Option) *Server {
	s := &Server{
		mux:       http.NewServeMux(),
		maxPixels: DefaultMaxPixels,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cacheBytes >= 0 {
		s.images = cache.New(s.cacheBytes)
	}

	s.mux.HandleFunc("GET /render", s.handleRender)
	s.mux.HandleFunc("GET /ws", s.handleWS)
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) logger() *slog.Logger {
	if s.log != nil {
		return s.log
	}
	return mandelbrot.Logger()
}

// result is what a shared render produces.
type result struct {
	data   []byte
	format mandelbrot.Format
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	q, err := requestFromQuery(r.URL.Query())
	if err == nil {
		err = s.admit(q)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}

	f, err := q.OutputFormat()
	if err != nil {
		s.writeError(w, err)
		return
	}
	key, err := cacheKey(q)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if s.images != nil {
		if data, ok := s.images.Get(key); ok {
			writeImage(w, f, data, "hit")
			return
		}
	}

	// The render outlives a single client so that callers sharing it are not
	// failed by the first one disconnecting.
	ctx := context.WithoutCancel(r.Context())
	v, err, shared := s.group.Do(key, func() (any, error) {
		res, err := s.render(ctx, q, nil)
		if err == nil && s.images != nil {
			s.images.Set(key, res.data)
		}
		return res, err
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	res := v.(result)

	s.logger().Debug("server: render served", "request", key, "shared", shared, "bytes", len(res.data))
	writeImage(w, res.format, res.data, "miss")
}

// CacheStats reports the render cache counters. The zero Stats is returned
// when caching is disabled.
func (s *Server) CacheStats() cache.Stats {
	if s.images == nil {
		return cache.Stats{}
	}
	return s.images.Stats()
}

func writeImage(w http.ResponseWriter, f mandelbrot.Format, data []byte, cacheState string) {
	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("X-Cache", cacheState)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger().Warn("server: websocket accept", "error", err)
		return
	}
	defer c.CloseNow()

	ctx := r.Context()
	if err := s.serveWS(ctx, c); err != nil {
		s.logger().Warn("server: websocket render", "remote", r.RemoteAddr, "error", err)
		msg, _ := sonic.Marshal(errorMessage(err))
		_ = c.Write(ctx, websocket.MessageText, msg)
		code := websocket.StatusInternalError
		if mandelbrot.KindOf(err) == mandelbrot.KindConfig {
			code = websocket.StatusUnsupportedData
		}
		_ = c.Close(code, mandelbrot.KindOf(err).String())
		return
	}
	_ = c.Close(websocket.StatusNormalClosure, "")
}

func (s *Server) serveWS(ctx context.Context, c *websocket.Conn) error {
	typ, payload, err := c.Read(ctx)
	if err != nil {
		return err
	}
	if typ != websocket.MessageText {
		return fmt.Errorf("%w: expected a JSON text frame", mandelbrot.ErrConfig)
	}

	// Keys absent from the payload keep their defaults.
	q := defaultRequest()
	if err := sonic.Unmarshal(payload, &q); err != nil {
		return fmt.Errorf("%w: decode request: %w", mandelbrot.ErrConfig, err)
	}
	if err := s.admit(q); err != nil {
		return err
	}

	var (
		done  atomic.Int64
		total = q.Height
		stop  = make(chan struct{})
		wg    sync.WaitGroup
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.streamProgress(ctx, c, &done, total, stop)
	}()

	res, err := s.render(ctx, q, func(d, _ int) {
		for {
			cur := done.Load()
			if int64(d) <= cur || done.CompareAndSwap(cur, int64(d)) {
				return
			}
		}
	})
	close(stop)
	wg.Wait()
	if err != nil {
		return err
	}

	msg, err := sonic.Marshal(Message{
		Type:   "done",
		Done:   total,
		Total:  total,
		Format: res.format.String(),
		Bytes:  len(res.data),
	})
	if err != nil {
		return err
	}
	if err := c.Write(ctx, websocket.MessageText, msg); err != nil {
		return err
	}
	return c.Write(ctx, websocket.MessageBinary, res.data)
}

// streamProgress sends a progress frame every ProgressInterval while the
// counter moves, until stop is closed.
func (s *Server) streamProgress(ctx context.Context, c *websocket.Conn, done *atomic.Int64, total int, stop <-chan struct{}) {
	t := time.NewTicker(ProgressInterval)
	defer t.Stop()

	var last int64 = -1
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-t.C:
			d := done.Load()
			if d == last {
				continue
			}
			last = d
			msg, err := sonic.Marshal(Message{Type: "progress", Done: int(d), Total: total})
			if err != nil {
				return
			}
			if err := c.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}
}

// render builds, renders and encodes q.
func (s *Server) render(ctx context.Context, q mandelbrot.Request, progress func(done, total int)) (result, error) {
	f, err := q.OutputFormat()
	if err != nil {
		return result{}, err
	}

	var opts []mandelbrot.RenderOption
	if progress != nil {
		opts = append(opts, mandelbrot.WithProgress(progress))
	}
	r, err := q.Renderer(opts...)
	if err != nil {
		return result{}, err
	}

	buf, err := r.RenderImage(ctx)
	if err != nil {
		return result{}, err
	}
	data, err := mandelbrot.EncodeToBytes(f, buf, r.Bounds(), r.Config().ColorMode)
	if err != nil {
		return result{}, err
	}
	return result{data: data, format: f}, nil
}

// defaultRequest is the request absent fields fall back to: the library
// defaults at the service's smaller default size.
func defaultRequest() mandelbrot.Request {
	q := mandelbrot.DefaultRequest()
	q.Width = DefaultWidth
	q.Height = DefaultHeight
	return q
}

// admit rejects invalid or oversized bounds before any work is shared.
func (s *Server) admit(q mandelbrot.Request) error {
	b := q.Bounds()
	if err := b.Validate(); err != nil {
		return err
	}
	if s.maxPixels > 0 && b.Pixels() > s.maxPixels {
		return fmt.Errorf("%w: %s is above %d pixels", ErrTooLarge, b, s.maxPixels)
	}
	return nil
}

// cacheKey identifies the image q produces. Workers and Schedule do not
// change the output and are left out.
func cacheKey(q mandelbrot.Request) (string, error) {
	q.Workers = 0
	q.Schedule = ""
	key, err := sonic.Marshal(q)
	if err != nil {
		return "", err
	}
	return string(key), nil
}

// requestFromQuery reads a render request from URL query parameters.
// Absent parameters keep their defaults; present ones are taken as given.
func requestFromQuery(v url.Values) (mandelbrot.Request, error) {
	q := defaultRequest()
	for name, dst := range map[string]*string{
		"ul":        &q.UpperLeft,
		"lr":        &q.LowerRight,
		"color":     &q.Color,
		"intensity": &q.Intensity,
		"format":    &q.Format,
		"schedule":  &q.Schedule,
	} {
		if v.Has(name) {
			*dst = v.Get(name)
		}
	}

	for name, dst := range map[string]*int{
		"width":   &q.Width,
		"height":  &q.Height,
		"workers": &q.Workers,
	} {
		if err := queryInt(v, name, dst); err != nil {
			return q, err
		}
	}
	if v.Has("limit") {
		n, err := strconv.ParseUint(v.Get("limit"), 10, 32)
		if err != nil {
			return q, fmt.Errorf("%w: limit: %w", mandelbrot.ErrConfig, err)
		}
		q.Limit = uint32(n)
	}
	if v.Has("radius") {
		r, err := strconv.ParseFloat(v.Get("radius"), 64)
		if err != nil {
			return q, fmt.Errorf("%w: radius: %w", mandelbrot.ErrConfig, err)
		}
		q.EscapeRadiusSq = r
	}
	return q, nil
}

func queryInt(v url.Values, name string, dst *int) error {
	if !v.Has(name) {
		return nil
	}
	n, err := strconv.Atoi(v.Get(name))
	if err != nil {
		return fmt.Errorf("%w: %s: %w", mandelbrot.ErrConfig, name, err)
	}
	*dst = n
	return nil
}

func errorMessage(err error) Message {
	return Message{Type: "error", Kind: mandelbrot.KindOf(err).String(), Error: err.Error()}
}

// writeError maps err to a status code and writes it as a JSON Message.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if mandelbrot.KindOf(err) == mandelbrot.KindConfig {
		status = http.StatusBadRequest
	}
	if status >= 500 {
		s.logger().Error("server: render request failed", "error", err)
	}

	body, merr := sonic.Marshal(errorMessage(err))
	if merr != nil {
		http.Error(w, err.Error(), status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// ListenAndServe serves h on addr until ctx is canceled, then shuts down
// gracefully.
func ListenAndServe(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	mandelbrot.Logger().Info("server: listening", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
