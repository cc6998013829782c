package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/coursemap/pkg/buildinfo"
	"github.com/matzehuels/coursemap/pkg/course"
	"github.com/matzehuels/coursemap/pkg/diagram"
	"github.com/matzehuels/coursemap/pkg/drag"
	cerrors "github.com/matzehuels/coursemap/pkg/errors"
	"github.com/matzehuels/coursemap/pkg/render"
	"github.com/matzehuels/coursemap/pkg/validation"
	"github.com/matzehuels/coursemap/pkg/widget"
)

const (
	shutdownTimeout = 5 * time.Second
	maxBodyBytes    = 1 << 20
)

func (c *CLI) serveCommand() *cobra.Command {
	var (
		opts viewOpts
		addr string
	)

	cmd := &cobra.Command{
		Use:   "serve [document]",
		Short: "Serve a live preview of a course document",
		Long: `Serves the diagram over HTTP:

  GET  /diagram.{svg,json,dot,mermaid,graphviz,png}
  GET  /course                 the current document as JSON
  POST /validation             {"<name>": {"valid": false, "messages": [...]}}
  POST /rename                 {"old": "Intro", "new": "Welcome"}
  DELETE /steps/{ref}          delete a step, relinking its children
  POST /save                   write the document back to disk`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: documentArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			doc, _, err := loadDocument(args[0])
			if err != nil {
				return err
			}
			s := newServer(args[0], doc, opts, loggerFromContext(cmd.Context()))
			return s.listen(cmd.Context(), addr)
		},
	}
	opts.register(cmd, true)
	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "listen address")
	return cmd
}

// server exposes one widget over HTTP. The widget is not safe for concurrent
// use, so every handler holds mu.
type server struct {
	mu     sync.Mutex
	path   string
	course *course.Course
	w      *widget.Widget
	logger *log.Logger
}

func newServer(path string, c *course.Course, opts viewOpts, logger *log.Logger) *server {
	return &server{
		path:   path,
		course: c,
		w:      newWidget(c, opts, logger, filepath.Dir(path), widget.Options{}),
		logger: logger,
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/health", s.handleHealth)
	r.Get("/diagram.{format}", s.handleDiagram)
	r.Get("/course", s.handleCourse)
	r.Post("/validation", s.handleValidation)
	r.Post("/rename", s.handleRename)
	r.Delete("/steps/{ref}", s.handleDelete)
	r.Post("/save", s.handleSave)
	return r
}

// listen serves until ctx is cancelled, then shuts down gracefully.
func (s *server) listen(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return cerrors.Wrap(cerrors.ErrCodeInvalidInput, err, "cannot listen on %s", addr)
	}
	srv := &http.Server{Handler: s.routes(), ReadHeaderTimeout: 10 * time.Second}

	printSuccess("Serving %s", StyleTitle.Render(s.course.Title))
	printKeyValue("URL", fmt.Sprintf("http://%s/diagram.svg", ln.Addr()))
	printDetail("Press Ctrl+C to stop")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Debug("shutting down", "addr", ln.Addr())
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

func (s *server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"took", time.Since(start).Round(time.Microsecond),
			"id", middleware.GetReqID(r.Context()))
	})
}

// =============================================================================
// Handlers
// =============================================================================

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Resolved()})
}

// handleDiagram renders the current state. Query parameters: screen=1 draws
// the viewport, interactive=1 embeds hover highlighting, dir=LR flips
// Mermaid output.
func (s *server) handleDiagram(w http.ResponseWriter, r *http.Request) {
	format, err := render.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		writeError(w, classify(err))
		return
	}
	q := r.URL.Query()
	opts := render.Options{
		Screen:      q.Get("screen") == "1",
		Interactive: q.Get("interactive") == "1",
		Direction:   render.Direction(strings.ToUpper(q.Get("dir"))),
	}

	s.mu.Lock()
	opts.Title = s.course.Title
	scene := s.w.Frame()
	s.mu.Unlock()

	data, err := render.Render(r.Context(), scene, format, opts)
	if err != nil {
		writeError(w, cerrors.Wrap(cerrors.ErrCodeInternal, err, "render %s", format))
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(data)
}

func (s *server) handleCourse(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := snapshot(s.course, s.w)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := course.Encode(w, course.FormatJSON, c); err != nil {
		s.logger.Warn("encode course", "err", err)
	}
}

// handleValidation replaces the validation results wholesale.
func (s *server) handleValidation(w http.ResponseWriter, r *http.Request) {
	var results map[string]validation.Outcome
	if err := decodeBody(w, r, &results); err != nil {
		writeError(w, err)
		return
	}
	s.mu.Lock()
	s.course.Validation = results
	s.w.SetValidationResults(results)
	failed := 0
	for _, g := range s.w.Frame().Glyphs {
		if g.Badge {
			failed++
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]int{"results": len(results), "badges": failed})
}

type renameRequest struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// handleRename renames every transition called Old. Validation results
// follow the new name.
func (s *server) handleRename(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := cerrors.ValidateName(req.New); err != nil {
		writeError(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.w.ReadOnly() {
		writeError(w, classify(drag.ErrReadOnly))
		return
	}
	renamed := 0
	s.course.Walk(func(t, _ *course.Transition) {
		if t.Name == req.Old {
			t.Name = req.New
			renamed++
		}
	})
	if renamed == 0 {
		writeError(w, cerrors.New(cerrors.ErrCodeNodeNotFound, "no step named %q", req.Old))
		return
	}
	s.w.RenameNode(req.Old, req.New)
	if v, ok := s.course.Validation[req.Old]; ok {
		delete(s.course.Validation, req.Old)
		s.course.Validation[req.New] = v
	}
	writeJSON(w, http.StatusOK, map[string]int{"renamed": renamed})
}

// handleDelete deletes the step with the given document ID. Deletes are not
// confirmed; owned files are removed first.
func (s *server) handleDelete(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "ref")

	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.course.Find(ref)
	if !ok {
		writeError(w, cerrors.New(cerrors.ErrCodeNodeNotFound, "no step %q", ref))
		return
	}
	n, ok := s.w.Diagram().FindPayload(t)
	if !ok {
		writeError(w, cerrors.New(cerrors.ErrCodeNodeNotFound, "step %q is not in the diagram", ref))
		return
	}
	out, err := s.w.Delete(n.ID)
	if err == nil {
		err = out.Err
	}
	if err != nil {
		writeError(w, classify(err))
		return
	}
	if out.Kind != drag.OutcomeDelete {
		writeError(w, cerrors.New(cerrors.ErrCodeConflict, "delete of %q did not complete", ref))
		return
	}
	// The course tree is rebuilt from the widget so Find sees the change.
	c, err := snapshot(s.course, s.w)
	if err != nil {
		writeError(w, err)
		return
	}
	s.course.Root = c.Root
	writeJSON(w, http.StatusOK, map[string]any{"deleted": ref, "steps": s.w.Diagram().Len() - endMarkers(s.w.Diagram())})
}

func (s *server) handleSave(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := snapshot(s.course, s.w)
	if err == nil {
		err = course.Save(s.path, c)
	}
	if err != nil {
		writeError(w, classify(err))
		return
	}
	s.course = c
	s.logger.Info("saved", "path", s.path)
	writeJSON(w, http.StatusOK, map[string]string{"saved": s.path})
}

func endMarkers(d *diagram.Diagram) int {
	if _, ok := d.EndMarker(); ok {
		return 1
	}
	return 0
}

// =============================================================================
// JSON helpers
// =============================================================================

type errorResponse struct {
	Code    cerrors.Code `json:"code"`
	Message string       `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, cerrors.HTTPStatus(err), errorResponse{
		Code:    cerrors.GetCode(err),
		Message: cerrors.UserMessage(err),
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return cerrors.Wrap(cerrors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}
