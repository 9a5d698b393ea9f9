// Package web implements the dashboard: server-rendered pages over the store with POST/redirect
// forms for every write.
package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"time"

	"github.com/uhppoted/uhppoted-app-tasks/log"
	"github.com/uhppoted/uhppoted-app-tasks/model"
	"github.com/uhppoted/uhppoted-app-tasks/store"
)

//go:embed html
var HTML embed.FS

const Title = "Planilla de Tareas"

type Server struct {
	store     *store.Store
	templates *template.Template
	now       func() time.Time
}

func NewServer(s *store.Store) (*Server, error) {
	functions := template.FuncMap{
		"date":    model.FormatDate,
		"instant": model.FormatTimestamp,
		"colour":  model.Colour,
		"path":    url.PathEscape,
	}

	templates, err := template.New("").Funcs(functions).ParseFS(HTML, "html/*.html")
	if err != nil {
		return nil, fmt.Errorf("error parsing page templates (%v)", err)
	}

	return &Server{
		store:     s,
		templates: templates,
		now:       time.Now,
	}, nil
}

// WithClock replaces the time source used for 'today'.
func (s *Server) WithClock(now func() time.Time) *Server {
	s.now = now

	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, rq *http.Request) {
		http.Redirect(w, rq, "/inicio", http.StatusSeeOther)
	})

	mux.HandleFunc("GET /inicio", s.inicio)
	mux.HandleFunc("POST /tasks", s.addTask)
	mux.HandleFunc("GET /tasks/{id}/edit", s.editTask)
	mux.HandleFunc("POST /tasks/{id}", s.updateTask)
	mux.HandleFunc("POST /tasks/{id}/delete", s.deleteTask)
	mux.HandleFunc("POST /tasks/{id}/comments", s.addComment)
	mux.HandleFunc("POST /comments/{id}/delete", s.deleteComment)
	mux.HandleFunc("POST /categories", s.addCategory)
	mux.HandleFunc("POST /categories/{name}/delete", s.deleteCategory)

	mux.HandleFunc("GET /usuarios", s.usuarios)
	mux.HandleFunc("POST /users", s.addUser)
	mux.HandleFunc("POST /users/{name}/delete", s.deleteUser)

	mux.HandleFunc("POST /refresh", s.refresh)

	mux.HandleFunc("GET /analisis", s.analisis)
	mux.HandleFunc("GET /reportes", s.reportes)
	mux.HandleFunc("GET /reportes/tareas.tsv", s.tsv)
	mux.HandleFunc("GET /reportes/planilla.xlsx", s.xlsx)

	if static, err := fs.Sub(HTML, "html"); err == nil {
		mux.Handle("GET /css/", http.FileServer(http.FS(static)))
	}

	return logged(mux)
}

// Run serves the dashboard on 'bind' until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, bind string) error {
	srv := &http.Server{
		Addr:              bind,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)

	go func() {
		log.Infof("http", "listening on %v", bind)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}

		close(errs)
	}()

	select {
	case err := <-errs:
		return err

	case <-ctx.Done():
		log.Infof("http", "shutting down")

		shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return srv.Shutdown(shutdown)
	}
}

func (s *Server) render(w http.ResponseWriter, page string, data any) {
	var b bytes.Buffer

	if err := s.templates.ExecuteTemplate(&b, page, data); err != nil {
		log.Warnf("http", "error formatting %v (%v)", page, err)
		http.Error(w, "Error formatting page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(b.Bytes())
}

type recorder struct {
	http.ResponseWriter
	status int
}

func (r *recorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func logged(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, rq *http.Request) {
		start := time.Now()
		rw := recorder{ResponseWriter: w, status: http.StatusOK}

		h.ServeHTTP(&rw, rq)

		log.Debugf("http", "%v %v %v %v", rq.Method, rq.URL.Path, rw.status, time.Since(start).Round(time.Microsecond))
	})
}
