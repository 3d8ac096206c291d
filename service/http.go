package service

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Comcast/nudge/core"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Handler returns the service's HTTP API.
//
//	GET  /messages                   available messages
//	GET  /messages/next              the message to show (204 if none)
//	GET  /messages/{id}/action       the resolved action
//	POST /messages/{id}/{event}      displayed, dismissed, or pressed
//	PUT  /metadata                   replace a message's metadata
//	GET  /catalog                    the current catalog, messages in order
//	GET  /catalog/report             catalog analysis
//	GET  /metrics                    Prometheus metrics
//	GET  /ws/api                     websocket (see Op), if enabled
//
// Custom attributes come from the "attributes" query parameter as a
// JSON object.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /messages", s.withAttributes(func(w http.ResponseWriter, r *http.Request) {
		s.do(w, r, &Op{Op: "list"}, func(o *Op) interface{} {
			if o.Messages == nil {
				return []*core.Message{}
			}
			return o.Messages
		})
	}))

	mux.HandleFunc("GET /messages/next", s.withAttributes(func(w http.ResponseWriter, r *http.Request) {
		op := &Op{Op: "next"}
		if err := op.Do(r.Context(), s); err != nil {
			s.complain(w, err, statusFor(err))
			return
		}
		if op.Message == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		s.reply(w, op.Message)
	}))

	mux.HandleFunc("GET /messages/{id}/action", s.withAttributes(func(w http.ResponseWriter, r *http.Request) {
		s.do(w, r, &Op{Op: "action", Id: r.PathValue("id")}, func(o *Op) interface{} {
			return map[string]string{"action": o.Action}
		})
	}))

	mux.HandleFunc("POST /messages/{id}/{event}", s.withAttributes(func(w http.ResponseWriter, r *http.Request) {
		event := r.PathValue("event")
		if !isEvent(event) {
			s.complain(w, &UnknownEvent{event}, http.StatusNotFound)
			return
		}
		s.do(w, r, &Op{Op: event, Id: r.PathValue("id")}, func(o *Op) interface{} {
			return o.Metadata
		})
	}))

	mux.HandleFunc("PUT /metadata", func(w http.ResponseWriter, r *http.Request) {
		var md core.Metadata
		if err := json.NewDecoder(r.Body).Decode(&md); err != nil {
			s.complain(w, err, http.StatusBadRequest)
			return
		}
		if err := s.UpdateMetadata(r.Context(), &md); err != nil {
			s.complain(w, err, statusFor(err))
			return
		}
		s.reply(w, &md)
	})

	mux.HandleFunc("GET /catalog", func(w http.ResponseWriter, r *http.Request) {
		c, err := s.Catalog(r.Context())
		if err != nil {
			s.complain(w, err, statusFor(err))
			return
		}
		s.reply(w, c)
	})

	mux.HandleFunc("GET /catalog/report", func(w http.ResponseWriter, r *http.Request) {
		a, err := s.Report(r.Context())
		if err != nil {
			s.complain(w, err, statusFor(err))
			return
		}
		s.reply(w, a)
	})

	mux.Handle("GET /metrics", promhttp.HandlerFor(s.Metrics.Registry, promhttp.HandlerOpts{}))

	if s.Websockets {
		mux.HandleFunc("GET /ws/api", s.withAttributes(s.webSocket))
	}

	return mux
}

func isEvent(event string) bool {
	for _, e := range Events {
		if e == event {
			return true
		}
	}
	return false
}

// withAttributes parses the "attributes" query parameter into the
// request's context.
func (s *Service) withAttributes(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		js := r.URL.Query().Get("attributes")
		if js == "" {
			h(w, r)
			return
		}
		var attrs map[string]interface{}
		if err := json.Unmarshal([]byte(js), &attrs); err != nil {
			s.complain(w, &BadRequest{"bad attributes: " + err.Error()}, http.StatusBadRequest)
			return
		}
		h(w, r.WithContext(WithAttributes(r.Context(), attrs)))
	}
}

func (s *Service) do(w http.ResponseWriter, r *http.Request, op *Op, result func(*Op) interface{}) {
	if err := op.Do(r.Context(), s); err != nil {
		s.complain(w, err, statusFor(err))
		return
	}
	s.reply(w, result(op))
}

func (s *Service) complain(w http.ResponseWriter, err error, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": err.Error()}); err != nil {
		s.Logger.Warn("write failed", zap.Error(err))
	}
}

func (s *Service) reply(w http.ResponseWriter, x interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(x); err != nil {
		s.Logger.Warn("write failed", zap.Error(err))
	}
}

// ListenAndServe serves the Handler until the context is done.
func (s *Service) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	errs := make(chan error, 1)
	go func() {
		s.Logger.Info("listening", zap.String("addr", addr))
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		if err := srv.Shutdown(context.Background()); err != nil {
			return err
		}
		<-errs
		return nil
	}
}
