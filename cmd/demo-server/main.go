package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"

	"github.com/dewolfe001/dynamic-points/adapters/attrmap"
	mem "github.com/dewolfe001/dynamic-points/adapters/memory"
	ws "github.com/dewolfe001/dynamic-points/adapters/websocket"
	"github.com/dewolfe001/dynamic-points/core"
	"github.com/dewolfe001/dynamic-points/engine"
	"github.com/dewolfe001/dynamic-points/points"
	"github.com/dewolfe001/dynamic-points/realtime"
)

func main() {
	// Use readable text logging for development/demo
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(textHandler))

	ctx := context.Background()

	// Small demo attribute schema
	resolver := attrmap.New()
	resolver.Define(core.DataTypeInteger, "user", "comments")
	resolver.Define(core.DataTypeDecimal, "user", "score")
	resolver.Define(core.DataTypeText, "user", "name")

	hub := realtime.NewHub()
	svc := points.New(
		points.WithMetaStore(mem.New()),
		points.WithResolver(resolver),
		points.WithRealtime(hub),
		points.WithDispatchMode(engine.DispatchAsync),
	)

	http.Handle("/ws", ws.Handler(hub))
	http.HandleFunc("/rules/", func(w http.ResponseWriter, r *http.Request) {
		// routes: PUT/GET/DELETE /rules/{id}/settings, POST /rules/{id}/fire
		parts := split(r.URL.Path, '/')
		if len(parts) < 3 {
			http.NotFound(w, r)
			return
		}
		ruleID := parts[1]
		switch parts[2] {
		case "settings":
			switch r.Method {
			case http.MethodPut, http.MethodPost:
				var raw map[string]any
				if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
					http.Error(w, err.Error(), http.StatusBadRequest)
					return
				}
				settings, errs, err := svc.SaveSettings(ctx, ruleID, raw, nil)
				if err != nil {
					http.Error(w, err.Error(), 500)
					return
				}
				if settings == nil {
					w.WriteHeader(http.StatusUnprocessableEntity)
					writeJSON(w, map[string]any{"errors": errs})
					return
				}
				writeJSON(w, map[string]any{"settings": settings.ToMap(), "errors": errs})
				return
			case http.MethodGet:
				settings, ok, err := svc.GetSettings(ctx, ruleID)
				if err != nil {
					http.Error(w, err.Error(), 500)
					return
				}
				if !ok {
					http.NotFound(w, r)
					return
				}
				writeJSON(w, map[string]any{"settings": settings.ToMap()})
				return
			case http.MethodDelete:
				err := svc.DeleteSettings(ctx, ruleID)
				writeJSON(w, map[string]any{"ok": err == nil, "err": errString(err)})
				return
			}
		case "fire":
			if r.Method == http.MethodPost {
				var req struct {
					CurrentAward int64          `json:"current_award"`
					Context      map[string]any `json:"context"`
				}
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					http.Error(w, err.Error(), http.StatusBadRequest)
					return
				}
				award := svc.Fire(ctx, ruleID, req.CurrentAward, core.FiringContext(req.Context))
				writeJSON(w, map[string]any{"award": award})
				return
			}
		}
		http.NotFound(w, r)
	})
	http.HandleFunc("/schema", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, svc.Describe())
	})

	slog.Info("starting demo server on :8080")

	if err := http.ListenAndServe(":8080", nil); err != nil {
		slog.Error("demo server crashed", "error", err)
		os.Exit(1)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func errString(err error) any {
	if err == nil {
		return nil
	}
	return err.Error()
}

func split(p string, sep rune) []string {
	var parts []string
	current := make([]rune, 0, len(p))

	for _, r := range p {
		if r == sep {
			if len(current) > 0 {
				parts = append(parts, string(current))
				current = current[:0]
			}
			continue
		}
		current = append(current, r)
	}

	if len(current) > 0 {
		parts = append(parts, string(current))
	}

	return parts
}
