package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestClient_SettingsLifecycle(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	client, err := NewClient(srv.URL+"/api", WithAPIKey("k1"))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	ctx := context.Background()

	result, err := client.PutSettings(ctx, "rule-1", map[string]any{
		"arg":         "user.comments",
		"multiply_by": 2,
	}, nil)
	if err != nil {
		t.Fatalf("put settings: %v", err)
	}
	if result.Settings["arg"] != "user.comments" {
		t.Fatalf("unexpected result: %+v", result)
	}

	settings, err := client.GetSettings(ctx, "rule-1")
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if settings["arg"] != "user.comments" {
		t.Fatalf("unexpected settings: %+v", settings)
	}

	award, err := client.Fire(ctx, "rule-1", 0, map[string]any{
		"user": map[string]any{"comments": 3},
	})
	if err != nil || award != 6 {
		t.Fatalf("fire got award=%d err=%v", award, err)
	}

	if err := client.DeleteSettings(ctx, "rule-1"); err != nil {
		t.Fatalf("delete settings: %v", err)
	}
}

func TestClient_PutSettingsRejected(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	client, err := NewClient(srv.URL + "/api")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	result, err := client.PutSettings(context.Background(), "bad-rule", map[string]any{
		"arg": "user.unknown",
	}, nil)
	if !errors.Is(err, ErrSettingsRejected) {
		t.Fatalf("expected ErrSettingsRejected, got %v", err)
	}
	if len(result.Errors) != 1 || result.Errors[0].Code != "arg_unresolvable" {
		t.Fatalf("unexpected errors: %+v", result.Errors)
	}
}

func TestClient_DescribeTopHealth(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	client, err := NewClient(srv.URL + "/api")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	ctx := context.Background()

	desc, err := client.Describe(ctx)
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if len(desc.RoundingMethods) != 3 {
		t.Fatalf("unexpected schema: %+v", desc)
	}

	top, err := client.TopRules(ctx, 5)
	if err != nil || len(top) != 1 || top[0].RuleID != "rule-1" {
		t.Fatalf("top rules: %+v err=%v", top, err)
	}

	health, err := client.Health(ctx)
	if err != nil || health.Status != "healthy" {
		t.Fatalf("health: %+v err=%v", health, err)
	}
}

func TestClient_SubscribeEvents(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	client, err := NewClient(srv.URL + "/api")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	events, err := client.SubscribeEvents(ctx)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	select {
	case evt := <-events:
		if evt.Type != "award_computed" || evt.Award != 6 {
			t.Fatalf("unexpected event: %+v", evt)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for event")
	}
}

// test server implementing the minimal API surface expected by the SDK.
func newTestServer() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"healthy","checks":{"storage":"ok"}}`))
	})
	mux.HandleFunc("/api/schema", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"arg_label":"Attribute to derive points from","rounding_methods":{"nearest":"Round to nearest","up":"Round up","down":"Round down"}}`))
	})
	mux.HandleFunc("/api/rules/", func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/api/rules/")
		parts := strings.Split(path, "/")
		w.Header().Set("Content-Type", "application/json")

		if parts[0] == "top" {
			_, _ = w.Write([]byte(`{"rules":[{"rule_id":"rule-1","total_awarded":12}]}`))
			return
		}
		if parts[0] == "bad-rule" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"code":"invalid_settings","message":"settings entry discarded","details":[{"path":["arg"],"code":"arg_unresolvable","message":"attribute not found"}]}`))
			return
		}
		if len(parts) >= 2 && parts[1] == "settings" {
			switch r.Method {
			case http.MethodPut:
				var req struct {
					Settings map[string]any `json:"settings"`
				}
				_ = json.NewDecoder(r.Body).Decode(&req)
				_ = json.NewEncoder(w).Encode(map[string]any{"settings": req.Settings, "errors": []any{}})
			case http.MethodGet:
				_, _ = w.Write([]byte(`{"settings":{"arg":"user.comments","multiply_by":2}}`))
			case http.MethodDelete:
				_, _ = w.Write([]byte(`{"ok":true}`))
			}
			return
		}
		if len(parts) >= 2 && parts[1] == "fire" && r.Method == http.MethodPost {
			_, _ = w.Write([]byte(`{"award":6}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	upgrader := websocket.Upgrader{}
	mux.HandleFunc("/api/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteJSON(map[string]any{
			"type":      "award_computed",
			"time":      time.Now().UTC(),
			"rule_id":   "rule-1",
			"award":     6,
			"attribute": "user.comments",
		})
	})

	return httptest.NewServer(mux)
}
