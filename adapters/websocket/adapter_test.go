package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/dewolfe001/dynamic-points/core"
	"github.com/dewolfe001/dynamic-points/realtime"
)

func TestHandlerStreamsEvents(t *testing.T) {
	hub := realtime.NewHub()
	srv := httptest.NewServer(Handler(hub))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	// give the handler a beat to subscribe before broadcasting
	time.Sleep(50 * time.Millisecond)
	hub.Broadcast(context.Background(), core.NewAwardComputed("rule-1", 9, []string{"user", "score"}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev core.Event
	require.NoError(t, json.Unmarshal(msg, &ev))
	require.Equal(t, core.EventAwardComputed, ev.Type)
	require.Equal(t, "rule-1", ev.RuleID)
	require.Equal(t, int64(9), ev.Award)
}
