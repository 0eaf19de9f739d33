package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/kaelos/devdeck/internal/health"
	"github.com/kaelos/devdeck/internal/registry"
	"github.com/kaelos/devdeck/internal/stream"
)

func setupLiveServer(t *testing.T) (*httptest.Server, *routerFixture) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	reg, err := registry.New(registry.Options{})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	hub := stream.NewHub()
	t.Cleanup(hub.Close)
	sink := &recordingSink{}
	r := NewRouter(Options{
		Registry:          reg,
		Hub:               hub,
		Sink:              sink,
		HealthInterval:    time.Second,
		HeartbeatInterval: time.Second,
	})
	srv := httptest.NewServer(r.Handler())
	t.Cleanup(srv.Close)
	return srv, &routerFixture{handler: r.Handler(), reg: reg, hub: hub, sink: sink}
}

func ingestReport(t *testing.T, f *routerFixture) {
	t.Helper()
	report := health.Report{
		Project: "shop",
		Services: []health.CheckResult{
			{ServiceName: "api", Status: health.StatusHealthy},
		},
	}
	report.Summary = health.Summarize(report.Services)
	f.reg.ApplyHealth(report)
}

func TestHealthStreamSendsReportAndHeartbeat(t *testing.T) {
	srv, f := setupLiveServer(t)
	ingestReport(t, f)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/health/stream?interval=1s", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET stream: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("content type = %q", ct)
	}

	types := map[string]bool{}
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev stream.Event
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			t.Fatalf("bad frame %q: %v", line, err)
		}
		types[ev.Type] = true
		if types[stream.EventHealth] && types[stream.EventHeartbeat] {
			break
		}
	}
	if !types[stream.EventHealth] {
		t.Fatal("no health event received")
	}
	if !types[stream.EventHeartbeat] {
		t.Fatal("no heartbeat received")
	}
}

func TestHealthStreamRejectsBadInterval(t *testing.T) {
	srv, _ := setupLiveServer(t)
	resp, err := http.Get(srv.URL + "/api/health/stream?interval=soon")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestWebsocketReceivesInitialStateAndBroadcasts(t *testing.T) {
	srv, f := setupLiveServer(t)
	f.reg.UpsertServices([]registry.ServiceUpdate{{Name: "api", Status: "running", Health: "healthy"}})

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if resp != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	defer func() { _ = conn.Close() }()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read initial state: %v", err)
	}
	var ev stream.Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.Type != stream.EventServices {
		t.Fatalf("first event = %q, want services", ev.Type)
	}

	// A hub broadcast reaches the connected client.
	raw, _ := stream.Encode(stream.EventLogs, []string{"x"})
	f.hub.Broadcast(stream.TopicLogs, raw)

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		_, payload, err = conn.ReadMessage()
		if err != nil {
			t.Fatalf("read broadcast: %v", err)
		}
		if err := json.Unmarshal(payload, &ev); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if ev.Type == stream.EventLogs {
			break
		}
	}
}
