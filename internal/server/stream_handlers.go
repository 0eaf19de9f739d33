package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/kaelos/devdeck/internal/metrics"
	"github.com/kaelos/devdeck/internal/stream"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The dashboard is a local development tool; cross-origin browser
	// pages on localhost are expected.
	CheckOrigin: func(*http.Request) bool { return true },
}

// clampInterval bounds a requested SSE resend interval to 1s..60s.
func clampInterval(d time.Duration) time.Duration {
	if d < time.Second {
		return time.Second
	}
	if d > 60*time.Second {
		return 60 * time.Second
	}
	return d
}

// handleHealthStream serves Server-Sent Events: the latest health
// report immediately and on every interval tick, plus heartbeat frames
// so proxies keep the connection open. Change events arrive via the
// hub between ticks.
func (r *Router) handleHealthStream(c *gin.Context) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		writeJSON(c, http.StatusInternalServerError, errorResp{Error: "streaming unsupported"})
		return
	}

	interval := r.healthInterval
	if is := c.Query("interval"); is != "" {
		d, err := time.ParseDuration(is)
		if err != nil {
			writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid interval: " + err.Error()})
			return
		}
		interval = d
	}
	interval = clampInterval(interval)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	flusher.Flush()

	client := stream.NewSSEClient(c.Writer, flusher, r.log)
	client.SetRetry(3000)
	r.hub.Register(stream.TopicHealth, client)
	metrics.SetStreamClients("sse", r.hub.Count(stream.TopicHealth))
	defer func() {
		r.hub.Unregister(stream.TopicHealth, client)
		client.Close()
		metrics.SetStreamClients("sse", r.hub.Count(stream.TopicHealth))
	}()

	sendReport := func() bool {
		report, ok := r.reg.Report()
		if !ok {
			return true
		}
		payload, err := stream.Encode(stream.EventHealth, report)
		if err != nil {
			r.log.Warn("event encode failed", "type", stream.EventHealth, "error", err)
			return true
		}
		return client.Send(payload) == nil
	}
	sendHeartbeat := func() bool {
		payload, err := stream.Encode(stream.EventHeartbeat, nil)
		if err != nil {
			return true
		}
		return client.Send(payload) == nil
	}

	if !sendReport() {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	heartbeat := time.NewTicker(r.heartbeat)
	defer heartbeat.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !sendReport() {
				return
			}
		case <-heartbeat.C:
			if !sendHeartbeat() {
				return
			}
		}
	}
}

// handleWS upgrades to a websocket subscribed to every topic. The
// read loop exists only to notice the peer going away; the dashboard
// protocol is push-only.
func (r *Router) handleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		r.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := stream.NewWSClient(conn, r.log)
	topics := []stream.Topic{stream.TopicHealth, stream.TopicLogs, stream.TopicServices}
	for _, t := range topics {
		r.hub.Register(t, client)
	}
	metrics.SetStreamClients("ws", r.hub.Count(stream.TopicServices))
	defer func() {
		for _, t := range topics {
			r.hub.Unregister(t, client)
		}
		client.Close()
		metrics.SetStreamClients("ws", r.hub.Count(stream.TopicServices))
	}()

	// Initial state so a fresh client renders without waiting for the
	// next broadcast.
	if payload, err := stream.Encode(stream.EventServices, r.reg.Services()); err == nil {
		if client.Send(payload) != nil {
			return
		}
	}
	if report, ok := r.reg.Report(); ok {
		if payload, err := stream.Encode(stream.EventHealth, report); err == nil {
			if client.Send(payload) != nil {
				return
			}
		}
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
