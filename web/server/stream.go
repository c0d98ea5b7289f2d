package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/df07/go-subsurface-lut/pkg/renderer"
)

// TileUpdate represents a single tile completion sent via SSE
type TileUpdate struct {
	TileX      int `json:"tileX"`
	TileY      int `json:"tileY"`
	TileNumber int `json:"tileNumber"` // Completed tiles so far (1-based)
	TotalTiles int `json:"totalTiles"`
}

// BakeComplete is sent once the grid is complete
type BakeComplete struct {
	BakeID    string `json:"bakeId"`
	Kernel    string `json:"kernel"`
	ImageData string `json:"imageData"` // Base64 encoded PNG of the full grid
	Stats     Stats  `json:"stats"`
}

// SSEEvent represents a unified SSE event for thread-safe writing
type SSEEvent struct {
	Type string `json:"type"` // "console", "tile", "bakeComplete", "error", "complete"
	Data string `json:"data"` // JSON-encoded data
}

// handleBakeStream bakes while streaming tile progress and log lines via SSE
func (s *Server) handleBakeStream(w http.ResponseWriter, r *http.Request) {
	s.setSSEHeaders(w)
	ctx := r.Context()

	// Single writer goroutine; the handler waits for it before returning
	sseEventChan := make(chan SSEEvent, 100)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeSSEEvents(w, ctx, sseEventChan)
	}()
	defer func() {
		close(sseEventChan)
		<-writerDone
	}()

	req, err := parseBakeRequest(r.URL.Query())
	if err != nil {
		sendEvent(ctx, sseEventChan, "error", fmt.Sprintf("Invalid request: %v", err))
		return
	}

	// The console channel stays open: the session may still log after the
	// stream ends and the hook drops what nobody reads
	bakeID := uuid.NewString()
	consoleChan := make(chan ConsoleMessage, 50)
	logger := newConsoleLogger(s.logger, bakeID, consoleChan)

	stopConsole := make(chan struct{})
	consoleDone := make(chan struct{})
	go func() {
		defer close(consoleDone)
		s.streamConsoleMessages(ctx, consoleChan, sseEventChan, stopConsole)
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	stats, err := s.bakeLocked(req, logger, func(tc renderer.TileCompletion) {
		s.sendTileUpdate(ctx, sseEventChan, tc)
	})

	close(stopConsole)
	<-consoleDone

	if err != nil {
		sendEvent(ctx, sseEventChan, "error", fmt.Sprintf("Bake failed: %v", err))
		return
	}

	img, _ := s.current.Preview()
	imageData, err := imageToBase64PNG(img)
	if err != nil {
		sendEvent(ctx, sseEventChan, "error", fmt.Sprintf("failed to encode preview: %v", err))
		return
	}
	data, err := json.Marshal(BakeComplete{
		BakeID:    bakeID,
		Kernel:    s.current.KernelName(),
		ImageData: imageData,
		Stats:     newStats(stats),
	})
	if err != nil {
		sendEvent(ctx, sseEventChan, "error", err.Error())
		return
	}
	sendEvent(ctx, sseEventChan, "bakeComplete", string(data))
	sendEvent(ctx, sseEventChan, "complete", "Bake completed")
}

// setSSEHeaders sets the required headers for Server-Sent Events
func (s *Server) setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// writeSSEEvents writes every SSE event from a single goroutine until the
// channel is closed. After a disconnect it keeps draining without writing.
func (s *Server) writeSSEEvents(w http.ResponseWriter, ctx context.Context, sseEventChan <-chan SSEEvent) {
	connected := true
	for event := range sseEventChan {
		if !connected || ctx.Err() != nil {
			connected = false
			continue
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data); err != nil {
			connected = false
			continue
		}
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}
	}
}

// streamConsoleMessages forwards console messages until stop is closed
func (s *Server) streamConsoleMessages(ctx context.Context, consoleChan <-chan ConsoleMessage, sseEventChan chan<- SSEEvent, stop <-chan struct{}) {
	forward := func(msg ConsoleMessage) {
		data, err := json.Marshal(msg)
		if err != nil {
			s.logger.WithError(err).Warn("Error marshaling console message")
			return
		}
		select {
		case sseEventChan <- SSEEvent{Type: "console", Data: string(data)}:
		case <-ctx.Done():
		default:
			// Channel full, skip message to avoid blocking
		}
	}

	for {
		select {
		case msg := <-consoleChan:
			forward(msg)
		case <-stop:
			// Flush what the bake logged before it returned
			for {
				select {
				case msg := <-consoleChan:
					forward(msg)
				default:
					return
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

// sendTileUpdate sends a tile completion event
func (s *Server) sendTileUpdate(ctx context.Context, sseEventChan chan<- SSEEvent, tc renderer.TileCompletion) {
	data, err := json.Marshal(TileUpdate{
		TileX:      tc.TileX,
		TileY:      tc.TileY,
		TileNumber: tc.TileNumber,
		TotalTiles: tc.TotalTiles,
	})
	if err != nil {
		return
	}
	sendEvent(ctx, sseEventChan, "tile", string(data))
}

// sendEvent queues an event unless the client has gone away
func sendEvent(ctx context.Context, sseEventChan chan<- SSEEvent, eventType, data string) {
	select {
	case sseEventChan <- SSEEvent{Type: eventType, Data: data}:
	case <-ctx.Done():
	}
}
