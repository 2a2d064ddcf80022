package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/resume-screener/internal/types"
)

// SSE event names emitted on the status stream
const (
	EventProgress = "progress"
	EventComplete = "complete"
	EventError    = "error"
)

// SSEWriter helps write Server-Sent Events
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter creates a new SSE writer
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	return &SSEWriter{w: w, flusher: flusher}, nil
}

// WriteEvent sends an SSE event
func (s *SSEWriter) WriteEvent(event string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, jsonData); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// WriteError sends an error event
func (s *SSEWriter) WriteError(message string) {
	s.WriteEvent(EventError, map[string]string{"error": message}) //nolint:errcheck
}

// WriteProgress sends a progress snapshot, or the final one when the session is terminal.
// A failed session is followed by an error event carrying its reason.
func (s *SSEWriter) WriteProgress(snap types.SessionSnapshot) error {
	event := EventProgress
	if snap.Status.Terminal() {
		event = EventComplete
	}
	if err := s.WriteEvent(event, snap); err != nil {
		return err
	}
	if snap.Status == types.SessionFailed {
		s.WriteError(snap.Error)
	}
	return nil
}

// handleStatusStream streams progress snapshots until the session finishes or the client leaves.
// Sessions only present in the store get a single complete event.
func (s *Server) handleStatusStream(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	session, err := s.manager.Get(id)
	if err != nil {
		snap, lerr := s.lookupSnapshot(r.Context(), id)
		if lerr != nil {
			s.writeError(w, lerr)
			return
		}
		sse, serr := NewSSEWriter(w)
		if serr != nil {
			s.errorResponse(w, http.StatusInternalServerError, serr.Error())
			return
		}
		sse.WriteProgress(snap) //nolint:errcheck
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	// the server-wide write timeout would cut off sessions that outlive it
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		s.logger.Warn("failed to clear write deadline for status stream", zap.String("session_id", id), zap.Error(err))
	}

	updates, unsubscribe := session.Subscribe()
	defer unsubscribe()

	var last types.SessionSnapshot
	for {
		select {
		case <-r.Context().Done():
			return
		case snap, ok := <-updates:
			if !ok {
				// the channel closes after the terminal state, so emit it if it was dropped
				if !last.Status.Terminal() {
					sse.WriteProgress(session.Snapshot()) //nolint:errcheck
				}
				return
			}
			last = snap
			if err := sse.WriteProgress(snap); err != nil {
				return
			}
		}
	}
}
