package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/towerhq/boardroom/internal/board"
)

// streamRun runs the panel and pushes progress frames over SSE as they
// happen: thinking before each advisor, result or error after, one summary
// at the end. Events are framed as "data: <json>\n\n". A client that
// disconnects mid-run cancels the rest of the pipeline via the request
// context.
func (s *Server) streamRun(w http.ResponseWriter, r *http.Request) {
	var body runRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(body.Idea) == "" {
		jsonError(w, "idea is required", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		jsonError(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	rep := board.NewReporter(r.Context(), 16)

	errCh := make(chan error, 1)
	go func() {
		_, err := s.engine.Evaluate(r.Context(), body.Idea, rep)
		errCh <- err
	}()

	for ev := range rep.Events() {
		data, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		if _, err := w.Write([]byte("data: ")); err != nil {
			break
		}
		if _, err := w.Write(data); err != nil {
			break
		}
		if _, err := w.Write([]byte("\n\n")); err != nil {
			break
		}
		flusher.Flush()
	}

	if err := <-errCh; err != nil && !errors.Is(err, board.ErrStreamClosed) {
		slog.Error("streaming run failed", "error", err)
	}
}
