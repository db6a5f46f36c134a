package webapi

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// eventStream writes server-sent events, flushing after each one so
// progress reaches the browser while the pipeline is still working.
type eventStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newEventStream(w http.ResponseWriter) (*eventStream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support streaming")
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	return &eventStream{w: w, flusher: flusher}, nil
}

func (s *eventStream) send(event string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, payload)
	s.flusher.Flush()
}

func (s *eventStream) progress(step, message string) {
	s.send("progress", map[string]string{"step": step, "message": message})
}

func (s *eventStream) fail(err error) {
	s.send("error", map[string]string{"message": err.Error()})
}
