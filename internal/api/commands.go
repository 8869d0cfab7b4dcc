package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-capture/internal/auth"
	"github.com/nerrad567/gray-logic-capture/internal/bridge"
	"github.com/nerrad567/gray-logic-capture/internal/commandlog"
)

// commandRequest is the body of POST /streams/{stream}/commands.
type commandRequest struct {
	ID         string         `json:"id,omitempty"`
	Command    string         `json:"command"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// streamResponse describes one configured stream.
type streamResponse struct {
	Name            string `json:"name"`
	DeviceID        string `json:"device_id,omitempty"`
	Channel         int    `json:"channel"`
	ISP3ATruncation string `json:"isp3a_truncation"`
}

// handleListStreams returns the configured streams in name order.
func (s *Server) handleListStreams(w http.ResponseWriter, _ *http.Request) {
	names := s.streams.Names()
	streams := make([]streamResponse, 0, len(names))
	for _, name := range names {
		c := s.streams[name]
		info := c.Stream()
		streams = append(streams, streamResponse{
			Name:            info.Name,
			DeviceID:        info.DeviceID,
			Channel:         info.Channel,
			ISP3ATruncation: string(c.TruncationPolicy()),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"streams": streams,
		"count":   len(streams),
	})
}

// handleSendCommand executes one capture command against a stream and
// returns the ack. The ack is also broadcast on the capture.ack channel.
//
// Status codes:
//   - 202: handed to the stream's observers (the ack may still carry a
//     PAYLOAD_TRUNCATED error under the truncate policy)
//   - 400: unknown command or bad parameters
//   - 403: role may not send this command
//   - 404: unknown stream
//   - 422: ISP 3A text too long under the reject policy
func (s *Server) handleSendCommand(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeUnauthorized(w, "authentication required")
		return
	}

	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Command == "" {
		writeBadRequest(w, "command is required")
		return
	}
	if !auth.CanSendCommand(claims.Role, req.Command) {
		writeForbidden(w, "role "+string(claims.Role)+" may not send "+req.Command)
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	cmd := bridge.CommandMessage{
		ID:         req.ID,
		Timestamp:  time.Now().UTC(),
		Stream:     chi.URLParam(r, "stream"),
		Command:    req.Command,
		Parameters: req.Parameters,
		Source:     "api:" + claims.Subject,
	}

	ack := s.executor.Execute(cmd)
	s.hub.Broadcast(ChannelCaptureAck, ack)

	writeJSON(w, ackHTTPStatus(ack), ack)
}

// ackHTTPStatus maps an ack to the HTTP status of the response carrying it.
func ackHTTPStatus(ack bridge.AckMessage) int {
	if ack.Status == bridge.AckAccepted {
		return http.StatusAccepted
	}
	if ack.Error == nil {
		return http.StatusInternalServerError
	}
	switch ack.Error.Code {
	case bridge.ErrCodeUnknownStream:
		return http.StatusNotFound
	case bridge.ErrCodeInvalidCommand, bridge.ErrCodeInvalidParameters, bridge.ErrCodeInvalidMessage:
		return http.StatusBadRequest
	case bridge.ErrCodePayloadTruncated:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// handleListCommands returns paginated command log entries, newest first.
//
// Query parameters:
//   - stream: filter by stream name
//   - kind: filter by packet kind (metadata, confidence_threshold, device_reset, isp_3a)
//   - limit: max results (default 50, max 200)
//   - offset: pagination offset
func (s *Server) handleListCommands(w http.ResponseWriter, r *http.Request) {
	if s.commandLog == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "command log not configured")
		return
	}

	q := r.URL.Query()
	filter := commandlog.Filter{
		Stream: q.Get("stream"),
		Kind:   q.Get("kind"),
	}

	var err error
	if filter.Limit, err = intQuery(q.Get("limit")); err != nil {
		writeBadRequest(w, "limit must be a non-negative integer")
		return
	}
	if filter.Offset, err = intQuery(q.Get("offset")); err != nil {
		writeBadRequest(w, "offset must be a non-negative integer")
		return
	}

	result, err := s.commandLog.List(r.Context(), filter)
	if err != nil {
		if errors.Is(err, commandlog.ErrInvalidFilter) {
			writeBadRequest(w, err.Error())
			return
		}
		s.logger.Error("failed to list command log", "error", err)
		writeInternalError(w, "failed to list command log")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// intQuery parses an optional non-negative integer query value.
func intQuery(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, strconv.ErrRange
	}
	return n, nil
}
