package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/yndnr/pcd-go/internal/core/domain"
	"github.com/yndnr/pcd-go/internal/telemetry/logger"
)

// handleOpenSession handles POST /v1/sessions.
func (h *Handler) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.dev.Open(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusCreated, SessionResponse{
		ID:       sess.ID,
		Position: sess.Position(),
		OpenedAt: time.UnixMilli(sess.OpenedAt),
	})
}

// handleListSessions handles GET /v1/sessions.
func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	infos := h.dev.Sessions(r.Context())
	items := make([]SessionResponse, 0, len(infos))
	for _, s := range infos {
		items = append(items, SessionResponse{
			ID:       s.ID,
			Position: s.Position,
			OpenedAt: time.UnixMilli(s.OpenedAt),
		})
	}

	h.writeJSON(w, r, http.StatusOK, ListSessionsResponse{
		Items: items,
		Total: len(items),
	})
}

// handleGetSession handles GET /v1/sessions/{id}.
func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	pos, err := h.dev.Tell(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, SessionResponse{ID: id, Position: pos})
}

// handleRead handles POST /v1/sessions/{id}/read.
func (h *Handler) handleRead(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req ReadRequest
	if err := decodeBody(r, &req); err != nil {
		h.handleServiceError(w, r, domain.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	ctx := logger.WithSessionID(r.Context(), id)
	data, pos, err := h.dev.Read(ctx, id, req.Length)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	if data == nil {
		data = []byte{}
	}
	h.writeJSON(w, r, http.StatusOK, ReadResponse{
		Data:      data,
		BytesRead: len(data),
		Position:  pos,
	})
}

// handleWrite handles POST /v1/sessions/{id}/write.
//
// The request body is the caller's source buffer: a body that cannot be
// read or decoded fails with CopyFault and leaves the cursor alone.
func (h *Handler) handleWrite(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req WriteRequest
	if err := decodeBody(r, &req); err != nil {
		h.handleServiceError(w, r, domain.ErrCopyFault.WithDetails(err.Error()))
		return
	}
	if req.Data == nil {
		h.handleServiceError(w, r, domain.ErrCopyFault.WithDetails("no data"))
		return
	}

	ctx := logger.WithSessionID(r.Context(), id)
	n, pos, err := h.dev.Write(ctx, id, req.Data)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, WriteResponse{
		BytesWritten: n,
		Position:     pos,
	})
}

// handleSeek handles POST /v1/sessions/{id}/seek.
func (h *Handler) handleSeek(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req SeekRequest
	if err := decodeBody(r, &req); err != nil {
		h.handleServiceError(w, r, domain.ErrBadRequest.WithDetails(err.Error()))
		return
	}
	whence, err := parseWhence(req.Whence)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	pos, err := h.dev.Seek(logger.WithSessionID(r.Context(), id), id, req.Offset, whence)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, SeekResponse{Position: pos})
}

// handleCloseSession handles POST /v1/sessions/{id}/close.
func (h *Handler) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.dev.Close(r.Context(), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, map[string]any{
		"id":     id,
		"closed": true,
	})
}

// decodeBody decodes the JSON request body into v. Unknown fields and
// trailing data are rejected.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty request body")
		}
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after request body")
	}
	return nil
}

// parseWhence accepts a JSON number or string. An absent whence means SET.
func parseWhence(raw json.RawMessage) (domain.Whence, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return domain.SeekStart, nil
	}
	s := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, domain.ErrInvalidArgument.WithDetails("whence is not a string")
		}
	}
	return domain.ParseWhence(s)
}
