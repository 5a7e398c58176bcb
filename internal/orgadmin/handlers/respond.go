package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	e "github.com/aymens/orgadmin/internal/orgadmin/errors"
	"github.com/aymens/orgadmin/internal/orgadmin/models"
	"go.uber.org/zap"
)

// requestError is a transport-level failure that never reached a service.
type requestError struct {
	status  int
	message string
}

func (r *requestError) Error() string {
	return r.message
}

func badRequest(format string, args ...any) error {
	return &requestError{status: http.StatusBadRequest, message: fmt.Sprintf(format, args...)}
}

type messageBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError maps err to its status code and JSON body.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		reqErr   *requestError
		validErr *e.ValidationError
	)
	switch {
	case errors.As(err, &reqErr):
		writeJSON(w, reqErr.status, messageBody{Message: reqErr.message})
	case errors.As(err, &validErr):
		writeJSON(w, http.StatusBadRequest, validErr.Fields)
	case errors.Is(err, e.ErrNotFound):
		writeJSON(w, http.StatusNotFound, messageBody{Message: err.Error()})
	case errors.Is(err, e.ErrConflict), errors.Is(err, e.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, messageBody{Message: err.Error()})
	default:
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", RequestIDFromContext(r.Context())),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, messageBody{Message: "internal server error"})
	}
}

// decodeJSON reads a JSON request body into dst. Bodies that are not
// declared as JSON are rejected with 415.
func decodeJSON(r *http.Request, dst any) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return &requestError{
			status:  http.StatusUnsupportedMediaType,
			message: fmt.Sprintf("Content type '%s' not supported", r.Header.Get("Content-Type")),
		}
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var validErr *e.ValidationError
		if errors.As(err, &validErr) {
			return validErr
		}
		return badRequest("malformed request body: %v", err)
	}
	return nil
}

func pathID(params map[string]string, name string) (uint, error) {
	id, err := strconv.ParseUint(params[name], 10, 0)
	if err != nil {
		return 0, badRequest("invalid %s: %q", name, params[name])
	}
	return uint(id), nil
}

func queryString(q url.Values, key string) *string {
	if !q.Has(key) {
		return nil
	}
	v := q.Get(key)
	return &v
}

func queryUint(q url.Values, key string) (*uint, error) {
	if q.Get(key) == "" {
		return nil, nil
	}
	n, err := strconv.ParseUint(q.Get(key), 10, 0)
	if err != nil {
		return nil, badRequest("invalid %s: %q", key, q.Get(key))
	}
	v := uint(n)
	return &v, nil
}

func queryInt(q url.Values, key string) (*int, error) {
	if q.Get(key) == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(q.Get(key))
	if err != nil {
		return nil, badRequest("invalid %s: %q", key, q.Get(key))
	}
	return &n, nil
}

// queryTime accepts RFC 3339 timestamps or plain dates, which mean midnight UTC.
func queryTime(q url.Values, key string) (*time.Time, error) {
	raw := q.Get(key)
	if raw == "" {
		return nil, nil
	}
	t, err := models.ParseDate(raw)
	if err != nil {
		return nil, badRequest("invalid %s: %q", key, raw)
	}
	return &t, nil
}

func pageRequest(q url.Values) (models.PageRequest, error) {
	var req models.PageRequest
	page, err := queryInt(q, "page")
	if err != nil {
		return req, err
	}
	size, err := queryInt(q, "size")
	if err != nil {
		return req, err
	}
	if page != nil {
		req.Page = *page
	}
	if size != nil {
		req.Size = *size
	}
	req.Sort = strings.TrimSpace(q.Get("sort"))
	return req, nil
}
