package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/scopeforge/engine/internal/api/middleware"
	"github.com/scopeforge/engine/internal/api/types"
	"github.com/scopeforge/engine/internal/api/validators"
	"github.com/scopeforge/engine/internal/auth"
	appErr "github.com/scopeforge/engine/pkg/errors"
	"github.com/scopeforge/engine/pkg/logger"
	"github.com/scopeforge/engine/pkg/pagination"
	"go.uber.org/zap"
)

// Validator is the subset of go-playground/validator the handlers use.
type Validator interface {
	Struct(any) error
}

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, r *http.Request, status int, data any) {
	writeJSON(w, status, types.APIResponse{Success: true, Data: data, Meta: &types.Meta{RequestID: middleware.GetRequestID(r.Context())}})
}

func writePage[T any](w http.ResponseWriter, r *http.Request, page pagination.Page[T]) {
	writeJSON(w, http.StatusOK, types.APIResponse{
		Success: true,
		Data:    page.Data,
		Meta:    &types.Meta{RequestID: middleware.GetRequestID(r.Context()), Meta: &page.Meta},
	})
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := types.StatusFor(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("request failed", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, types.APIResponse{
		Success: false,
		Error:   types.FromAppError(err),
		Meta:    &types.Meta{RequestID: middleware.GetRequestID(r.Context())},
	})
}

// decode reads a JSON body into dst and validates it. An empty body is allowed when
// the request type has no required fields.
func decode(r *http.Request, v Validator, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return appErr.Wrap(err, appErr.CodeInvalid, "invalid json")
	}
	if err := v.Struct(dst); err != nil {
		e := appErr.Wrap(err, appErr.CodeInvalid, "validation failed")
		for k, rule := range validators.Describe(err) {
			e.WithMeta(k, rule)
		}
		return e
	}
	return nil
}

func callerOf(r *http.Request) (auth.Caller, error) {
	c, ok := auth.CallerFrom(r.Context())
	if !ok {
		return auth.Caller{}, appErr.New(appErr.CodeUnauthorized, "authentication required")
	}
	return c, nil
}

// scope resolves the caller and the projectID path parameter, writing any error itself.
func scope(w http.ResponseWriter, r *http.Request) (auth.Caller, uuid.UUID, bool) {
	c, err := callerOf(r)
	if err != nil {
		writeError(w, r, err)
		return c, uuid.Nil, false
	}
	projectID, err := uuidParam(r, "projectID")
	if err != nil {
		writeError(w, r, err)
		return c, uuid.Nil, false
	}
	return c, projectID, true
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, appErr.Newf(appErr.CodeInvalid, "%s must be a UUID", name)
	}
	return id, nil
}

func pageParams(r *http.Request) pagination.Params {
	q := r.URL.Query()
	return pagination.Parse(q.Get("page"), q.Get("limit"))
}

func wantsAsync(r *http.Request) bool {
	ok, _ := strconv.ParseBool(r.URL.Query().Get("async"))
	return ok
}
