// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/samber/oops"

	"github.com/holomush/sessiond/internal/auth"
	"github.com/holomush/sessiond/pkg/errutil"
)

// Codes produced by the transport itself.
const (
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeRequestTooLarge = "REQUEST_TOO_LARGE"
	CodeInternal        = "INTERNAL_ERROR"
	CodeNotFound        = "NOT_FOUND"
)

var statusByCode = map[string]int{
	auth.CodeEmailTaken:          http.StatusConflict,
	auth.CodeInvalidCredentials:  http.StatusUnauthorized,
	auth.CodeInvalidRefreshToken: http.StatusUnauthorized,
	auth.CodeInvalidToken:        http.StatusUnauthorized,
	auth.CodeTokenExpired:        http.StatusUnauthorized,
	auth.CodeUnauthorized:        http.StatusUnauthorized,
	auth.CodeUserNotFound:        http.StatusNotFound,
	auth.CodeValidation:          http.StatusBadRequest,
	auth.CodeNotImplemented:      http.StatusNotImplemented,
	CodeInvalidRequest:           http.StatusBadRequest,
	CodeRequestTooLarge:          http.StatusRequestEntityTooLarge,
	CodeNotFound:                 http.StatusNotFound,
}

// errorBody is the JSON error envelope.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// StatusFor returns the HTTP status for err.
func StatusFor(err error) int {
	if status, ok := statusByCode[errutil.Code(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func badRequest(format string, args ...any) error {
	return oops.Code(CodeInvalidRequest).Errorf(format, args...)
}

// requestError classifies body decoding failures.
func requestError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return oops.Code(CodeRequestTooLarge).With("limit", tooLarge.Limit).Errorf("request body too large")
	}
	return oops.Code(CodeInvalidRequest).Wrap(err)
}

// writeError writes the envelope for err. Unmapped errors are logged and
// reported with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := StatusFor(err)
	detail := errorDetail{Code: errutil.Code(err), Message: err.Error()}

	if status == http.StatusInternalServerError {
		errutil.LogErrorContext(r.Context(), logger, "request failed", err)
		detail = errorDetail{Code: CodeInternal, Message: "internal server error"}
	} else if oopsErr, ok := oops.AsOops(err); ok {
		if field, ok := oopsErr.Context()["field"].(string); ok {
			detail.Field = field
		}
	}

	writeJSON(w, status, errorBody{Error: detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	//nolint:errcheck // client may have disconnected
	json.NewEncoder(w).Encode(v)
}
