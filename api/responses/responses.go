package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	pkgerrors "github.com/angelmondragon/vendorhub-backend/pkg/errors"
	"github.com/angelmondragon/vendorhub-backend/pkg/logger"
)

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, SuccessEnvelope{Data: data})
}

// WriteError renders err with the status and public message registered for
// its code. Untyped errors become INTERNAL_ERROR. Server side failures are
// logged at error level, client rejections at warn.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}
	meta := pkgerrors.MetadataFor(typed.Code())

	body := APIError{Code: string(typed.Code()), Message: meta.PublicMessage}
	if meta.ShowMessage && typed.Message() != "" {
		body.Message = typed.Message()
	}
	if meta.DetailsAllowed {
		body.Details = typed.Details()
	}

	if logg != nil {
		logCtx := logg.WithFields(ctx, pkgerrors.LogFields(err))
		logCtx = logg.WithField(logCtx, "status", meta.HTTPStatus)
		if stage := detailValue(typed.Details(), "stage"); stage != nil {
			logCtx = logg.WithField(logCtx, "stage", stage)
		}
		if meta.HTTPStatus >= http.StatusInternalServerError {
			logg.Error(logCtx, "request.error", err)
		} else {
			logg.Warn(logg.WithField(logCtx, "error", err.Error()), "request.rejected")
		}
	}

	writeJSON(w, meta.HTTPStatus, ErrorEnvelope{Error: body})
}

func detailValue(details any, key string) any {
	m, ok := details.(map[string]any)
	if !ok {
		return nil
	}
	return m[key]
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// the status line is already on the wire, an encode failure cannot be reported to the client
	_ = json.NewEncoder(w).Encode(payload)
}
