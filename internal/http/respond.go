package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"tresorier/internal/core"
	"tresorier/internal/log"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeSaved is the legacy save/delete acknowledgement.
func writeSaved(w http.ResponseWriter, id int64) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": id})
}

func writeDeleted(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// writeError maps engine errors onto status codes: validation rejections to
// 400, missing entities to 404, refused deletes to 409, anything else to
// 500 with the detail kept out of the response.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr *core.ValidationError
		nf   *core.NotFoundError
		ref  *core.ReferencedError
	)

	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": verr.Error()})
	case errors.As(err, &nf):
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": nf.Error()})
	case errors.As(err, &ref):
		writeJSON(w, http.StatusConflict, map[string]any{"success": false, "error": ref.Error()})
	default:
		logger := log.FromContext(r.Context())
		logger.ErrorContext(r.Context(), "Request failed",
			log.FieldPath, r.URL.Path, log.FieldError, err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "internal error"})
	}
}
