package api

import (
	"net/http"

	"github.com/goccy/go-json"
)

// Error is the error response body.
type Error struct {
	Detail string `json:"detail"`
}

// Client-facing messages.
const (
	msgMissingToken       = "No se proporcionó token de autorización"
	msgInvalidSession     = "Sesión inválida o expirada"
	msgExpiredSession     = "Sesión expirada"
	msgEmailColumnMissing = "No se encontró columna de email en Users"
	msgUserNotFound       = "Usuario no encontrado"
	msgUserFound          = "Datos recuperados y guardados exitosamente"
	msgNoActiveSession    = "No hay sesión activa"
	msgLoggedOut          = "Sesión cerrada exitosamente"
	msgInternal           = "internal server error"
)

// writeJSON writes a JSON response with the given status code and payload.
// The payload is encoded before the status is sent; an unencodable payload
// becomes a 500 error response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var body []byte
	if v != nil {
		b, err := json.Marshal(v)
		if err != nil {
			status = http.StatusInternalServerError
			b, _ = json.Marshal(Error{Detail: "encoding response: " + err.Error()})
		}
		body = append(b, '\n')
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // Best-effort write to response; connection may be closed
	w.Write(body)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, Error{Detail: detail})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, detail string) {
	writeError(w, http.StatusBadRequest, detail)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, detail string) {
	writeError(w, http.StatusNotFound, detail)
}

// writeUnauthorized writes a 401 error response.
func writeUnauthorized(w http.ResponseWriter, detail string) {
	writeError(w, http.StatusUnauthorized, detail)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, detail string) {
	writeError(w, http.StatusInternalServerError, detail)
}

// writeUpstreamError writes a 500 response for a datasource or query failure.
// The cause is only disclosed when the server is configured to expose errors.
func (s *Server) writeUpstreamError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	s.logger.Error(msg,
		"error", err,
		"path", r.URL.Path,
		"request_id", r.Context().Value(ctxKeyRequestID),
	)
	if s.cfg.ExposeErrors {
		writeInternalError(w, err.Error())
		return
	}
	writeInternalError(w, msgInternal)
}
