package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// User-facing messages. Clients show them verbatim.
const (
	msgNicknameTaken       = "Ja existe um membro com esse apelido"
	msgMemberNotFound      = "Membro nao encontrado"
	msgEventNotFound       = "Evento não encontrado"
	msgStoryNotFound       = "História não encontrada"
	msgInvalidCounterType  = "Tipo de contador inválido"
	msgNoFiles             = "Nenhum arquivo enviado"
	msgMediaNotConfigured  = "Cloudinary não configurado. Configure as variáveis de ambiente."
	msgInvalidBody         = "Corpo da requisição inválido"
	msgInvalidEventStatus  = "Status de evento inválido"
	msgInvalidMediaType    = "Tipo de mídia inválido"
	msgInvalidCounterValue = "Valores de contador devem ser inteiros não negativos"
	msgInvalidReference    = "Referência inválida"
	msgRouteNotFound       = "Rota não encontrada"
	msgMethodNotAllowed    = "Método não permitido"
)

// ValidationError is malformed or missing input (400).
type ValidationError struct{ Message string }

func (e *ValidationError) Error() string { return e.Message }

// ConflictError is a uniqueness collision (400 with a specific message).
type ConflictError struct{ Message string }

func (e *ConflictError) Error() string { return e.Message }

// NotFoundError is an operation on a missing id (404).
type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

// ConfigurationError is missing server configuration (500 with an explicit message).
type ConfigurationError struct{ Message string }

func (e *ConfigurationError) Error() string { return e.Message }

func invalid(msg string) error { return &ValidationError{Message: msg} }

// notFoundIf maps sql.ErrNoRows to a NotFoundError carrying msg.
func notFoundIf(err error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return &NotFoundError{Message: msg}
	}
	return err
}

// isUniqueViolation reports a 23505 on the named constraint (any constraint when empty).
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	if pqErr.Code != "23505" {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

// isForeignKeyViolation reports a 23503, e.g. a participant id naming no member.
func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}

// respondErr maps err onto the error taxonomy. Anything unclassified is logged
// and answered with the generic message.
func (h *Handler) respondErr(w http.ResponseWriter, r *http.Request, err error, generic string) {
	var (
		ve  *ValidationError
		ce  *ConflictError
		nf  *NotFoundError
		cfg *ConfigurationError
	)
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Message)
	case errors.As(err, &ce):
		writeError(w, http.StatusBadRequest, ce.Message)
	case errors.As(err, &nf):
		writeError(w, http.StatusNotFound, nf.Message)
	case isForeignKeyViolation(err):
		writeError(w, http.StatusBadRequest, msgInvalidReference)
	case errors.As(err, &cfg):
		h.log.Error("configuration error", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusInternalServerError, cfg.Message)
	default:
		h.log.Error(generic,
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, generic)
	}
}
