package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/PortNumber53/depenados/internal/models"
	"go.uber.org/zap"
)

const counterColumns = `id, brigas, acidentes, pts, updated_at`

// counterColumnFor whitelists the tally column a PATCH may touch.
var counterColumnFor = map[string]string{
	models.CounterBrigas:    "brigas",
	models.CounterAcidentes: "acidentes",
	models.CounterPts:       "pts",
}

func scanCounter(row rowScanner) (models.Counter, error) {
	var c models.Counter
	err := row.Scan(&c.ID, &c.Brigas, &c.Acidentes, &c.Pts, &c.UpdatedAt)
	return c, err
}

func ensureCounter(ctx context.Context, q queryer) error {
	if _, err := q.ExecContext(ctx,
		`INSERT INTO counters (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, models.CounterID); err != nil {
		return fmt.Errorf("ensure counter: %w", err)
	}
	return nil
}

func (h *Handler) loadCounter(ctx context.Context) (models.Counter, error) {
	if err := ensureCounter(ctx, h.db); err != nil {
		return models.Counter{}, err
	}
	c, err := scanCounter(h.db.QueryRowContext(ctx,
		`SELECT `+counterColumns+` FROM counters WHERE id = $1`, models.CounterID))
	if err != nil {
		return models.Counter{}, fmt.Errorf("load counter: %w", err)
	}
	return c, nil
}

// GetCounters returns the tallies, creating the row on first use.
// URL: GET /api/counters
func (h *Handler) GetCounters(w http.ResponseWriter, r *http.Request) {
	c, err := h.loadCounter(r.Context())
	if err != nil {
		h.respondErr(w, r, err, "Erro ao buscar contadores")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// PatchCounters moves one tally by one. Decrements stop at zero.
// URL: PATCH /api/counters  body: {"type":"brigas","action":"increment"}
func (h *Handler) PatchCounters(w http.ResponseWriter, r *http.Request) {
	var in models.CounterPatch
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	col, ok := counterColumnFor[in.Type]
	if !ok {
		writeError(w, http.StatusBadRequest, msgInvalidCounterType)
		return
	}
	delta := 0
	switch in.Action {
	case "", models.CounterActionIncrement:
		delta = 1
	case models.CounterActionDecrement:
		delta = -1
	default:
		writeError(w, http.StatusBadRequest, "Ação de contador inválida")
		return
	}

	ctx := r.Context()
	var c models.Counter
	err := h.inTx(ctx, func(tx *sql.Tx) error {
		if err := ensureCounter(ctx, tx); err != nil {
			return err
		}
		var err error
		c, err = scanCounter(tx.QueryRowContext(ctx,
			`UPDATE counters SET `+col+` = GREATEST(`+col+` + $2, 0), updated_at = NOW()
			 WHERE id = $1
			 RETURNING `+counterColumns,
			models.CounterID, delta))
		if err != nil {
			return fmt.Errorf("update counter: %w", err)
		}
		return nil
	})
	if err != nil {
		h.respondErr(w, r, err, "Erro ao atualizar contador")
		return
	}
	h.log.Debug("counter patched", zap.String("type", in.Type), zap.Int("delta", delta))
	h.publishCounter(c)
	writeJSON(w, http.StatusOK, c)
}

// PutCounters sets any subset of the tallies to absolute values.
// URL: PUT /api/counters  body: {"brigas":3,"pts":1}
func (h *Handler) PutCounters(w http.ResponseWriter, r *http.Request) {
	var in models.CounterValues
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	for _, v := range []*int{in.Brigas, in.Acidentes, in.Pts} {
		if v != nil && *v < 0 {
			writeError(w, http.StatusBadRequest, msgInvalidCounterValue)
			return
		}
	}

	c, err := scanCounter(h.db.QueryRowContext(r.Context(),
		`INSERT INTO counters (id, brigas, acidentes, pts, updated_at)
		 VALUES ($1, COALESCE($2, 0), COALESCE($3, 0), COALESCE($4, 0), NOW())
		 ON CONFLICT (id) DO UPDATE SET
			brigas = COALESCE($2, counters.brigas),
			acidentes = COALESCE($3, counters.acidentes),
			pts = COALESCE($4, counters.pts),
			updated_at = NOW()
		 RETURNING `+counterColumns,
		models.CounterID, in.Brigas, in.Acidentes, in.Pts))
	if err != nil {
		h.respondErr(w, r, err, "Erro ao definir contadores")
		return
	}
	h.publishCounter(c)
	writeJSON(w, http.StatusOK, c)
}
