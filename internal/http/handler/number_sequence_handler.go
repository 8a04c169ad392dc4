package handler

import (
	"net/http"
	"time"

	"github.com/straye-as/sales-api/internal/domain"
	"github.com/straye-as/sales-api/internal/mapper"
	"github.com/straye-as/sales-api/internal/service"
	"go.uber.org/zap"
)

// NumberSequenceHandler exposes the document counters to administrators
type NumberSequenceHandler struct {
	numberService *service.NumberSequenceService
	logger        *zap.Logger
}

func NewNumberSequenceHandler(numberService *service.NumberSequenceService, logger *zap.Logger) *NumberSequenceHandler {
	return &NumberSequenceHandler{numberService: numberService, logger: logger}
}

// List godoc
// @Summary List document number counters
// @Tags Sequences
// @Produce json
// @Success 200 {array} domain.NumberSequenceDTO
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /sequences [get]
func (h *NumberSequenceHandler) List(w http.ResponseWriter, r *http.Request) {
	seqs, err := h.numberService.Sequences(r.Context())
	if err != nil {
		respondError(w, h.logger, "list sequences", err)
		return
	}
	dtos := make([]domain.NumberSequenceDTO, len(seqs))
	for i := range seqs {
		dtos[i] = mapper.ToNumberSequenceDTO(&seqs[i])
	}
	respondJSON(w, http.StatusOK, dtos)
}

// CurrentQuote godoc
// @Summary Last quote number sequence issued this ISO week
// @Tags Sequences
// @Produce json
// @Success 200 {object} domain.NumberSequenceDTO
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /sequences/quotes/current [get]
func (h *NumberSequenceHandler) CurrentQuote(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	seq, err := h.numberService.CurrentQuoteSequence(r.Context(), now)
	if err != nil {
		respondError(w, h.logger, "current quote sequence", err)
		return
	}
	respondJSON(w, http.StatusOK, domain.NumberSequenceDTO{
		Scope:        "quote",
		Period:       service.QuotePeriod(now),
		LastSequence: seq,
	})
}
