package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pneumoscan/pneumoscan/internal/filter"
	"github.com/pneumoscan/pneumoscan/internal/service"
)

// Query dates arrive as bare calendar days from the date pickers.
const queryDateLayout = "2006-01-02"

type HistoryHandler struct {
	svc *service.HistoryService
}

func NewHistoryHandler(svc *service.HistoryService) *HistoryHandler {
	return &HistoryHandler{svc: svc}
}

type historyResponse struct {
	Records  any  `json:"records"`
	Fallback bool `json:"fallback"`
}

// History handles GET /history/:owner with optional name, age, start_date and
// end_date query parameters.
func (h *HistoryHandler) History(c *gin.Context) {
	spec, ok := parseFilterSpec(c)
	if !ok {
		return
	}

	result, err := h.svc.History(c.Request.Context(), c.Param("owner"), spec)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, historyResponse{Records: result.Records, Fallback: result.Fallback})
}

// Charts handles GET /charts/:owner with the same filter parameters.
func (h *HistoryHandler) Charts(c *gin.Context) {
	spec, ok := parseFilterSpec(c)
	if !ok {
		return
	}

	result, err := h.svc.Charts(c.Request.Context(), c.Param("owner"), spec)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, result)
}

func parseFilterSpec(c *gin.Context) (filter.Spec, bool) {
	spec := filter.Spec{NamePattern: c.Query("name")}

	age, ok := parseQueryInt(c, "age")
	if !ok {
		return filter.Spec{}, false
	}
	spec.Age = age

	if raw := c.Query("start_date"); raw != "" {
		t, err := time.Parse(queryDateLayout, raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid start_date: expected YYYY-MM-DD")
			return filter.Spec{}, false
		}
		spec.StartDate = &t
	}

	if raw := c.Query("end_date"); raw != "" {
		t, err := time.Parse(queryDateLayout, raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid end_date: expected YYYY-MM-DD")
			return filter.Spec{}, false
		}
		spec.EndDate = &t
	}

	return spec, true
}
