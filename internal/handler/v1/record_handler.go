package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/pneumoscan/pneumoscan/internal/domain/record"
	"github.com/pneumoscan/pneumoscan/internal/service"
)

type RecordHandler struct {
	svc *service.RecordService
}

func NewRecordHandler(svc *service.RecordService) *RecordHandler {
	return &RecordHandler{svc: svc}
}

type createRecordRequest struct {
	Name                string  `json:"name" binding:"required"`
	Surname             string  `json:"surname" binding:"required"`
	Age                 int     `json:"age" binding:"required"`
	MobileNumber        string  `json:"mobile_no" binding:"required"`
	Prediction          string  `json:"prediction" binding:"required"`
	PneumoniaPercentage float64 `json:"pneumonia_percentage"`
	NormalPercentage    float64 `json:"normal_percentage"`
	Confidence          float64 `json:"confidence"`
	ModelUsed           string  `json:"model_used"`
	ImageURL            string  `json:"image_url"`
	SaliencyMapURL      string  `json:"saliency_map_url"`
}

type updateRecordRequest struct {
	Name         *string `json:"name"`
	Surname      *string `json:"surname"`
	Age          *int    `json:"age"`
	MobileNumber *string `json:"mobile_no"`
}

// Create handles POST /add/:owner.
func (h *RecordHandler) Create(c *gin.Context) {
	var req createRecordRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &record.CreateRecordCommand{
		Name:                req.Name,
		Surname:             req.Surname,
		Age:                 req.Age,
		MobileNumber:        req.MobileNumber,
		PredictionLabel:     record.PredictionLabel(req.Prediction),
		PneumoniaPercentage: req.PneumoniaPercentage,
		NormalPercentage:    req.NormalPercentage,
		Confidence:          req.Confidence,
		ModelUsed:           req.ModelUsed,
		ImageURL:            req.ImageURL,
		SaliencyMapURL:      req.SaliencyMapURL,
	}

	rec, err := h.svc.CreateRecord(c.Request.Context(), c.Param("owner"), cmd, c.ClientIP(), requestID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, rec)
}

// List handles GET /infos/:owner. The result is always ordered by creation
// time descending; an empty history is a 200 with an empty list.
func (h *RecordHandler) List(c *gin.Context) {
	records, err := h.svc.ListRecords(c.Request.Context(), c.Param("owner"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, records)
}

// Update handles PUT /update/:owner/:id. Only patient metadata is mutable;
// diagnostic fields in the body are ignored, not rejected.
func (h *RecordHandler) Update(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req updateRecordRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &record.UpdateRecordCommand{
		Name:         req.Name,
		Surname:      req.Surname,
		Age:          req.Age,
		MobileNumber: req.MobileNumber,
	}

	rec, err := h.svc.UpdateRecord(c.Request.Context(), c.Param("owner"), id, cmd, c.ClientIP(), requestID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, rec)
}

// Delete handles DELETE /delete/:owner/:id.
func (h *RecordHandler) Delete(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteRecord(c.Request.Context(), c.Param("owner"), id, c.ClientIP(), requestID(c)); err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{"message": "Record deleted"})
}

func requestID(c *gin.Context) string {
	return c.GetString("request_id")
}
