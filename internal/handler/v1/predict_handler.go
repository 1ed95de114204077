package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pneumoscan/pneumoscan/internal/predict"
	"github.com/pneumoscan/pneumoscan/internal/service"
)

type PredictHandler struct {
	svc *service.HistoryService
}

func NewPredictHandler(svc *service.HistoryService) *PredictHandler {
	return &PredictHandler{svc: svc}
}

// Predict handles POST /predict/:owner: a multipart form with the X-ray under
// "imagefile" plus the patient fields. The image is forwarded to the
// inference service and the returned verdict is stored as a new record.
func (h *PredictHandler) Predict(c *gin.Context) {
	file, header, err := c.Request.FormFile("imagefile")
	if err != nil {
		respondError(c, http.StatusBadRequest, "imagefile is required")
		return
	}
	defer file.Close()

	age, err := strconv.Atoi(c.PostForm("age"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "age must be an integer")
		return
	}

	req := &predict.Request{
		ImageName:    header.Filename,
		Image:        file,
		Owner:        c.Param("owner"),
		Name:         c.PostForm("name"),
		Surname:      c.PostForm("surname"),
		Age:          age,
		MobileNumber: c.PostForm("mobile"),
	}

	rec, err := h.svc.PredictAndStore(c.Request.Context(), c.Param("owner"), req, c.ClientIP(), requestID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, rec)
}
