package v1

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires the record, history and predict endpoints onto the
// versioned group. Paths mirror the surface the frontend already speaks:
// add/infos/update/delete plus the history and chart reads.
func RegisterRoutes(
	api *gin.RouterGroup,
	records *RecordHandler,
	history *HistoryHandler,
	pred *PredictHandler,
	ownerGuard gin.HandlerFunc,
) {
	owned := api.Group("", ownerGuard)

	owned.POST("/add/:owner", records.Create)
	owned.GET("/infos/:owner", records.List)
	owned.PUT("/update/:owner/:id", records.Update)
	owned.DELETE("/delete/:owner/:id", records.Delete)

	owned.GET("/history/:owner", history.History)
	owned.GET("/charts/:owner", history.Charts)

	owned.POST("/predict/:owner", pred.Predict)
}
