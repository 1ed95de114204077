package service

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/pneumoscan/pneumoscan/internal/analytics"
	"github.com/pneumoscan/pneumoscan/internal/domain/record"
	"github.com/pneumoscan/pneumoscan/internal/filter"
	"github.com/pneumoscan/pneumoscan/internal/predict"
	"github.com/pneumoscan/pneumoscan/pkg/metrics"
)

// HistoryService answers the read side: filtered history, chart series, and
// the submit-image-then-store flow that front-loads them.
type HistoryService struct {
	records   *RecordService
	engine    *analytics.Engine
	predictor *predict.Client
	metrics   *metrics.Collector
	log       *zap.Logger
	tracer    trace.Tracer
}

func NewHistoryService(
	records *RecordService,
	engine *analytics.Engine,
	predictor *predict.Client,
	m *metrics.Collector,
	log *zap.Logger,
) *HistoryService {
	return &HistoryService{
		records:   records,
		engine:    engine,
		predictor: predictor,
		metrics:   m,
		log:       log,
		tracer:    otel.Tracer("pneumoscan/service"),
	}
}

// History returns the owner's records narrowed by the filter spec, with the
// date-range fallback applied when the full predicate set matches nothing.
func (s *HistoryService) History(ctx context.Context, rawOwner string, spec filter.Spec) (*filter.Result, error) {
	ctx, span := s.tracer.Start(ctx, "HistoryService.History")
	defer span.End()

	records, err := s.records.ListRecords(ctx, rawOwner)
	if err != nil {
		return nil, err
	}

	result := filter.Apply(records, spec)
	if result.Fallback {
		if s.metrics != nil {
			s.metrics.FilterFallbacks.Inc()
		}
		s.log.Info("history filter fell back to date range",
			zap.Int("matched", len(result.Records)),
		)
	}
	return &result, nil
}

// ChartsResult carries the four series plus the fallback flag so the UI can
// surface its "no exact match, showing date range" notice.
type ChartsResult struct {
	Charts   *analytics.ChartData `json:"charts"`
	Fallback bool                 `json:"fallback"`
}

// Charts projects the (optionally filtered) history into chart-ready series.
func (s *HistoryService) Charts(ctx context.Context, rawOwner string, spec filter.Spec) (*ChartsResult, error) {
	ctx, span := s.tracer.Start(ctx, "HistoryService.Charts")
	defer span.End()

	result, err := s.History(ctx, rawOwner, spec)
	if err != nil {
		return nil, err
	}

	return &ChartsResult{
		Charts:   s.engine.Charts(result.Records),
		Fallback: result.Fallback,
	}, nil
}

// PredictAndStore submits the image to the inference service and persists the
// returned diagnostic facts as a new record. Whatever the model says is
// stored verbatim.
func (s *HistoryService) PredictAndStore(ctx context.Context, rawOwner string, req *predict.Request, ip, requestID string) (*record.ScanRecord, error) {
	ctx, span := s.tracer.Start(ctx, "HistoryService.PredictAndStore")
	defer span.End()

	result, err := s.predictor.Predict(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("running prediction: %w", err)
	}

	cmd := &record.CreateRecordCommand{
		Name:                req.Name,
		Surname:             req.Surname,
		Age:                 req.Age,
		MobileNumber:        req.MobileNumber,
		PredictionLabel:     normalizeLabel(result.Prediction),
		PneumoniaPercentage: float64(result.PneumoniaPercentage),
		NormalPercentage:    float64(result.NormalPercentage),
		Confidence:          float64(result.Confidence),
		ModelUsed:           result.ModelUsed,
		ImageURL:            result.ImageURL,
		SaliencyMapURL:      result.SaliencyMapURL,
	}

	rec, err := s.records.CreateRecord(ctx, rawOwner, cmd, ip, requestID)
	if err != nil {
		return nil, err
	}

	s.records.auditSvc.LogAsync(ctx, AuditEntry{
		Owner:     rec.Owner,
		Action:    "predict",
		RecordID:  rec.ID.String(),
		IPAddress: ip,
		RequestID: requestID,
	})

	return rec, nil
}

// The CNN path reports PNEUMONIA/NORMAL in caps while the low-confidence
// path reports Pneumonia/Normal. Stored labels use the canonical spelling.
func normalizeLabel(raw string) record.PredictionLabel {
	switch {
	case strings.EqualFold(raw, string(record.LabelPneumonia)):
		return record.LabelPneumonia
	case strings.EqualFold(raw, string(record.LabelNormal)):
		return record.LabelNormal
	default:
		return record.PredictionLabel(raw)
	}
}
