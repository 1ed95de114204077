package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/pneumoscan/pneumoscan/internal/cache"
	"github.com/pneumoscan/pneumoscan/internal/domain/record"
	"github.com/pneumoscan/pneumoscan/internal/tenant"
	"github.com/pneumoscan/pneumoscan/pkg/metrics"
)

var mobilePattern = regexp.MustCompile(`^\d{10}$`)

type RecordService struct {
	tenants  tenant.Store
	repo     record.Repository
	cache    *cache.HistoryCache
	auditSvc *AuditService
	metrics  *metrics.Collector
	log      *zap.Logger
	tracer   trace.Tracer
}

func NewRecordService(
	tenants tenant.Store,
	repo record.Repository,
	historyCache *cache.HistoryCache,
	auditSvc *AuditService,
	m *metrics.Collector,
	log *zap.Logger,
) *RecordService {
	return &RecordService{
		tenants:  tenants,
		repo:     repo,
		cache:    historyCache,
		auditSvc: auditSvc,
		metrics:  m,
		log:      log,
		tracer:   otel.Tracer("pneumoscan/service"),
	}
}

func (s *RecordService) CreateRecord(ctx context.Context, rawOwner string, cmd *record.CreateRecordCommand, ip, requestID string) (*record.ScanRecord, error) {
	ctx, span := s.tracer.Start(ctx, "RecordService.CreateRecord")
	defer span.End()

	owner, err := tenant.Normalize(rawOwner)
	if err != nil {
		return nil, err
	}

	if err := validateCreateCommand(cmd); err != nil {
		return nil, err
	}

	// Namespace provisioning is confined to the write path; idempotent under
	// concurrent first-writers.
	if err := s.tenants.EnsureProvisioned(ctx, owner); err != nil {
		s.log.Error("failed to provision owner", zap.Error(err))
		return nil, fmt.Errorf("provisioning owner: %w", err)
	}

	rec := &record.ScanRecord{
		Name:                strings.TrimSpace(cmd.Name),
		Surname:             strings.TrimSpace(cmd.Surname),
		Age:                 cmd.Age,
		MobileNumber:        cmd.MobileNumber,
		PredictionLabel:     cmd.PredictionLabel,
		PneumoniaPercentage: cmd.PneumoniaPercentage,
		NormalPercentage:    cmd.NormalPercentage,
		Confidence:          cmd.Confidence,
		ModelUsed:           cmd.ModelUsed,
		ImageURL:            cmd.ImageURL,
		SaliencyMapURL:      cmd.SaliencyMapURL,
	}

	if err := s.repo.Create(ctx, owner, rec); err != nil {
		s.log.Error("failed to create scan record", zap.Error(err))
		return nil, fmt.Errorf("creating scan record: %w", err)
	}

	s.cache.Invalidate(ctx, owner)

	if s.metrics != nil {
		s.metrics.RecordsCreatedTotal.Inc()
		s.metrics.PredictionsTotal.WithLabelValues(string(rec.PredictionLabel)).Inc()
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		Owner:     owner.String(),
		Action:    "create",
		RecordID:  rec.ID.String(),
		IPAddress: ip,
		RequestID: requestID,
	})

	s.log.Info("scan record created",
		zap.String("record_id", rec.ID.String()),
		zap.String("label", string(rec.PredictionLabel)),
	)

	return rec, nil
}

// ListRecords returns the owner's full history sorted by creation time
// descending. Reads never provision anything for an unseen owner; they just
// see an empty history.
func (s *RecordService) ListRecords(ctx context.Context, rawOwner string) ([]*record.ScanRecord, error) {
	ctx, span := s.tracer.Start(ctx, "RecordService.ListRecords")
	defer span.End()

	owner, err := tenant.Normalize(rawOwner)
	if err != nil {
		return nil, err
	}

	if cached, ok := s.cache.Get(ctx, owner); ok {
		if s.metrics != nil {
			s.metrics.CacheHits.Inc()
		}
		return cached, nil
	}

	records, err := s.repo.List(ctx, owner)
	if err != nil {
		s.log.Error("failed to list scan records", zap.Error(err))
		return nil, fmt.Errorf("listing scan records: %w", err)
	}

	// A miss only counts once the read was actually served from the database.
	if s.metrics != nil && s.cache != nil {
		s.metrics.CacheMisses.Inc()
	}
	s.cache.Set(ctx, owner, records)
	return records, nil
}

func (s *RecordService) GetRecord(ctx context.Context, rawOwner string, id uuid.UUID) (*record.ScanRecord, error) {
	owner, err := tenant.Normalize(rawOwner)
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, owner, id)
}

// UpdateRecord applies a patch to the mutable patient metadata. The
// diagnostic facts have no representation in the patch type, so a caller
// cannot alter them no matter what it sends.
func (s *RecordService) UpdateRecord(ctx context.Context, rawOwner string, id uuid.UUID, cmd *record.UpdateRecordCommand, ip, requestID string) (*record.ScanRecord, error) {
	ctx, span := s.tracer.Start(ctx, "RecordService.UpdateRecord")
	defer span.End()

	owner, err := tenant.Normalize(rawOwner)
	if err != nil {
		return nil, err
	}

	if err := validateUpdateCommand(cmd); err != nil {
		return nil, err
	}

	rec, err := s.repo.Update(ctx, owner, id, cmd)
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, owner)

	s.auditSvc.LogAsync(ctx, AuditEntry{
		Owner:     owner.String(),
		Action:    "update",
		RecordID:  id.String(),
		IPAddress: ip,
		RequestID: requestID,
	})

	return rec, nil
}

// DeleteRecord removes the record permanently. A second delete of the same id
// fails with the same not-found error as the first would after success.
func (s *RecordService) DeleteRecord(ctx context.Context, rawOwner string, id uuid.UUID, ip, requestID string) error {
	ctx, span := s.tracer.Start(ctx, "RecordService.DeleteRecord")
	defer span.End()

	owner, err := tenant.Normalize(rawOwner)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, owner, id); err != nil {
		return err
	}

	s.cache.Invalidate(ctx, owner)

	s.auditSvc.LogAsync(ctx, AuditEntry{
		Owner:     owner.String(),
		Action:    "delete",
		RecordID:  id.String(),
		IPAddress: ip,
		RequestID: requestID,
	})

	return nil
}

func validateCreateCommand(cmd *record.CreateRecordCommand) error {
	var errs []string

	if strings.TrimSpace(cmd.Name) == "" {
		errs = append(errs, "name is required")
	}
	if strings.TrimSpace(cmd.Surname) == "" {
		errs = append(errs, "surname is required")
	}
	if cmd.Age <= 0 {
		errs = append(errs, "age must be a positive integer")
	}
	if !mobilePattern.MatchString(cmd.MobileNumber) {
		errs = append(errs, "mobile_no must be exactly 10 digits")
	}
	if !cmd.PredictionLabel.IsValid() {
		errs = append(errs, "prediction must be Pneumonia or Normal")
	}
	if cmd.PneumoniaPercentage < 0 || cmd.PneumoniaPercentage > 100 {
		errs = append(errs, "pneumonia_percentage must be in [0,100]")
	}
	if cmd.NormalPercentage < 0 || cmd.NormalPercentage > 100 {
		errs = append(errs, "normal_percentage must be in [0,100]")
	}
	probe := record.ScanRecord{
		PneumoniaPercentage: cmd.PneumoniaPercentage,
		NormalPercentage:    cmd.NormalPercentage,
	}
	if !probe.PercentagesConsistent() {
		errs = append(errs, "pneumonia_percentage and normal_percentage must sum to 100")
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

func validateUpdateCommand(cmd *record.UpdateRecordCommand) error {
	var errs []string

	if cmd.Name != nil && strings.TrimSpace(*cmd.Name) == "" {
		errs = append(errs, "name cannot be empty")
	}
	if cmd.Surname != nil && strings.TrimSpace(*cmd.Surname) == "" {
		errs = append(errs, "surname cannot be empty")
	}
	if cmd.Age != nil && *cmd.Age <= 0 {
		errs = append(errs, "age must be a positive integer")
	}
	if cmd.MobileNumber != nil && !mobilePattern.MatchString(*cmd.MobileNumber) {
		errs = append(errs, "mobile_no must be exactly 10 digits")
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
