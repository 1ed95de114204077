package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pneumoscan/pneumoscan/internal/domain/audit"
	"github.com/pneumoscan/pneumoscan/pkg/metrics"
)

type AuditService struct {
	repo     audit.Repository
	log      *zap.Logger
	metrics  *metrics.Collector
	entries  chan *audit.Log
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

const auditBufferSize = 10_000

func NewAuditService(repo audit.Repository, m *metrics.Collector, log *zap.Logger) *AuditService {
	svc := &AuditService{
		repo:    repo,
		log:     log,
		metrics: m,
		entries: make(chan *audit.Log, auditBufferSize),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go svc.worker()
	return svc
}

// LogAsync enqueues an audit entry for async persistence. Entries arriving
// after Shutdown, or when the buffer is full, are dropped with a warning.
// The entries channel is never closed, so a late caller cannot panic here.
func (s *AuditService) LogAsync(ctx context.Context, entry AuditEntry) {
	select {
	case <-s.stop:
		s.log.Warn("audit service stopped, dropping entry",
			zap.String("action", entry.Action),
			zap.String("owner", entry.Owner),
		)
		return
	default:
	}

	al := &audit.Log{
		Owner:      entry.Owner,
		Action:     audit.Action(entry.Action),
		RecordID:   entry.RecordID,
		IPAddress:  entry.IPAddress,
		RequestID:  entry.RequestID,
		StatusCode: entry.StatusCode,
	}

	select {
	case s.entries <- al:
	default:
		if s.metrics != nil {
			s.metrics.AuditBufferDropped.Inc()
		}
		s.log.Warn("audit log buffer full, dropping entry",
			zap.String("action", entry.Action),
			zap.String("owner", entry.Owner),
		)
	}
}

// Shutdown stops intake, drains the buffer and waits for the worker. Safe to
// call more than once.
func (s *AuditService) Shutdown() {
	s.stopOnce.Do(func() { close(s.stop) })
	select {
	case <-s.done:
	case <-time.After(10 * time.Second):
		s.log.Warn("audit service shutdown timed out; some entries may be lost")
	}
}

func (s *AuditService) worker() {
	defer close(s.done)
	for {
		select {
		case entry := <-s.entries:
			s.persist(entry)
		case <-s.stop:
			for {
				select {
				case entry := <-s.entries:
					s.persist(entry)
				default:
					return
				}
			}
		}
	}
}

func (s *AuditService) persist(entry *audit.Log) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.repo.Create(ctx, entry); err != nil {
		s.log.Error("failed to persist audit log", zap.Error(err))
	} else if s.metrics != nil {
		s.metrics.AuditEntriesTotal.Inc()
	}
}
