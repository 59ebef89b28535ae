package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/akshadjaiswal/hot-takes-arena/internal/events"
	"github.com/akshadjaiswal/hot-takes-arena/internal/metrics"
	"github.com/akshadjaiswal/hot-takes-arena/internal/model"
	"github.com/akshadjaiswal/hot-takes-arena/internal/ratelimit"
	"github.com/akshadjaiswal/hot-takes-arena/internal/repository"
)

const (
	// AutoHideThreshold is the pending report count that hides a take.
	AutoHideThreshold = 10
	AutoHideReason    = "Auto-hidden due to multiple reports (pending review)"
)

type CreateReportInput struct {
	TakeID            string `json:"takeId" validate:"required,uuid"`
	Reason            string `json:"reason" validate:"required,oneof=hate_speech harassment spam off_topic misinformation other"`
	AdditionalInfo    string `json:"additionalInfo" validate:"max=500"`
	DeviceFingerprint string `json:"deviceFingerprint" validate:"required,fingerprint"`
	IPHash            string `json:"ipHash" validate:"required,iphash"`
}

type ReportService struct {
	reports   ReportStore
	takes     TakeStore
	admission *Admission
	cache     *CacheService
	events    events.Publisher
}

func NewReportService(reports ReportStore, takes TakeStore, admission *Admission, cache *CacheService, pub events.Publisher) *ReportService {
	return &ReportService{reports: reports, takes: takes, admission: admission, cache: cache, events: pub}
}

// Create files a report, then escalates: once a take has AutoHideThreshold
// pending reports it is hidden. Escalation never unhides, and a take that is
// already hidden is left untouched.
func (s *ReportService) Create(ctx context.Context, in CreateReportInput) (*model.Report, error) {
	if err := validateInput(in); err != nil {
		return nil, rejected(ratelimit.ActionReport, err)
	}
	takeID := uuid.MustParse(in.TakeID)

	if err := s.admission.Check(ctx, ratelimit.ActionReport, in.DeviceFingerprint, in.IPHash); err != nil {
		return nil, rejected(ratelimit.ActionReport, err)
	}

	report := &model.Report{
		TakeID:            takeID,
		Reason:            model.ReportReason(in.Reason),
		DeviceFingerprint: in.DeviceFingerprint,
		IPHash:            in.IPHash,
	}
	if info := strings.TrimSpace(in.AdditionalInfo); info != "" {
		report.AdditionalInfo = &info
	}

	if err := s.reports.Insert(ctx, report); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, rejected(ratelimit.ActionReport, notFoundError("Take"))
		}
		log.Error().Err(err).Str("take_id", takeID.String()).Msg("insert report failed")
		return nil, rejected(ratelimit.ActionReport, databaseError(err))
	}

	metrics.ReportsTotal.WithLabelValues(in.Reason).Inc()
	s.cache.InvalidateStats(ctx)

	evt := events.New(events.ReportCreated, takeID)
	evt.Reason = in.Reason
	publish(ctx, s.events, evt)

	// the report is stored; escalation problems are logged, not returned
	if err := s.escalate(ctx, takeID); err != nil {
		log.Error().Err(err).Str("take_id", takeID.String()).Msg("report escalation failed")
	}
	return report, nil
}

func (s *ReportService) escalate(ctx context.Context, takeID uuid.UUID) error {
	pending, err := s.reports.CountPending(ctx, takeID)
	if err != nil {
		return err
	}
	if pending < AutoHideThreshold {
		return nil
	}

	changed, err := s.takes.HideIfVisible(ctx, takeID, AutoHideReason)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	metrics.AutoHidden.Inc()
	s.cache.InvalidateTake(ctx, takeID)
	s.cache.InvalidateStats(ctx)
	log.Info().Str("take_id", takeID.String()).Int("pending_reports", pending).Msg("take auto-hidden")

	evt := events.New(events.TakeHidden, takeID)
	evt.Reason = AutoHideReason
	evt.Automatic = true
	publish(ctx, s.events, evt)
	return nil
}
