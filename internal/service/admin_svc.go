package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/akshadjaiswal/hot-takes-arena/internal/events"
	"github.com/akshadjaiswal/hot-takes-arena/internal/model"
	"github.com/akshadjaiswal/hot-takes-arena/internal/ratelimit"
	"github.com/akshadjaiswal/hot-takes-arena/internal/repository"
)

const (
	adminSubject       = "admin"
	adminIssuer        = "hot-takes-arena"
	DefaultSessionTTL  = 24 * time.Hour
	DefaultReportLimit = 50
	MaxReportLimit     = 200
)

// AdminConfig holds the moderator credential. PasswordHash (bcrypt) wins over
// Password when both are set.
type AdminConfig struct {
	Password     string
	PasswordHash string
	JWTSecret    string
	SessionTTL   time.Duration
}

type LoginInput struct {
	Password          string `json:"password" validate:"required,max=72"`
	DeviceFingerprint string `json:"deviceFingerprint" validate:"required,fingerprint"`
	IPHash            string `json:"ipHash" validate:"required,iphash"`
}

type UpdateReportInput struct {
	ID         string `json:"id" validate:"required,uuid"`
	Status     string `json:"status" validate:"required,oneof=pending reviewed actioned dismissed"`
	ReviewedBy string `json:"reviewedBy" validate:"max=64"`
}

type VisibilityInput struct {
	TakeID string `json:"takeId" validate:"required,uuid"`
	Hidden bool   `json:"hidden"`
	Reason string `json:"reason" validate:"max=200"`
}

// Session is an issued admin token.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// AdminService backs the moderation console: login, the report queue and
// manual visibility changes.
type AdminService struct {
	passwordHash []byte
	secret       []byte
	ttl          time.Duration

	reports   ReportStore
	takes     TakeStore
	admission *Admission
	cache     *CacheService
	events    events.Publisher
	now       func() time.Time
}

func NewAdminService(cfg AdminConfig, reports ReportStore, takes TakeStore, admission *Admission, cache *CacheService, pub events.Publisher) (*AdminService, error) {
	s := &AdminService{
		ttl:       cfg.SessionTTL,
		reports:   reports,
		takes:     takes,
		admission: admission,
		cache:     cache,
		events:    pub,
		now:       time.Now,
	}
	if s.ttl <= 0 {
		s.ttl = DefaultSessionTTL
	}

	switch {
	case cfg.PasswordHash != "":
		if _, err := bcrypt.Cost([]byte(cfg.PasswordHash)); err != nil {
			return nil, fmt.Errorf("admin password hash: %w", err)
		}
		s.passwordHash = []byte(cfg.PasswordHash)
	case cfg.Password != "":
		h, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash admin password: %w", err)
		}
		s.passwordHash = h
	default:
		log.Warn().Msg("admin: no password configured, console login disabled")
	}

	if cfg.JWTSecret != "" {
		s.secret = []byte(cfg.JWTSecret)
	} else {
		s.secret = make([]byte, 32)
		if _, err := rand.Read(s.secret); err != nil {
			return nil, fmt.Errorf("generate admin secret: %w", err)
		}
		log.Warn().Msg("admin: ADMIN_JWT_SECRET not set, sessions will not survive a restart")
	}
	return s, nil
}

// Login checks the password and issues a signed session token.
func (s *AdminService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	if err := validateInput(in); err != nil {
		return nil, rejected(ratelimit.ActionAdminAuth, err)
	}
	if err := s.admission.Check(ctx, ratelimit.ActionAdminAuth, in.DeviceFingerprint, in.IPHash); err != nil {
		return nil, rejected(ratelimit.ActionAdminAuth, err)
	}

	if s.passwordHash == nil || bcrypt.CompareHashAndPassword(s.passwordHash, []byte(in.Password)) != nil {
		log.Warn().Str("ip_hash", in.IPHash[:12]).Msg("admin: failed login")
		return nil, rejected(ratelimit.ActionAdminAuth, &Error{Code: CodeUnauthorized, Message: "Invalid password"})
	}

	now := s.now()
	exp := now.Add(s.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   adminSubject,
		Issuer:    adminIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, unexpectedError(err)
	}
	return &Session{Token: signed, ExpiresAt: exp}, nil
}

// VerifyToken accepts only unexpired HS256 tokens issued by Login.
func (s *AdminService) VerifyToken(raw string) error {
	if raw == "" {
		return &Error{Code: CodeUnauthorized, Message: "Authentication required"}
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(adminIssuer),
		jwt.WithSubject(adminSubject),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return &Error{Code: CodeUnauthorized, Message: "Invalid or expired session", Cause: err}
	}
	return nil
}

// ListReports returns the report queue, newest first. An empty status lists all.
func (s *AdminService) ListReports(ctx context.Context, status string, limit int) ([]model.ReportWithTake, error) {
	in := struct {
		Status string `json:"status" validate:"omitempty,oneof=pending reviewed actioned dismissed"`
		Limit  int    `json:"limit" validate:"min=0,max=200"`
	}{status, limit}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if limit == 0 {
		limit = DefaultReportLimit
	}

	reports, err := s.reports.List(ctx, model.ReportStatus(status), limit)
	if err != nil {
		log.Error().Err(err).Msg("admin: list reports failed")
		return nil, databaseError(err)
	}
	return reports, nil
}

// ReportsForTake returns every report filed against one take.
func (s *AdminService) ReportsForTake(ctx context.Context, rawID string) ([]model.Report, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, validationError("Invalid take ID")
	}
	reports, err := s.reports.ForTake(ctx, id)
	if err != nil {
		log.Error().Err(err).Str("take_id", id.String()).Msg("admin: reports for take failed")
		return nil, databaseError(err)
	}
	return reports, nil
}

// UpdateReport records a review decision.
func (s *AdminService) UpdateReport(ctx context.Context, in UpdateReportInput) (*model.Report, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	var reviewedBy *string
	if rb := strings.TrimSpace(in.ReviewedBy); rb != "" {
		reviewedBy = &rb
	}

	report, err := s.reports.UpdateStatus(ctx, uuid.MustParse(in.ID), model.ReportStatus(in.Status), reviewedBy, s.now())
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFoundError("Report")
	}
	if err != nil {
		log.Error().Err(err).Str("report_id", in.ID).Msg("admin: update report failed")
		return nil, databaseError(err)
	}
	s.cache.InvalidateStats(ctx)
	return report, nil
}

// SetVisibility hides or restores a take. It is the only way a take is unhidden.
func (s *AdminService) SetVisibility(ctx context.Context, in VisibilityInput) (*model.Take, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	id := uuid.MustParse(in.TakeID)

	var reason *string
	if r := strings.TrimSpace(in.Reason); in.Hidden && r != "" {
		reason = &r
	}

	take, err := s.takes.SetVisibility(ctx, id, in.Hidden, reason)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFoundError("Take")
	}
	if err != nil {
		log.Error().Err(err).Str("take_id", id.String()).Msg("admin: set visibility failed")
		return nil, databaseError(err)
	}

	s.cache.InvalidateTake(ctx, id)
	s.cache.InvalidateStats(ctx)

	evtType := events.TakeUnhidden
	if in.Hidden {
		evtType = events.TakeHidden
	}
	evt := events.New(evtType, id)
	if reason != nil {
		evt.Reason = *reason
	}
	publish(ctx, s.events, evt)

	log.Info().Str("take_id", id.String()).Bool("hidden", in.Hidden).Msg("admin: visibility changed")
	return take, nil
}
