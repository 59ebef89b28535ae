package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/akshadjaiswal/hot-takes-arena/internal/events"
	"github.com/akshadjaiswal/hot-takes-arena/internal/metrics"
	"github.com/akshadjaiswal/hot-takes-arena/internal/model"
	"github.com/akshadjaiswal/hot-takes-arena/internal/moderation"
	"github.com/akshadjaiswal/hot-takes-arena/internal/ratelimit"
	"github.com/akshadjaiswal/hot-takes-arena/internal/repository"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// CreateTakeInput is a take submission with the caller's identity pair.
type CreateTakeInput struct {
	Content           string `json:"content" validate:"required,mintrim=10,max=280"`
	Category          string `json:"category" validate:"required,max=32"`
	DeviceFingerprint string `json:"deviceFingerprint" validate:"required,fingerprint"`
	IPHash            string `json:"ipHash" validate:"required,iphash"`
}

type ListTakesInput struct {
	Sort     string `json:"sort" validate:"omitempty,oneof=controversial fresh trending top_agreed top_disagreed"`
	Category string `json:"category" validate:"omitempty,max=32"`
	Limit    int    `json:"limit" validate:"min=0,max=100"`
	Cursor   string `json:"cursor"`
}

type TakeService struct {
	takes      TakeStore
	categories *CategoryService
	content    *moderation.Validator
	admission  *Admission
	cache      *CacheService
	events     events.Publisher
}

func NewTakeService(
	takes TakeStore,
	categories *CategoryService,
	content *moderation.Validator,
	admission *Admission,
	cache *CacheService,
	pub events.Publisher,
) *TakeService {
	return &TakeService{
		takes:      takes,
		categories: categories,
		content:    content,
		admission:  admission,
		cache:      cache,
		events:     pub,
	}
}

// Create admits a new take: shape validation, sanitize, content rules,
// category check, rate limit, insert. The first failing step wins and nothing
// is stored.
func (s *TakeService) Create(ctx context.Context, in CreateTakeInput) (*model.TakeView, error) {
	if err := validateInput(in); err != nil {
		return nil, rejected(ratelimit.ActionPost, err)
	}

	content := moderation.Sanitize(in.Content)
	verdict, err := s.content.Validate(ctx, content)
	if err != nil {
		log.Error().Err(err).Msg("content policy failed")
		return nil, rejected(ratelimit.ActionPost, unexpectedError(err))
	}
	if !verdict.Valid {
		if verdict.Reason == moderation.ReasonTooShort || verdict.Reason == moderation.ReasonTooLong {
			return nil, rejected(ratelimit.ActionPost, validationError(verdict.Reason))
		}
		return nil, rejected(ratelimit.ActionPost, contentError(verdict.Reason))
	}

	active, err := s.categories.IsActive(ctx, in.Category)
	if err != nil {
		return nil, rejected(ratelimit.ActionPost, err)
	}
	if !active {
		return nil, rejected(ratelimit.ActionPost, validationError("Invalid category"))
	}

	if err := s.admission.Check(ctx, ratelimit.ActionPost, in.DeviceFingerprint, in.IPHash); err != nil {
		return nil, rejected(ratelimit.ActionPost, err)
	}

	take := &model.Take{
		Content:           content,
		Category:          in.Category,
		DeviceFingerprint: in.DeviceFingerprint,
		IPHash:            in.IPHash,
	}
	if err := s.takes.Insert(ctx, take); err != nil {
		if errors.Is(err, repository.ErrUnknownCategory) {
			return nil, rejected(ratelimit.ActionPost, validationError("Invalid category"))
		}
		log.Error().Err(err).Msg("insert take failed")
		return nil, rejected(ratelimit.ActionPost, databaseError(err))
	}

	metrics.TakesCreated.Inc()
	s.cache.InvalidateStats(ctx)

	evt := events.New(events.TakeCreated, take.ID)
	evt.Category = take.Category
	publish(ctx, s.events, evt)

	view := model.NewTakeView(*take)
	return &view, nil
}

// List returns one page of visible takes. A cursor only continues the sort
// order it was issued for.
func (s *TakeService) List(ctx context.Context, in ListTakesInput) (*model.TakeListResponse, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	order := model.SortControversial
	if in.Sort != "" {
		order = model.SortOrder(in.Sort)
	}
	limit := in.Limit
	if limit == 0 {
		limit = DefaultPageSize
	}

	params := repository.ListParams{Sort: order, Category: in.Category, Limit: limit + 1}
	if in.Cursor != "" {
		cur, err := repository.DecodeCursor(in.Cursor)
		if err != nil {
			return nil, validationError("Invalid cursor")
		}
		if cur.Sort != order {
			return nil, validationError("Cursor does not match sort order")
		}
		params.After = &cur
	}

	takes, err := s.takes.List(ctx, params)
	if err != nil {
		log.Error().Err(err).Str("sort", string(order)).Msg("list takes failed")
		return nil, databaseError(err)
	}

	resp := &model.TakeListResponse{Items: make([]model.TakeView, 0, min(len(takes), limit))}
	if len(takes) > limit {
		resp.HasMore = true
		takes = takes[:limit]
		resp.NextCursor = repository.CursorAfter(order, &takes[limit-1]).Encode()
	}
	for _, t := range takes {
		resp.Items = append(resp.Items, model.NewTakeView(t))
	}
	return resp, nil
}

// Get returns a single visible take. Hidden takes answer CONTENT_HIDDEN.
func (s *TakeService) Get(ctx context.Context, rawID string) (*model.TakeView, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, validationError("Invalid take ID")
	}

	take, ok := s.cache.GetTake(ctx, id)
	if !ok {
		take, err = s.takes.FindByID(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError("Take")
		}
		if err != nil {
			log.Error().Err(err).Str("take_id", id.String()).Msg("find take failed")
			return nil, databaseError(err)
		}
		if !take.IsHidden {
			s.cache.SetTake(ctx, take)
		}
	}

	if take.IsHidden {
		return nil, &Error{Code: CodeContentHidden, Message: "This take has been hidden by moderators"}
	}
	view := model.NewTakeView(*take)
	return &view, nil
}

// publish sends evt with a short deadline. Failures are logged only.
func publish(ctx context.Context, pub events.Publisher, evt events.Event) {
	if pub == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := pub.Publish(ctx, evt); err != nil {
		log.Warn().Err(err).Str("type", string(evt.Type)).Str("take_id", evt.TakeID.String()).
			Msg("event publish failed")
	}
}
