package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/akshadjaiswal/hot-takes-arena/internal/score"
)

// SortOrder is a take listing order.
type SortOrder string

const (
	SortControversial SortOrder = "controversial"
	SortFresh         SortOrder = "fresh"
	SortTrending      SortOrder = "trending"
	SortTopAgreed     SortOrder = "top_agreed"
	SortTopDisagreed  SortOrder = "top_disagreed"
)

// ValidSortOrders are the accepted values of the sort query parameter.
var ValidSortOrders = map[SortOrder]bool{
	SortControversial: true,
	SortFresh:         true,
	SortTrending:      true,
	SortTopAgreed:     true,
	SortTopDisagreed:  true,
}

// Take is a posted opinion. Takes are never deleted, only hidden.
type Take struct {
	ID                uuid.UUID `json:"id"`
	Content           string    `json:"content"`
	Category          string    `json:"category"`
	AgreeCount        int       `json:"agreeCount"`
	DisagreeCount     int       `json:"disagreeCount"`
	TotalVotes        int       `json:"totalVotes"`
	ControversyScore  *float64  `json:"controversyScore"`
	TrendingScore     float64   `json:"trendingScore"`
	IsHidden          bool      `json:"isHidden"`
	HiddenReason      *string   `json:"hiddenReason,omitempty"`
	DeviceFingerprint string    `json:"-"`
	IPHash            string    `json:"-"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// SortKey returns the value the given order ranks this take by. It matches the
// SQL sort expression so it can be carried in a pagination cursor.
func (t *Take) SortKey(order SortOrder) float64 {
	switch order {
	case SortControversial:
		if t.ControversyScore == nil {
			return -1
		}
		return *t.ControversyScore
	case SortTrending:
		return t.TrendingScore
	case SortTopAgreed:
		return float64(t.AgreeCount)
	case SortTopDisagreed:
		return float64(t.DisagreeCount)
	default:
		return 0
	}
}

// TakeView is a take decorated with the display values derived from its counts.
type TakeView struct {
	Take
	AgreePercentage    int    `json:"agreePercentage"`
	DisagreePercentage int    `json:"disagreePercentage"`
	ControversyLevel   string `json:"controversyLevel"`
	IsControversial    bool   `json:"isControversial"`
}

func NewTakeView(t Take) TakeView {
	agreePct, disagreePct := score.Percentages(t.AgreeCount, t.DisagreeCount)
	return TakeView{
		Take:               t,
		AgreePercentage:    agreePct,
		DisagreePercentage: disagreePct,
		ControversyLevel:   score.Level(score.Controversy(t.AgreeCount, t.DisagreeCount)),
		IsControversial:    score.IsControversial(t.AgreeCount, t.DisagreeCount, score.MinimumVotes),
	}
}

// CreateTakeRequest is the API request body for posting a take.
type CreateTakeRequest struct {
	Content           string `json:"content"`
	Category          string `json:"category"`
	DeviceFingerprint string `json:"deviceFingerprint,omitempty"`
}

// TakeListResponse is one page of takes.
type TakeListResponse struct {
	Items      []TakeView `json:"items"`
	HasMore    bool       `json:"hasMore"`
	NextCursor string     `json:"nextCursor,omitempty"`
}

// VisibilityRequest is the admin request body for hiding or restoring a take.
type VisibilityRequest struct {
	Hidden bool   `json:"hidden"`
	Reason string `json:"reason,omitempty"`
}
