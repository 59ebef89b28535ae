package model

import (
	"time"

	"github.com/google/uuid"
)

type ReportReason string

const (
	ReasonHateSpeech     ReportReason = "hate_speech"
	ReasonHarassment     ReportReason = "harassment"
	ReasonSpam           ReportReason = "spam"
	ReasonOffTopic       ReportReason = "off_topic"
	ReasonMisinformation ReportReason = "misinformation"
	ReasonOther          ReportReason = "other"
)

type ReportStatus string

const (
	StatusPending   ReportStatus = "pending"
	StatusReviewed  ReportStatus = "reviewed"
	StatusActioned  ReportStatus = "actioned"
	StatusDismissed ReportStatus = "dismissed"
)

// Report is an abuse report filed against a take.
type Report struct {
	ID                uuid.UUID    `json:"id"`
	TakeID            uuid.UUID    `json:"takeId"`
	Reason            ReportReason `json:"reason"`
	AdditionalInfo    *string      `json:"additionalInfo,omitempty"`
	Status            ReportStatus `json:"status"`
	DeviceFingerprint string       `json:"-"`
	IPHash            string       `json:"-"`
	CreatedAt         time.Time    `json:"createdAt"`
	ReviewedBy        *string      `json:"reviewedBy,omitempty"`
	ReviewedAt        *time.Time   `json:"reviewedAt,omitempty"`
}

// ReportWithTake is a report joined with the take it targets, for the admin queue.
type ReportWithTake struct {
	Report
	TakeContent   string    `json:"takeContent"`
	TakeCategory  string    `json:"takeCategory"`
	TakeCreatedAt time.Time `json:"takeCreatedAt"`
	TakeIsHidden  bool      `json:"takeIsHidden"`
}

// ReportRequest is the API request body for filing a report.
type ReportRequest struct {
	TakeID            string `json:"takeId"`
	Reason            string `json:"reason"`
	AdditionalInfo    string `json:"additionalInfo,omitempty"`
	DeviceFingerprint string `json:"deviceFingerprint,omitempty"`
}

// UpdateReportRequest is the admin request body for reviewing a report.
type UpdateReportRequest struct {
	Status     string `json:"status"`
	ReviewedBy string `json:"reviewedBy,omitempty"`
}
