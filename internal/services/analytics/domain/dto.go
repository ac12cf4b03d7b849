// Package domain holds DTOs for analytics http and service contracts
package domain

import (
	"time"

	"insightsdb/internal/core/aggregate"
	"insightsdb/internal/core/interval"
	"insightsdb/internal/core/query"
)

// AggregateInput is an aggregation plus optional org scopes from the catalog
// unioned into the filter
type AggregateInput struct {
	aggregate.Request
	OrgScopes []string `json:"org_scopes,omitempty" validate:"omitempty,max=32,dive,min=1,max=64" example:"platform"`
}

// ListInput is a list request plus optional org scopes
type ListInput struct {
	query.ListRequest
	OrgScopes []string `json:"org_scopes,omitempty" validate:"omitempty,max=32,dive,min=1,max=64" example:"web"`
}

// AtInput asks who held each subject at an instant
type AtInput struct {
	At time.Time `json:"at" validate:"required" example:"2024-03-05T00:00:00Z"`
	// Subjects limits the answer; omitted means every subject
	Subjects []string `json:"subjects,omitempty" validate:"omitempty,max=1000,dive,min=1,max=200" example:"PLAT-12"`
}

// AtOutput is the active assignment per subject, ordered by subject
type AtOutput struct {
	Assignments []interval.Assignment `json:"assignments"`
}

// OverlapInput is a half open window [start, end)
type OverlapInput struct {
	Start time.Time `json:"start" validate:"required" example:"2024-03-01T00:00:00Z"`
	End   time.Time `json:"end" validate:"required" example:"2024-03-15T00:00:00Z"`
}

// RollupInput addresses one page of an epic story point rollup
type RollupInput struct {
	IntegrationID string    `json:"integration_id" validate:"required,max=64" example:"7"`
	AsOf          time.Time `json:"as_of" validate:"required" example:"2024-05-01T00:00:00Z"`
	PageSize      int       `json:"page_size,omitempty" validate:"gte=0,lte=10000" example:"1000"`
	Offset        int       `json:"offset,omitempty" validate:"gte=0" example:"0"`
}

// RollupOutput tells the caller whether and where to resume
type RollupOutput struct {
	HasMore    bool `json:"has_more"`
	NextOffset int  `json:"next_offset"`
}

// Description lists what a caller can query
type Description struct {
	Kinds     []string `json:"kinds"`
	Schemes   []string `json:"categorization_schemes"`
	OrgScopes []string `json:"org_scopes"`
	Histories []string `json:"histories"`
}
