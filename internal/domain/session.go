// Package domain contains core domain types for productlens.
package domain

import (
	"time"
)

// Status is the lifecycle state of an analysis session.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusError:
		return true
	}
	return false
}

// Terminal reports whether s ends an analysis run.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// DefaultIndustry is used when a session does not name one.
const DefaultIndustry = "general"

// Session is one product-analysis task and its lifecycle state.
type Session struct {
	ID                    string          `json:"id"`
	OwnerID               string          `json:"ownerId,omitempty"`
	Title                 string          `json:"title"`
	Description           *string         `json:"description"`
	ProductInput          string          `json:"productInput"`
	Industry              *string         `json:"industry"`
	Urgency               *string         `json:"urgency"`
	IncludeMarketResearch bool            `json:"includeMarketResearch"`
	GeneratePRD           bool            `json:"generatePRD"`
	WireframeGuidance     bool            `json:"wireframeGuidance"`
	Status                Status          `json:"status"`
	Results               *AnalysisResult `json:"results"`
	CreatedAt             time.Time       `json:"createdAt"`
	UpdatedAt             time.Time       `json:"updatedAt"`
}

// IndustryOrDefault returns the session industry, or DefaultIndustry when unset.
func (s *Session) IndustryOrDefault() string {
	if s.Industry == nil || *s.Industry == "" {
		return DefaultIndustry
	}
	return *s.Industry
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Description = cloneString(s.Description)
	c.Industry = cloneString(s.Industry)
	c.Urgency = cloneString(s.Urgency)
	c.Results = s.Results.Clone()
	return &c
}

// CreateSessionInput carries the fields accepted when a session is created.
// Nil flags default to true.
type CreateSessionInput struct {
	OwnerID               string  `json:"-"`
	Title                 string  `json:"title"`
	Description           *string `json:"description,omitempty"`
	ProductInput          string  `json:"productInput"`
	Industry              *string `json:"industry,omitempty"`
	Urgency               *string `json:"urgency,omitempty"`
	IncludeMarketResearch *bool   `json:"includeMarketResearch,omitempty"`
	GeneratePRD           *bool   `json:"generatePRD,omitempty"`
	WireframeGuidance     *bool   `json:"wireframeGuidance,omitempty"`
}

// SessionUpdate is a partial update; nil fields are left untouched.
type SessionUpdate struct {
	Title                 *string         `json:"title,omitempty"`
	Description           *string         `json:"description,omitempty"`
	ProductInput          *string         `json:"productInput,omitempty"`
	Industry              *string         `json:"industry,omitempty"`
	Urgency               *string         `json:"urgency,omitempty"`
	IncludeMarketResearch *bool           `json:"includeMarketResearch,omitempty"`
	GeneratePRD           *bool           `json:"generatePRD,omitempty"`
	WireframeGuidance     *bool           `json:"wireframeGuidance,omitempty"`
	Status                *Status         `json:"-"`
	Results               *AnalysisResult `json:"-"`
}

// Apply merges u into s and refreshes UpdatedAt. Only the provided fields
// change. An update that sets status or results leaves results attached
// only when the session ends up completed.
func (u SessionUpdate) Apply(s *Session, now time.Time) {
	if u.Title != nil {
		s.Title = *u.Title
	}
	if u.Description != nil {
		s.Description = cloneString(u.Description)
	}
	if u.ProductInput != nil {
		s.ProductInput = *u.ProductInput
	}
	if u.Industry != nil {
		s.Industry = cloneString(u.Industry)
	}
	if u.Urgency != nil {
		s.Urgency = cloneString(u.Urgency)
	}
	if u.IncludeMarketResearch != nil {
		s.IncludeMarketResearch = *u.IncludeMarketResearch
	}
	if u.GeneratePRD != nil {
		s.GeneratePRD = *u.GeneratePRD
	}
	if u.WireframeGuidance != nil {
		s.WireframeGuidance = *u.WireframeGuidance
	}
	if u.Status != nil {
		s.Status = *u.Status
	}
	if u.Results != nil {
		s.Results = u.Results.Clone()
	}
	if (u.Status != nil || u.Results != nil) && s.Status != StatusCompleted {
		s.Results = nil
	}
	s.UpdatedAt = now
}

// Export is the read-only download projection of a session.
type Export struct {
	Title        string          `json:"title" yaml:"title"`
	Description  *string         `json:"description" yaml:"description"`
	ProductInput string          `json:"productInput" yaml:"productInput"`
	Industry     *string         `json:"industry" yaml:"industry"`
	Results      *AnalysisResult `json:"results" yaml:"results"`
	CreatedAt    time.Time       `json:"createdAt" yaml:"createdAt"`
}

// ExportOf projects s for download.
func ExportOf(s *Session) *Export {
	return &Export{
		Title:        s.Title,
		Description:  cloneString(s.Description),
		ProductInput: s.ProductInput,
		Industry:     cloneString(s.Industry),
		Results:      s.Results.Clone(),
		CreatedAt:    s.CreatedAt,
	}
}

// StatusPtr returns a pointer to st, for use in SessionUpdate.
func StatusPtr(st Status) *Status {
	return &st
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
