package main

import (
	"time"

	"github.com/carelayer/triage/clinical"
	"github.com/carelayer/triage/emergency"
	"github.com/carelayer/triage/escalation"
	"github.com/carelayer/triage/fallback"
	"github.com/carelayer/triage/safety"
)

// RouteRequest is the body for POST /api/v1/route.
type RouteRequest struct {
	Query        string           `json:"query"`
	SessionID    string           `json:"sessionId,omitempty"`
	Role         string           `json:"role,omitempty"`
	Demographics *DemographicsDTO `json:"demographics,omitempty"`
}

// SafetyRequest is the body for POST /api/v1/safety.
type SafetyRequest struct {
	Query        string           `json:"query"`
	Region       string           `json:"region,omitempty"`
	SessionID    string           `json:"sessionId,omitempty"`
	Demographics *DemographicsDTO `json:"demographics,omitempty"`
}

// DemographicsDTO is the caller-supplied patient context.
type DemographicsDTO struct {
	Age  int    `json:"age,omitempty"`
	Sex  string `json:"sex,omitempty"`
	Role string `json:"role,omitempty"`
}

func (d *DemographicsDTO) toClinical() *clinical.Demographics {
	if d == nil {
		return nil
	}
	return &clinical.Demographics{
		Age:  d.Age,
		Sex:  d.Sex,
		Role: parseRole(d.Role),
	}
}

// SafetyResponse is the wire form of a safety verdict. The full layer
// context stays server-side; callers get the actionable fields.
type SafetyResponse struct {
	TriageLevel         string                `json:"triageLevel"`
	Symptoms            []clinical.Symptom    `json:"symptoms"`
	SafetyNotices       []string              `json:"safetyNotices"`
	TriageWarning       string                `json:"triageWarning,omitempty"`
	FallbackResponse    *fallback.Response    `json:"fallbackResponse,omitempty"`
	ShouldBlockAI       bool                  `json:"shouldBlockAi"`
	RequiresHumanReview bool                  `json:"requiresHumanReview"`
	EmergencyProtocol   *emergency.Assessment `json:"emergencyProtocol,omitempty"`
	RouteToProvider     bool                  `json:"routeToProvider"`
	PriorityScore       int                   `json:"priorityScore"`
	MatchedRules        []string              `json:"matchedRules,omitempty"`
}

func toSafetyResponse(res safety.Result) SafetyResponse {
	resp := SafetyResponse{
		SafetyNotices:       res.SafetyNotices,
		TriageWarning:       res.TriageWarning,
		FallbackResponse:    res.FallbackResponse,
		ShouldBlockAI:       res.ShouldBlockAI,
		RequiresHumanReview: res.RequiresHumanReview,
		EmergencyProtocol:   res.EmergencyProtocol,
		RouteToProvider:     res.RouteToProvider,
		PriorityScore:       res.PriorityScore,
		MatchedRules:        res.MatchedRules,
	}
	if res.SafetyContext != nil {
		resp.TriageLevel = string(res.SafetyContext.Triage.Level)
		resp.Symptoms = res.SafetyContext.Symptoms
	}
	return resp
}

// CreateRegionRequest is the body for creating a region.
type CreateRegionRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RegionResponse is a region row in API responses.
type RegionResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateRuleRequest is the body for creating an escalation rule.
type CreateRuleRequest struct {
	Name       string `json:"name"`
	Expression string `json:"expression"`
	Action     string `json:"action"`
	Weight     int    `json:"weight"`
	Active     bool   `json:"active"`
}

// UpdateRuleRequest is the body for updating an escalation rule.
type UpdateRuleRequest struct {
	Name       string `json:"name"`
	Expression string `json:"expression"`
	Action     string `json:"action"`
	Weight     int    `json:"weight"`
	Active     bool   `json:"active"`
}

// RuleResponse is an escalation rule in API responses.
type RuleResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Expression string    `json:"expression"`
	Action     string    `json:"action"`
	Weight     int       `json:"weight"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func toRuleResponse(r *escalation.Rule) RuleResponse {
	return RuleResponse{
		ID:         r.ID,
		Name:       r.Name,
		Expression: r.Expression,
		Action:     string(r.Action),
		Weight:     r.Weight,
		Active:     r.Active,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}
