package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/gokatarajesh/quiz-admin/internal/plan"
)

// ListPlans fetches question plans; query is forwarded untouched.
func (c *Client) ListPlans(ctx context.Context, query url.Values) ([]plan.Plan, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/question-plans", "/question-plans", query, nil, &raw); err != nil {
		return nil, err
	}
	var plans []plan.Plan
	if err := unwrapData(raw, &plans); err != nil {
		return nil, err
	}
	for i := range plans {
		c.logUndecodable(plans[i])
	}
	return plans, nil
}

// GetPlan fetches one plan by id.
func (c *Client) GetPlan(ctx context.Context, id string) (plan.Plan, error) {
	return c.planCall(ctx, http.MethodGet, "/question-plans/{id}", planPath(id), nil)
}

// CreatePlan posts a new plan.
func (c *Client) CreatePlan(ctx context.Context, req plan.CreateRequest) (plan.Plan, error) {
	return c.planCall(ctx, http.MethodPost, "/question-plans", "/question-plans", req)
}

// UpdatePlan replaces plan id. Created entries must already be references.
func (c *Client) UpdatePlan(ctx context.Context, id string, req plan.UpdateRequest) (plan.Plan, error) {
	p, err := c.planCall(ctx, http.MethodPut, "/question-plans/{id}", planPath(id), req)
	if err == nil && p.ID == "" {
		p.ID = id
	}
	return p, err
}

// PatchPlan sends only the members in p; upstream keeps the rest.
func (c *Client) PatchPlan(ctx context.Context, id string, p plan.Patch) (plan.Plan, error) {
	updated, err := c.planCall(ctx, http.MethodPut, "/question-plans/{id}", planPath(id), p)
	if err == nil && updated.ID == "" {
		updated.ID = id
	}
	return updated, err
}

// DeletePlan removes plan id.
func (c *Client) DeletePlan(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/question-plans/{id}", planPath(id), nil, nil, nil)
}

// GeneratePlan asks upstream to generate up to limit questions for plan id.
// The upstream payload is returned verbatim.
func (c *Client) GeneratePlan(ctx context.Context, id string, limit int) (json.RawMessage, error) {
	var raw json.RawMessage
	err := c.do(ctx, http.MethodPost, "/question-plans/{id}/generate", planPath(id)+"/generate", nil, plan.GenerateRequest{Limit: limit}, &raw)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) planCall(ctx context.Context, method, route, path string, in any) (plan.Plan, error) {
	var raw json.RawMessage
	if err := c.do(ctx, method, route, path, nil, in, &raw); err != nil {
		return plan.Plan{}, err
	}
	var p plan.Plan
	if err := unwrapData(raw, &p); err != nil {
		return plan.Plan{}, err
	}
	c.logUndecodable(p)
	return p, nil
}

// logUndecodable reports created entries whose embedded question could not be
// read; they stay in the plan as corrupted entries.
func (c *Client) logUndecodable(p plan.Plan) {
	for i, e := range p.Created {
		if err := e.DecodeError(); err != nil {
			c.logger.Warn().Err(err).
				Str("plan_id", p.ID).
				Int("index", i).
				Str("question_id", e.ID()).
				Msg("undecodable created entry")
		}
	}
}

func planPath(id string) string {
	return "/question-plans/" + url.PathEscape(id)
}
