package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// Handlers holds the handler functions for each MCP tool.
type Handlers struct {
	client *SubledgerClient
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(client *SubledgerClient) *Handlers {
	return &Handlers{client: client}
}

// HandleLookupPlan returns one plan or the full catalog.
func (h *Handlers) HandleLookupPlan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	planID := req.GetString("plan_id", "")

	if planID != "" {
		raw, err := h.client.GetPlan(ctx, planID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to look up plan: %v", err)), nil
		}
		return mcp.NewToolResultText(formatJSON(raw)), nil
	}

	raw, err := h.client.ListPlans(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list plans: %v", err)), nil
	}

	text, err := formatPlanList(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse plans: %v", err)), nil
	}
	return mcp.NewToolResultText(text), nil
}

// HandleGetEntitlement returns an organization's entitlement.
func (h *Handlers) HandleGetEntitlement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	orgID := req.GetString("organization_id", "")
	if orgID == "" {
		return mcp.NewToolResultError("organization_id is required"), nil
	}

	raw, err := h.client.GetEntitlement(ctx, orgID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get entitlement: %v", err)), nil
	}

	text, err := formatEntitlement(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse entitlement: %v", err)), nil
	}
	return mcp.NewToolResultText(text), nil
}

// HandleListSubscriptions returns a user's ledger entries.
func (h *Handlers) HandleListSubscriptions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := req.GetString("user_id", "")
	if userID == "" {
		return mcp.NewToolResultError("user_id is required"), nil
	}

	raw, err := h.client.ListSubscriptions(ctx, userID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list subscriptions: %v", err)), nil
	}

	text, err := formatSubscriptions(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse subscriptions: %v", err)), nil
	}
	return mcp.NewToolResultText(text), nil
}

// ---------------------------------------------------------------------------
// Formatting helpers
// ---------------------------------------------------------------------------

func formatPlanList(raw json.RawMessage) (string, error) {
	var resp struct {
		Plans []struct {
			ID          string `json:"id"`
			DisplayName string `json:"displayName"`
			Price       string `json:"price"`
			SeatLimit   int    `json:"seatLimit"`
		} `json:"plans"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", err
	}

	if len(resp.Plans) == 0 {
		return "No plans in the catalog.", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d plan(s):\n\n", len(resp.Plans))
	for _, p := range resp.Plans {
		fmt.Fprintf(&sb, "- [%s] %s: %s, up to %d seats\n", p.ID, p.DisplayName, p.Price, p.SeatLimit)
	}
	return sb.String(), nil
}

func formatEntitlement(raw json.RawMessage) (string, error) {
	var ent struct {
		OrganizationID string `json:"organizationId"`
		PlanID         string `json:"planId"`
		SeatLimit      int    `json:"seatLimit"`
		SourceEventID  string `json:"sourceEventId"`
		UpdatedAt      string `json:"updatedAt"`
	}
	if err := json.Unmarshal(raw, &ent); err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Organization %s\n", ent.OrganizationID)
	fmt.Fprintf(&sb, "Plan: %s\n", ent.PlanID)
	fmt.Fprintf(&sb, "Seats: %d\n", ent.SeatLimit)
	fmt.Fprintf(&sb, "Last payment event: %s\n", ent.SourceEventID)
	fmt.Fprintf(&sb, "Updated: %s\n", ent.UpdatedAt)
	return sb.String(), nil
}

func formatSubscriptions(raw json.RawMessage) (string, error) {
	var resp struct {
		Subscriptions []struct {
			ID        string `json:"id"`
			PlanID    string `json:"planId"`
			Amount    string `json:"amount"`
			StartDate string `json:"startDate"`
			EndDate   string `json:"endDate"`
		} `json:"subscriptions"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", err
	}

	if len(resp.Subscriptions) == 0 {
		return "No subscriptions found for this user.", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d subscription(s):\n\n", len(resp.Subscriptions))
	for _, s := range resp.Subscriptions {
		fmt.Fprintf(&sb, "- %s: plan %s, %s, %s to %s\n", s.ID, s.PlanID, s.Amount, s.StartDate, s.EndDate)
	}
	return sb.String(), nil
}

func formatJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
