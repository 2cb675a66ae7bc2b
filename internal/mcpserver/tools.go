package mcpserver

import "github.com/mark3labs/mcp-go/mcp"

// Tool definitions for the subledger MCP server.
// Descriptions are what the LLM reads to decide which tool to use.

var ToolLookupPlan = mcp.NewTool("lookup_plan",
	mcp.WithDescription(
		"Look up subscription plans in the catalog. "+
			"Returns plan names, authoritative prices, and seat limits. "+
			"Omit plan_id to list every plan."),
	mcp.WithString("plan_id",
		mcp.Description("Plan id to look up (e.g. '2'). When omitted, all plans are returned.")),
)

var ToolGetEntitlement = mcp.NewTool("get_entitlement",
	mcp.WithDescription(
		"Get an organization's current entitlement: which plan it is on, "+
			"how many seats it has, and which payment event last updated it."),
	mcp.WithString("organization_id",
		mcp.Required(),
		mcp.Description("The organization's id (e.g. '42')")),
)

var ToolListSubscriptions = mcp.NewTool("list_subscriptions",
	mcp.WithDescription(
		"List a user's subscription ledger entries, newest first. "+
			"Each entry shows the plan, amount paid, coverage period, and the provider event that created it."),
	mcp.WithString("user_id",
		mcp.Required(),
		mcp.Description("The user's id (e.g. '7')")),
)
