package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

func createSubmitScanTool() mcp.Tool {
	return mcp.NewTool("submit_scan",
		mcp.WithDescription("Submit a BountyForge scan job against one or more targets"),
		mcp.WithArray("target",
			mcp.Required(),
			mcp.WithStringItems(),
			mcp.Description("Target hostnames or IPs"),
		),
		mcp.WithString("target_type",
			mcp.Required(),
			mcp.Description("single, multiple, or file"),
		),
		mcp.WithArray("tools",
			mcp.Required(),
			mcp.WithStringItems(),
			mcp.Description("Stages to run: subdomain_enum, dns_bruteforce, port_scan, http_probe, dir_bruteforce, template_scan"),
		),
		mcp.WithString("initiator",
			mcp.Required(),
			mcp.Description("Identity of the requester, used for job listing"),
		),
	)
}

func createGetJobTool() mcp.Tool {
	return mcp.NewTool("get_job",
		mcp.WithDescription("Retrieve a job's current status and accumulated results"),
		mcp.WithString("job_id",
			mcp.Required(),
			mcp.Description("Job ID returned by submit_scan"),
		),
	)
}

func createCheckAvailabilityTool() mcp.Tool {
	return mcp.NewTool("check_availability",
		mcp.WithDescription("Check which scan tool binaries are installed and resolvable on PATH"),
	)
}
