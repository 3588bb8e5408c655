package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// measureRequest mirrors the itdog API request model.
type measureRequest struct {
	Target     string `json:"target"`
	Kind       string `json:"type"`
	DNS        string `json:"dns,omitempty"`
	Node       string `json:"node,omitempty"`
	Device     string `json:"device,omitempty"`
	IncludeMap bool   `json:"include_map,omitempty"`
	Report     bool   `json:"report,omitempty"`
}

// envelope mirrors the itdog API response body.
type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// nodeDirectory mirrors the nodes API payload.
type nodeDirectory struct {
	NodeType   string              `json:"node_type"`
	TotalNodes int                 `json:"total_nodes"`
	Groups     map[string][]string `json:"groups"`
}

func main() {
	apiURL := os.Getenv("ITDOG_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	// Optional: only needed when the API runs with auth enabled.
	apiKey := os.Getenv("ITDOG_API_KEY")

	s := server.NewMCPServer(
		"itdog",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	runTool := mcp.NewTool("run_measurement",
		mcp.WithDescription("Run a network measurement (ping, tcping, http or traceroute) against a target from hundreds of vantage points across China and worldwide. Uses a headless browser to drive the measurement site."),
		mcp.WithString("target",
			mcp.Required(),
			mcp.Description("The measurement target: domain, IP, IP:port or URL depending on type"),
		),
		mcp.WithString("type",
			mcp.Required(),
			mcp.Description("Measurement type"),
			mcp.Enum("ipv4ping", "ipv6ping", "ipv4tcping", "ipv6tcping", "ipv4web", "ipv6web", "ipv4traceroute", "ipv6traceroute"),
		),
		mcp.WithString("node",
			mcp.Description("Vantage node label, required for traceroute (see list_nodes)"),
		),
		mcp.WithString("dns",
			mcp.Description("Custom DNS server used to resolve the target"),
		),
		mcp.WithString("device",
			mcp.Description("Emulated client: 'pc' (default), 'phone' or 'tablet'"),
			mcp.Enum("pc", "phone", "tablet"),
		),
		mcp.WithBoolean("report",
			mcp.Description("Include a markdown report of the domestic results"),
		),
	)
	s.AddTool(runTool, handleRunMeasurement(apiURL, apiKey))

	nodesTool := mcp.NewTool("list_nodes",
		mcp.WithDescription("List the vantage nodes available for traceroute measurements, grouped by carrier and region."),
		mcp.WithString("type",
			mcp.Description("Node address family: 'ipv4' (default) or 'ipv6'"),
			mcp.Enum("ipv4", "ipv6"),
		),
		mcp.WithBoolean("refresh",
			mcp.Description("Force refetching the directory instead of serving the cache"),
		),
	)
	s.AddTool(nodesTool, handleListNodes(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func handleRunMeasurement(apiURL, apiKey string) server.ToolHandlerFunc {
	// A slow target can hold the measurement page for a while; allow for
	// navigation retries on top.
	client := &http.Client{Timeout: 180 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		target, err := request.RequireString("target")
		if err != nil {
			return mcp.NewToolResultError("target is required"), nil
		}
		kind, err := request.RequireString("type")
		if err != nil {
			return mcp.NewToolResultError("type is required"), nil
		}

		reqBody := measureRequest{
			Target: target,
			Kind:   kind,
			Node:   request.GetString("node", ""),
			DNS:    request.GetString("dns", ""),
			Device: request.GetString("device", ""),
			Report: request.GetBool("report", false),
		}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/measure", reqBody)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("measure request failed: %v", err)), nil
		}

		var env envelope
		if err := json.Unmarshal(respBody, &env); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if env.Code != 200 {
			return mcp.NewToolResultError(fmt.Sprintf("measurement failed (%d): %s", env.Code, env.Msg)), nil
		}

		buckets := map[string]json.RawMessage{}
		if err := json.Unmarshal(env.Data, &buckets); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse results: %v", err)), nil
		}

		var sb strings.Builder
		// The report bucket reads better as text than as a JSON string.
		if raw, ok := buckets["report"]; ok {
			var report string
			if json.Unmarshal(raw, &report) == nil && report != "" {
				sb.WriteString(report)
				sb.WriteString("\n\n")
			}
			delete(buckets, "report")
		}

		pretty, err := json.MarshalIndent(buckets, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to render results: %v", err)), nil
		}
		sb.Write(pretty)

		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleListNodes(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 120 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		version := request.GetString("type", "ipv4")

		endpoint := "/api/v1/nodes?type=" + url.QueryEscape(version)
		if request.GetBool("refresh", false) {
			endpoint += "&refresh=true"
		}

		respBody, err := apiGet(ctx, client, apiURL, apiKey, endpoint)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("nodes request failed: %v", err)), nil
		}

		var env envelope
		if err := json.Unmarshal(respBody, &env); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if env.Code != 200 {
			return mcp.NewToolResultError(fmt.Sprintf("listing nodes failed (%d): %s", env.Code, env.Msg)), nil
		}

		var dir nodeDirectory
		if err := json.Unmarshal(env.Data, &dir); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse directory: %v", err)), nil
		}

		labels := make([]string, 0, len(dir.Groups))
		for label := range dir.Groups {
			labels = append(labels, label)
		}
		sort.Strings(labels)

		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("%d %s vantage nodes in %d groups:\n\n", dir.TotalNodes, dir.NodeType, len(dir.Groups)))
		for _, label := range labels {
			sb.WriteString(fmt.Sprintf("%s:\n  %s\n", label, strings.Join(dir.Groups[label], ", ")))
		}

		return mcp.NewToolResultText(sb.String()), nil
	}
}

// apiPost sends a POST request to the itdog API and returns the response body.
func apiPost(ctx context.Context, client *http.Client, apiURL, apiKey, path string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// apiGet sends a GET request to the itdog API and returns the response body.
func apiGet(ctx context.Context, client *http.Client, apiURL, apiKey, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}
