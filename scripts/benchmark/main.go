package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"
)

// CLI flags
var (
	apiURL = flag.String("api-url", "http://localhost:8080", "itdog API base URL")
	apiKey = flag.String("api-key", "", "API key for authenticated requests")
	runs   = flag.Int("runs", 3, "Number of runs per kind for averaging")
	target = flag.String("target", "example.com", "Base measurement target")
	output = flag.String("output", "benchmark-results.json", "JSON output file path")
)

// Measurement matrix. Traceroute is excluded: it needs a vantage node and
// a single node tells nothing about fleet latency.
func testKinds(base string) []struct{ Label, Kind, Target string } {
	return []struct{ Label, Kind, Target string }{
		{"Ping", "ipv4ping", base},
		{"TCPing", "ipv4tcping", base + ":443"},
		{"HTTP", "ipv4web", "https://" + base},
		{"IPv6 Ping", "ipv6ping", base},
	}
}

// --- Request / Response types (mirrors models package) ---

type measureRequest struct {
	Target string `json:"target"`
	Kind   string `json:"type"`
}

type envelope struct {
	Code int                        `json:"code"`
	Msg  string                     `json:"msg"`
	Data map[string]json.RawMessage `json:"data"`
}

// --- Benchmark result types ---

type runResult struct {
	Run        int    `json:"run"`
	LatencyMs  int64  `json:"latency_ms"`
	Code       int    `json:"code"`
	ZhRows     int    `json:"zh_rows"`
	GlobalRows int    `json:"global_rows"`
	DNSAnswers int    `json:"dns_answers"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}

type kindAverages struct {
	LatencyMs  float64 `json:"latency_ms"`
	ZhRows     float64 `json:"zh_rows"`
	GlobalRows float64 `json:"global_rows"`
}

type kindResult struct {
	Kind     string        `json:"kind"`
	Label    string        `json:"label"`
	Target   string        `json:"target"`
	Runs     []runResult   `json:"runs"`
	Averages *kindAverages `json:"averages,omitempty"`
}

type benchmarkReport struct {
	Timestamp   string       `json:"timestamp"`
	APIURL      string       `json:"api_url"`
	RunsPerKind int          `json:"runs_per_kind"`
	Results     []kindResult `json:"results"`
}

func main() {
	flag.Parse()

	fmt.Println("=== itdog Benchmark Suite ===")
	fmt.Printf("API URL:   %s\n", *apiURL)
	fmt.Printf("Target:    %s\n", *target)
	fmt.Printf("Runs/kind: %d\n", *runs)
	fmt.Printf("Output:    %s\n", *output)
	fmt.Println()

	// Quick connectivity check.
	if err := checkAPI(*apiURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach API at %s: %v\n", *apiURL, err)
		fmt.Fprintf(os.Stderr, "Make sure itdog is running (e.g. make run)\n")
		os.Exit(1)
	}

	report := benchmarkReport{
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		APIURL:      *apiURL,
		RunsPerKind: *runs,
	}

	for _, t := range testKinds(*target) {
		fmt.Printf("Benchmarking [%s] %s ...\n", t.Label, t.Target)
		kr := kindResult{Kind: t.Kind, Label: t.Label, Target: t.Target}

		for i := 1; i <= *runs; i++ {
			fmt.Printf("  Run %d/%d ... ", i, *runs)
			rr := benchmarkKind(t.Kind, t.Target, i)
			if rr.Success {
				fmt.Printf("OK  %dms  %d domestic / %d global rows\n", rr.LatencyMs, rr.ZhRows, rr.GlobalRows)
			} else {
				fmt.Printf("FAILED: %s\n", rr.Error)
			}
			kr.Runs = append(kr.Runs, rr)
		}

		kr.Averages = computeAverages(kr.Runs)
		report.Results = append(report.Results, kr)
		fmt.Println()
	}

	// Print summary table.
	printTable(report.Results)

	// Write JSON report.
	if err := writeJSON(*output, report); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDetailed results written to %s\n", *output)
}

func checkAPI(baseURL string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(baseURL + "/api/v1/health")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func benchmarkKind(kind, target string, run int) runResult {
	rr := runResult{Run: run}

	bodyBytes, err := json.Marshal(measureRequest{Target: target, Kind: kind})
	if err != nil {
		rr.Error = fmt.Sprintf("marshal error: %v", err)
		return rr
	}

	req, err := http.NewRequest("POST", *apiURL+"/api/v1/measure", bytes.NewReader(bodyBytes))
	if err != nil {
		rr.Error = fmt.Sprintf("request error: %v", err)
		return rr
	}
	req.Header.Set("Content-Type", "application/json")
	if *apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+*apiKey)
	}

	client := &http.Client{Timeout: 180 * time.Second}
	start := time.Now()
	resp, err := client.Do(req)
	rr.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		rr.Error = fmt.Sprintf("request failed: %v", err)
		return rr
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		rr.Error = fmt.Sprintf("decode error: %v", err)
		return rr
	}

	rr.Code = env.Code
	rr.Success = env.Code == 200
	rr.ZhRows = countRows(env.Data["zh_overview"])
	rr.GlobalRows = countRows(env.Data["overview"])
	rr.DNSAnswers = countRows(env.Data["dns_stats"])

	if !rr.Success {
		rr.Error = env.Msg
	}

	return rr
}

// countRows counts the elements of a JSON array bucket; 0 when absent.
func countRows(raw json.RawMessage) int {
	if raw == nil {
		return 0
	}
	var rows []json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return 0
	}
	return len(rows)
}

func computeAverages(runs []runResult) *kindAverages {
	var successCount int
	var avg kindAverages

	for _, r := range runs {
		if !r.Success {
			continue
		}
		successCount++
		avg.LatencyMs += float64(r.LatencyMs)
		avg.ZhRows += float64(r.ZhRows)
		avg.GlobalRows += float64(r.GlobalRows)
	}

	if successCount == 0 {
		return nil
	}

	n := float64(successCount)
	avg.LatencyMs /= n
	avg.ZhRows /= n
	avg.GlobalRows /= n
	return &avg
}

func printTable(results []kindResult) {
	fmt.Println(strings.Repeat("─", 70))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Kind\tAvg Latency\tDomestic\tGlobal\tOutcome\n")
	fmt.Fprintf(w, "────\t───────────\t────────\t──────\t───────\n")

	for _, r := range results {
		if r.Averages == nil {
			fmt.Fprintf(w, "%s\tFAILED\t-\t-\t%d\n", r.Label, dominantCode(r.Runs))
			continue
		}

		fmt.Fprintf(w, "%s\t%dms\t%.1f rows\t%.1f rows\t%d\n",
			r.Label,
			int64(r.Averages.LatencyMs),
			r.Averages.ZhRows,
			r.Averages.GlobalRows,
			dominantCode(r.Runs),
		)
	}

	w.Flush()
	fmt.Println(strings.Repeat("─", 70))
}

// dominantCode is the most frequent envelope code across runs.
func dominantCode(runs []runResult) int {
	counts := map[int]int{}
	for _, r := range runs {
		counts[r.Code]++
	}
	best, bestCount := 0, 0
	for code, count := range counts {
		if count > bestCount {
			best = code
			bestCount = count
		}
	}
	return best
}

func writeJSON(path string, report benchmarkReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
