package models

import "errors"

// Envelope is the uniform response body for every measurement endpoint.
// Code carries the outcome class (200 success, 400 rejected input, 500
// execution failure) and doubles as the HTTP status.
type Envelope struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data,omitempty"`
}

// OK wraps a payload in a success envelope.
func OK(data any) *Envelope {
	return &Envelope{Code: 200, Msg: "success", Data: data}
}

// Rejected builds a 400 envelope for input the service refuses to run.
func Rejected(msg string) *Envelope {
	return &Envelope{Code: 400, Msg: msg}
}

// Failed builds a 500 envelope for a measurement that could not complete.
func Failed(msg string) *Envelope {
	return &Envelope{Code: 500, Msg: msg}
}

// FromError folds an internal error into an envelope. Validation problems
// surface as rejected input; everything else is an execution failure.
func FromError(err error) *Envelope {
	var me *MeasureError
	if errors.As(err, &me) {
		if me.Code == ErrCodeValidation {
			return Rejected(me.Message)
		}
		return Failed(me.Message)
	}
	return Failed(err.Error())
}

// Record is one extracted result row: canonical key → cell text.
type Record map[string]string

// DNSStat is one resolver answer from the resolution panel.
type DNSStat struct {
	IP      string `json:"ip"`
	Percent string `json:"percent"`
}

// Result set bucket names. A measurement response's Data maps these to
// their extracted contents.
const (
	BucketZhOverview = "zh_overview" // domestic vantage table
	BucketOverview   = "overview"    // overseas vantage table
	BucketDNSStats   = "dns_stats"   // resolution panel
	BucketTraceroute = "traceroute"  // hop table
	BucketMapImage   = "map_image"   // base64 PNG of the result map canvas
	BucketReport     = "report"      // markdown rendering of the domestic table
)

// NodeDirectory is the payload for GET /api/v1/nodes: the site's vantage
// points grouped as the selector presents them. Node order within a group
// is preserved; group key order is not semantic.
type NodeDirectory struct {
	NodeType   string              `json:"node_type"` // "ipv4" or "ipv6"
	TotalNodes int                 `json:"total_nodes"`
	Groups     map[string][]string `json:"groups"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status    string    `json:"status"` // "healthy" or "degraded"
	Uptime    string    `json:"uptime"`
	PoolStats PoolStats `json:"pool_stats"`
	Version   string    `json:"version"`
}

// PoolStats reports the state of the browser session pool.
type PoolStats struct {
	MaxSessions  int `json:"max_sessions"`
	LiveSessions int `json:"live_sessions"`
	BrowserPID   int `json:"browser_pid"`
}
