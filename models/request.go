package models

// Measurement kinds accepted by POST /api/v1/measure. Each kind is bound
// to a page URL and trigger script in the probe locator table.
const (
	KindIPv4Ping       = "ipv4ping"
	KindIPv6Ping       = "ipv6ping"
	KindIPv4TCPing     = "ipv4tcping"
	KindIPv6TCPing     = "ipv6tcping"
	KindIPv4Web        = "ipv4web"
	KindIPv6Web        = "ipv6web"
	KindIPv4Traceroute = "ipv4traceroute"
	KindIPv6Traceroute = "ipv6traceroute"
)

// MeasureRequest is the payload for POST /api/v1/measure.
type MeasureRequest struct {
	// Target is the host under test: URL, domain, IP, or host:port
	// depending on Kind. Required.
	Target string `json:"target" binding:"required"`

	// Kind selects the measurement type. Required.
	// Allowed: ipv4ping, ipv6ping, ipv4tcping, ipv6tcping, ipv4web,
	// ipv6web, ipv4traceroute, ipv6traceroute.
	Kind string `json:"type" binding:"required"`

	// DNS overrides the resolver used by the vantage points, e.g. "8.8.8.8".
	DNS string `json:"dns,omitempty"`

	// Node selects a single vantage point by display name. Required for
	// traceroute kinds, ignored by the others.
	Node string `json:"node,omitempty"`

	// Device picks the emulated device preset: "pc" (default), "phone",
	// "tablet".
	Device string `json:"device,omitempty" binding:"omitempty,oneof=pc phone tablet"`

	// IncludeMap captures the result map canvas as a base64 PNG bucket.
	// Default: false. Ignored for traceroute kinds.
	IncludeMap bool `json:"include_map,omitempty"`

	// Report renders the domestic overview table as a markdown bucket.
	// Default: false. Ignored for traceroute kinds.
	Report bool `json:"report,omitempty"`
}

// Defaults applies default values to unset fields.
func (r *MeasureRequest) Defaults() {
	if r.Device == "" {
		r.Device = "pc"
	}
}

// IsTraceroute reports whether the requested kind is a traceroute run,
// which follows a different page flow (node selection, single result region).
func (r *MeasureRequest) IsTraceroute() bool {
	return r.Kind == KindIPv4Traceroute || r.Kind == KindIPv6Traceroute
}
