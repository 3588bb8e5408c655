// Package validate classifies measurement targets before any browser work
// happens. A target that fails here is rejected with a 400 envelope and
// never costs a session.
package validate

import (
	"net"
	"regexp"
	"strings"

	"github.com/use-agent/itdog/models"
)

var (
	httpURLRe    = regexp.MustCompile(`(?i)^https?://`)
	domainRe     = regexp.MustCompile(`^([a-zA-Z0-9-]+\.)+[a-zA-Z]{2,}(?::\d+)?(?:/.*)?$`)
	ipv4Re       = regexp.MustCompile(`^(\d{1,3}\.){3}\d{1,3}$`)
	ipv6Re       = regexp.MustCompile(`(?i)^\[?[0-9a-fA-F:]+::?[0-9a-fA-F:]*\]?$`)
	ipv6PortRe   = regexp.MustCompile(`(?i)^\[([0-9a-fA-F:]+)\]:(\d+)$`)
	ipv4PortRe   = regexp.MustCompile(`^(\d{1,3}\.){3}\d{1,3}:\d+$`)
	domainPortRe = regexp.MustCompile(`^([a-zA-Z0-9-]+\.)+[a-zA-Z]{2,}:\d+$`)
	portTailRe   = regexp.MustCompile(`^.+:\d+$`)
)

// shape is the outcome of classifying a raw target string. A dotted quad
// or bare hex-and-colons string only counts as an IP when net.ParseIP
// accepts it, so 999.999.999.999 falls through to "no valid shape".
type shape struct {
	http       bool
	domain     bool
	ipv4       bool
	ipv6       bool
	ipv4Port   bool
	ipv6Port   bool
	domainPort bool
}

func (s shape) any() bool {
	return s.http || s.domain || s.ipv4 || s.ipv6 || s.ipv4Port || s.ipv6Port || s.domainPort
}

func classify(target string) shape {
	var s shape
	s.http = httpURLRe.MatchString(target)
	s.domain = domainRe.MatchString(target)
	s.ipv4 = ipv4Re.MatchString(target) && net.ParseIP(target) != nil

	// Bracketed host:port first, because the bare IPv6 shape would also
	// swallow the brackets. The bracketed address is shape-matched here
	// and validity-checked where the kind demands it.
	s.ipv6Port = ipv6PortRe.MatchString(target)
	if !s.ipv6Port && ipv6Re.MatchString(target) {
		s.ipv6 = net.ParseIP(strings.Trim(target, "[]")) != nil
	}

	if ipv4PortRe.MatchString(target) {
		host := target[:strings.LastIndex(target, ":")]
		s.ipv4Port = net.ParseIP(host) != nil
	}
	s.domainPort = domainPortRe.MatchString(target)
	return s
}

func reject(msg string) error {
	return models.NewMeasureError(models.ErrCodeValidation, msg, nil)
}

// Check validates a target against the rules of the requested kind.
// Returns nil when the target is acceptable, otherwise a MeasureError
// whose Message is safe to surface verbatim in a 400 envelope.
func Check(target, kind string) error {
	s := classify(target)

	switch kind {
	case models.KindIPv4Ping, models.KindIPv6Ping:
		// Ping has no port concept. URLs keep their :port and bare IPv6
		// colons are not ports.
		if !s.http && !s.ipv6 && portTailRe.MatchString(target) {
			return reject("ping does not support a port")
		}
	case models.KindIPv4TCPing, models.KindIPv6TCPing:
		if !(s.ipv4Port || s.domainPort || s.ipv6Port) {
			return reject("tcping requires IP:port, domain:port or [IPv6]:port")
		}
		if m := ipv6PortRe.FindStringSubmatch(target); m != nil && net.ParseIP(m[1]) == nil {
			return reject("invalid IPv6 address")
		}
	}

	if !s.any() {
		return reject("invalid URL, domain or IP format")
	}

	if strings.HasPrefix(kind, "ipv4") {
		if !(s.http || s.domain) && !(s.ipv4 || s.ipv4Port) {
			return reject("invalid IPv4 address")
		}
	}
	if strings.HasPrefix(kind, "ipv6") {
		if !(s.http || s.domain) && !(s.ipv6 || s.ipv6Port) {
			return reject("invalid IPv6 address")
		}
	}
	return nil
}
