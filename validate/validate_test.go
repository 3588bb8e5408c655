package validate

import (
	"errors"
	"testing"

	"github.com/use-agent/itdog/models"
)

func TestCheck(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		target string
		kind   string
		msg    string // "" means accepted
	}{
		{"bare domain ping", "example.com", models.KindIPv4Ping, ""},
		{"url keeps its port", "https://example.com:8443/health", models.KindIPv4Ping, ""},
		{"domain port ping", "example.com:80", models.KindIPv4Ping, "ping does not support a port"},
		{"ipv4 port ping", "1.2.3.4:443", models.KindIPv4Ping, "ping does not support a port"},
		{"out of range octets", "999.999.999.999", models.KindIPv4Ping, "invalid URL, domain or IP format"},
		{"bare ipv6 ping", "2606:4700::1111", models.KindIPv6Ping, ""},
		{"bracketed ipv6 ping", "[2606:4700::1111]", models.KindIPv6Ping, ""},
		{"v4 target on v6 kind", "1.2.3.4", models.KindIPv6Ping, "invalid IPv6 address"},
		{"v6 target on v4 kind", "2606:4700::1111", models.KindIPv4Ping, "invalid IPv4 address"},
		{"tcping without port", "example.com", models.KindIPv4TCPing, "tcping requires IP:port, domain:port or [IPv6]:port"},
		{"tcping domain port", "example.com:443", models.KindIPv4TCPing, ""},
		{"tcping ipv4 port", "1.2.3.4:22", models.KindIPv4TCPing, ""},
		{"tcping bracketed ipv6", "[2606:4700::1111]:443", models.KindIPv6TCPing, ""},
		{"tcping broken bracket host", "[2606::4700::1]:443", models.KindIPv6TCPing, "invalid IPv6 address"},
		{"web url", "https://example.com/path?x=1", models.KindIPv4Web, ""},
		{"garbage", "not a host", models.KindIPv4Web, "invalid URL, domain or IP format"},
		{"traceroute ipv4", "8.8.8.8", models.KindIPv4Traceroute, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := Check(tc.target, tc.kind)
			if tc.msg == "" {
				if err != nil {
					t.Fatalf("rejected: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("accepted %q", tc.target)
			}
			var me *models.MeasureError
			if !errors.As(err, &me) {
				t.Fatalf("err type %T", err)
			}
			if me.Code != models.ErrCodeValidation {
				t.Fatalf("code=%s", me.Code)
			}
			if me.Message != tc.msg {
				t.Fatalf("msg=%q want %q", me.Message, tc.msg)
			}
		})
	}
}
