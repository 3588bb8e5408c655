package extract

import "testing"

func TestBuildSelector(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		kind  string
		value string
		attr  string
		want  string
	}{
		{"id", "id", "host", "", "#host"},
		{"class", "class", "node_select", "", ".node_select"},
		{"name", "name", "dns", "", "[name='dns']"},
		{"xpath passthrough", "xpath", `//*[@id="china_region"]`, "", `//*[@id="china_region"]`},
		{"css passthrough", "css", "table > tbody tr", "", "table > tbody tr"},
		{"tag", "tag", "canvas", "", "canvas"},
		{"data default attr", "data", "42", "", "[data-id='42']"},
		{"data named attr", "data", "cn", "data-region", "[data-region='cn']"},
		{"attr", "attr", "hidden", "aria-hidden", "[aria-hidden='hidden']"},
		{"attr without name", "attr", "hidden", "", ""},
		{"text", "text", "测速", "", "//*[contains(text(), '测速')]"},
		{"canvas first", "canvas", "first", "", "canvas"},
		{"canvas first case folded", "canvas", "First", "", "canvas"},
		{"canvas ordinal", "canvas", "3", "", "canvas:nth-of-type(3)"},
		{"canvas id", "canvas", "china_map", "", "canvas#china_map"},
		{"canvas raw selector", "canvas", "#map", "", "#map"},
		{"iframe ordinal", "iframe", "2", "", "iframe:nth-of-type(2)"},
		{"iframe id", "iframe", "ad_frame", "", "iframe#ad_frame"},
		{"kind trimmed and folded", " ID ", "host", "", "#host"},
		{"unknown kind", "shadow", "x", "", ""},
		{"empty value", "id", "", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := BuildSelector(tc.kind, tc.value, tc.attr); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}
