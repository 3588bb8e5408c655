package extract

import "testing"

func TestParseNodeGroups(t *testing.T) {
	t.Parallel()
	page := `<div><select class="node_select">
<optgroup label="中国大陆">
<option value="1">广东广州电信</option>
<option value="2">北京联通</option>
</optgroup>
<optgroup label="港澳台">
<option value="9">香港CMI</option>
</optgroup>
</select></div>`

	groups, total, err := ParseNodeGroups(page)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if total != 3 {
		t.Fatalf("total=%d", total)
	}
	if len(groups) != 2 {
		t.Fatalf("groups=%d", len(groups))
	}
	mainland := groups["中国大陆"]
	if len(mainland) != 2 || mainland[0] != "广东广州电信" || mainland[1] != "北京联通" {
		t.Fatalf("mainland=%v", mainland)
	}
	if len(groups["港澳台"]) != 1 || groups["港澳台"][0] != "香港CMI" {
		t.Fatalf("hmt=%v", groups["港澳台"])
	}
}

func TestParseNodeGroupsBareSelector(t *testing.T) {
	t.Parallel()
	// The browser path hands over the selector's own HTML, without the
	// node_select class context.
	frag := `<select><optgroup label="海外"><option>日本东京</option></optgroup></select>`
	groups, total, err := ParseNodeGroups(frag)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if total != 1 || groups["海外"][0] != "日本东京" {
		t.Fatalf("groups=%v total=%d", groups, total)
	}
}

func TestParseNodeGroupsMissing(t *testing.T) {
	t.Parallel()
	if _, _, err := ParseNodeGroups("<div>页面加载失败</div>"); err == nil {
		t.Fatal("parsed a page with no selector")
	}
	if _, _, err := ParseNodeGroups("<select></select>"); err == nil {
		t.Fatal("parsed a selector with no groups")
	}
}
