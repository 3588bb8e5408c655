package extract

import (
	"errors"
	"testing"

	"github.com/use-agent/itdog/models"
)

const webRegion = `
<div>
<table>
<thead><tr><th>监测点</th><th>解析</th><th>响应IP</th><th>响应时间</th><th>状态</th></tr></thead>
<tbody>
<tr class="node_tr"><td>电信 广州</td><td>0.1s</td><td class="real_ip">1.2.3.4 <div>广东广州</div></td><td>35ms</td><td>查看</td></tr>
<tr class="head_info"><td><div>HTTP/1.1 200 OK</div><div>Server: nginx</div></td></tr>
<tr class="progress_tr"><td colspan="5">progress noise</td></tr>
<tr class="node_tr"><td>联通 北京</td><td>0.2s</td><td class="real_ip">5.6.7.8 <div>北京</div></td><td>50ms</td><td>查看</td></tr>
</tbody>
</table>
</div>`

func TestParseTableWeb(t *testing.T) {
	t.Parallel()
	recs, err := ParseTable(webRegion, SchemaWeb)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("records=%d", len(recs))
	}

	first := recs[0]
	if first["operator"] != "电信" || first["point"] != "广州" {
		t.Fatalf("prefix=%q/%q", first["operator"], first["point"])
	}
	if first["analysis"] != "0.1s" {
		t.Fatalf("analysis=%q", first["analysis"])
	}
	if first["rip"] != "1.2.3.4" {
		t.Fatalf("rip=%q", first["rip"])
	}
	if first["response_time"] != "35ms" {
		t.Fatalf("response_time=%q", first["response_time"])
	}
	if _, ok := first["status"]; ok {
		t.Fatalf("view cell leaked: %q", first["status"])
	}
	if first["head"] != "HTTP/1.1 200 OK\nServer: nginx" {
		t.Fatalf("head=%q", first["head"])
	}

	if recs[1]["operator"] != "联通" || recs[1]["rip"] != "5.6.7.8" {
		t.Fatalf("second=%v", recs[1])
	}
	if _, ok := recs[1]["head"]; ok {
		t.Fatalf("head bled into second record")
	}
}

func TestParseTableWebOrphanHeadInfo(t *testing.T) {
	t.Parallel()
	region := `<table>
<thead><tr><th>监测点</th><th>解析</th></tr></thead>
<tbody>
<tr class="head_info"><td>orphan</td></tr>
<tr class="node_tr"><td>移动 上海</td><td>0.3s</td></tr>
</tbody></table>`
	recs, err := ParseTable(region, SchemaWeb)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("records=%d", len(recs))
	}
	if _, ok := recs[0]["head"]; ok {
		t.Fatalf("orphan head attached: %v", recs[0])
	}
}

func TestParseTableWebSingleTokenFirstCell(t *testing.T) {
	t.Parallel()
	region := `<table>
<thead><tr><th>监测点</th><th>解析</th></tr></thead>
<tbody><tr class="node_tr"><td>电信</td><td>0.1s</td></tr></tbody></table>`
	recs, err := ParseTable(region, SchemaWeb)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if recs[0]["operator"] != "电信" {
		t.Fatalf("operator=%q", recs[0]["operator"])
	}
	if _, ok := recs[0]["point"]; ok {
		t.Fatalf("point from single token: %v", recs[0])
	}
}

func TestParseTableTraceroute(t *testing.T) {
	t.Parallel()
	region := `<table>
<thead><tr><th>跳数</th><th>IP</th><th>丢包率</th><th>平均(ms)</th></tr></thead>
<tbody>
<tr class="ttl_tr"><td>1</td><td>192.168.1.1</td><td>0%</td><td>2.1</td></tr>
<tr class="summary_tr"><td colspan="4">统计行</td></tr>
<tr class="ttl_tr"><td>2</td><td>10.0.0.1</td><td>0%</td><td>8.3</td></tr>
</tbody></table>`
	recs, err := ParseTable(region, SchemaTraceroute)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("records=%d", len(recs))
	}
	if recs[0]["hop"] != "1" || recs[0]["ip"] != "192.168.1.1" || recs[0]["loss"] != "0%" || recs[0]["avg"] != "2.1" {
		t.Fatalf("first=%v", recs[0])
	}
	if recs[1]["hop"] != "2" {
		t.Fatalf("second=%v", recs[1])
	}
}

func TestParseTableOverview(t *testing.T) {
	t.Parallel()
	region := `<table>
<thead><tr><th>区域/运营商</th><th>最快</th><th>最慢</th><th>平均</th></tr></thead>
<tbody>
<tr><td>广东电信</td><td>12ms</td><td>80ms</td><td>45ms</td></tr>
<tr><td>北京联通</td><td>8ms</td><td>60ms</td><td>30ms</td></tr>
</tbody></table>`
	recs, err := ParseTable(region, SchemaOverview)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("records=%d", len(recs))
	}
	if recs[0]["region"] != "广东电信" || recs[0]["fast"] != "12ms" || recs[0]["slow"] != "80ms" || recs[0]["avg"] != "45ms" {
		t.Fatalf("first=%v", recs[0])
	}
}

func TestParseTableAllPoints(t *testing.T) {
	t.Parallel()
	region := `<table>
<thead><tr><th>检测点</th><th>响应IP</th><th>响应时间</th></tr></thead>
<tbody>
<tr><td>电信 深圳</td><td class="real_ip">9.9.9.9 <div>备注</div></td><td>20ms</td></tr>
<tr><td>移动 成都</td><td class="real_ip">8.8.8.8</td><td>33ms</td></tr>
</tbody></table>`
	recs, err := ParseTable(region, SchemaAllPoints)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	// Unlike the web shape, unclassed rows all count.
	if len(recs) != 2 {
		t.Fatalf("records=%d", len(recs))
	}
	if recs[0]["operator"] != "电信" || recs[0]["point"] != "深圳" {
		t.Fatalf("prefix=%v", recs[0])
	}
	if recs[0]["rip"] != "9.9.9.9" || recs[1]["rip"] != "8.8.8.8" {
		t.Fatalf("rip=%q/%q", recs[0]["rip"], recs[1]["rip"])
	}
	if recs[1]["response_time"] != "33ms" {
		t.Fatalf("response_time=%q", recs[1]["response_time"])
	}
}

func TestParseTableDuplicateHeaderLastWins(t *testing.T) {
	t.Parallel()
	region := `<table>
<thead><tr><th>状态</th><th>状态</th></tr></thead>
<tbody><tr><td>老值</td><td>新值</td></tr></tbody></table>`
	recs, err := ParseTable(region, SchemaOverview)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if recs[0]["status"] != "新值" {
		t.Fatalf("status=%q", recs[0]["status"])
	}
}

func TestParseTableNoTable(t *testing.T) {
	t.Parallel()
	_, err := ParseTable("<div><p>测速失败</p></div>", SchemaOverview)
	if err == nil {
		t.Fatal("parsed a region with no table")
	}
	var me *models.MeasureError
	if !errors.As(err, &me) || me.Code != models.ErrCodeExtraction {
		t.Fatalf("err=%v", err)
	}
}

func TestParseTableEmptyBody(t *testing.T) {
	t.Parallel()
	recs, err := ParseTable(`<table><thead><tr><th>区域</th></tr></thead><tbody></tbody></table>`, SchemaOverview)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("records=%d", len(recs))
	}
}
