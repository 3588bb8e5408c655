package extract

import (
	"strings"

	"github.com/use-agent/itdog/models"
)

// Schema selects the table walk used on a result region.
type Schema int

const (
	// SchemaWeb is the web-test layout: only rows classed as node rows
	// carry data, rows classed as head info fold into the previous record,
	// and the first cell is the combined "operator point" pair.
	SchemaWeb Schema = iota
	// SchemaTraceroute is the hop table: rows classed ttl_tr, headers
	// applied positionally.
	SchemaTraceroute
	// SchemaOverview is the plain layout: every body row, headers applied
	// positionally. The region tables of a finished measurement use this.
	SchemaOverview
	// SchemaAllPoints is the per-vantage dump: every body row with the
	// implicit operator/point first cell and response-IP token handling.
	SchemaAllPoints
)

// Family selects the canonical key mapping applied after a table walk.
type Family int

const (
	FamilySpeedtest Family = iota
	FamilyTraceroute
)

func (s Schema) family() Family {
	if s == SchemaTraceroute {
		return FamilyTraceroute
	}
	return FamilySpeedtest
}

// Source header → canonical key, per family. The site has renamed columns
// over time ("最快(ms)" vs "最 快(ms)"), so several sources share a target.
var keyMaps = map[Family]map[string]string{
	FamilyTraceroute: {
		"跳数":         "hop",
		"IP":         "ip",
		"PTR":        "ptr",
		"地理位置 /仅供参考": "loc",
		"AS":         "as",
		"丢包率":        "loss",
		"发包":         "pkt",
		"最新(ms)":     "last",
		"最快(ms)":     "best",
		"最慢(ms)":     "worst",
		"平均(ms)":     "avg",
		"最 快(ms)":    "best",
	},
	FamilySpeedtest: {
		"区域/运营商":  "region",
		"区域":      "region",
		"最快":      "fast",
		"最慢":      "slow",
		"平均":      "avg",
		"检测点":     "point",
		"响应IP":    "rip",
		"IP位置":    "iploc",
		"状态":      "status",
		"总耗时":     "duration",
		"解析":      "analysis",
		"连接":      "conn",
		"下载":      "down",
		"重定向":     "redir",
		"Head":    "head",
		"响应IP:端口": "rip_port",
		"响应时间":    "response_time",
		"丢包":      "loss",
		"发包":      "pkt",
	},
}

// Normalize rewrites scraped header keys to canonical names. Source keys
// are trimmed first; unknown keys pass through trimmed. Applying it to
// already-normalized records is a no-op.
func Normalize(records []models.Record, family Family) []models.Record {
	mapping := keyMaps[family]
	out := make([]models.Record, 0, len(records))
	for _, rec := range records {
		nr := models.Record{}
		for k, v := range rec {
			key := strings.TrimSpace(k)
			if nk, ok := mapping[key]; ok {
				key = nk
			}
			nr[key] = v
		}
		out = append(out, nr)
	}
	return out
}
