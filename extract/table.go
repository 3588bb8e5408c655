// Package extract turns the measurement site's rendered result regions
// into keyed records. The walks are locked to the site's markup: row and
// cell class markers, the combined first cell of vantage tables, and the
// header displacement that markup forces are all part of the contract.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/use-agent/itdog/models"
)

// Markup markers of the result tables.
const (
	classNodeRow  = "node_tr"
	classHeadInfo = "head_info"
	classHopRow   = "ttl_tr"
	classRealIP   = "real_ip"

	// viewMarker is the text of the detail-link cell ("view"); it carries
	// no data and is skipped.
	viewMarker = "查看"

	// headKey is the raw key head-info rows fold under before
	// normalization maps it to "head".
	headKey = "Head"

	keyOperator = "operator"
	keyPoint    = "point"
)

// ParseTable walks the first table inside a result region's HTML and
// returns its rows as normalized records, in document order.
func ParseTable(regionHTML string, schema Schema) ([]models.Record, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(regionHTML))
	if err != nil {
		return nil, models.NewMeasureError(models.ErrCodeExtraction, "unparseable result region", err)
	}
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, models.NewMeasureError(models.ErrCodeExtraction, "no table in result region", nil)
	}

	headers := scrapeHeaders(table, schema)
	records := []models.Record{}

	switch schema {
	case SchemaWeb:
		table.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
			if tr.HasClass(classNodeRow) {
				records = append(records, prefixedRow(tr, headers, true))
			}
			// A head-info row describes the vantage row right above it.
			// Without one it describes nothing and is dropped.
			if tr.HasClass(classHeadInfo) && len(records) > 0 {
				records[len(records)-1][headKey] = headText(tr)
			}
		})
	case SchemaAllPoints:
		table.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
			records = append(records, prefixedRow(tr, headers, false))
		})
	case SchemaTraceroute:
		table.Find("tbody tr."+classHopRow).Each(func(_ int, tr *goquery.Selection) {
			records = append(records, positionalRow(tr, headers))
		})
	default:
		table.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
			records = append(records, positionalRow(tr, headers))
		})
	}

	return Normalize(records, schema.family()), nil
}

// scrapeHeaders reads the header texts. Prefixed schemas plant the two
// implicit keys for the combined first cell in front, which displaces the
// first scraped header: data cells after the first land at index i+2.
func scrapeHeaders(table *goquery.Selection, schema Schema) []string {
	var headers []string
	if schema == SchemaWeb || schema == SchemaAllPoints {
		headers = append(headers, keyOperator, keyPoint)
	}
	table.Find("thead th").Each(func(_ int, th *goquery.Selection) {
		headers = append(headers, strings.TrimSpace(th.Text()))
	})
	return headers
}

// prefixedRow reads a row whose first cell is the combined "operator
// point" pair. Response-IP cells keep only their first token (the markup
// appends a location div). Cells beyond the scraped headers are dropped.
func prefixedRow(tr *goquery.Selection, headers []string, skipView bool) models.Record {
	row := models.Record{}
	tr.Find("td").Each(func(i int, td *goquery.Selection) {
		text := strings.TrimSpace(td.Text())
		switch {
		case skipView && text == viewMarker:
		case i == 0:
			fields := strings.Fields(td.Text())
			if len(fields) > 0 && len(headers) > 0 {
				row[headers[0]] = fields[0]
			}
			if len(fields) > 1 && len(headers) > 1 {
				row[headers[1]] = fields[1]
			}
		case td.HasClass(classRealIP):
			if fields := strings.Fields(td.Text()); len(fields) > 0 && i+2 < len(headers) {
				row[headers[i+2]] = fields[0]
			}
		default:
			if i+2 < len(headers) {
				row[headers[i+2]] = text
			}
		}
	})
	return row
}

func positionalRow(tr *goquery.Selection, headers []string) models.Record {
	row := models.Record{}
	tr.Find("td").Each(func(i int, td *goquery.Selection) {
		if i < len(headers) {
			row[headers[i]] = strings.TrimSpace(td.Text())
		}
	})
	return row
}

// headText joins every non-blank text fragment of the row's first cell
// with newlines, preserving the response-header lines as rendered.
func headText(tr *goquery.Selection) string {
	td := tr.Find("td").First()
	if td.Length() == 0 {
		return ""
	}
	var lines []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if s := strings.TrimSpace(n.Data); s != "" {
				lines = append(lines, s)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(td.Nodes[0])
	return strings.Join(lines, "\n")
}
