package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/use-agent/itdog/models"
)

// ParseNodeGroups reads the vantage selector's optgroups into group label
// → option texts. Works on the bare selector element or a whole page.
// Option order within a group is preserved; group key order is not
// semantic.
func ParseNodeGroups(selectorHTML string) (map[string][]string, int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(selectorHTML))
	if err != nil {
		return nil, 0, models.NewMeasureError(models.ErrCodeExtraction, "unparseable vantage selector", err)
	}
	sel := doc.Find("select.node_select").First()
	if sel.Length() == 0 {
		sel = doc.Find("select").First()
	}
	if sel.Length() == 0 {
		return nil, 0, models.NewMeasureError(models.ErrCodeExtraction, "no vantage selector in page", nil)
	}

	groups := map[string][]string{}
	total := 0
	sel.Find("optgroup").Each(func(_ int, og *goquery.Selection) {
		label := og.AttrOr("label", "")
		nodes := []string{}
		og.Find("option").Each(func(_ int, opt *goquery.Selection) {
			nodes = append(nodes, strings.TrimSpace(opt.Text()))
			total++
		})
		groups[label] = nodes
	})
	if len(groups) == 0 {
		return nil, 0, models.NewMeasureError(models.ErrCodeExtraction, "vantage selector has no groups", nil)
	}
	return groups, total, nil
}
