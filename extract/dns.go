package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/use-agent/itdog/models"
)

// ParseDNSList reads the resolution panel: one list item per answering IP,
// with the address and answer share in marked spans. Items missing either
// span are decoration and skipped.
func ParseDNSList(panelHTML string) ([]models.DNSStat, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(panelHTML))
	if err != nil {
		return nil, models.NewMeasureError(models.ErrCodeExtraction, "unparseable resolution panel", err)
	}
	stats := []models.DNSStat{}
	doc.Find("ul.ip_list li").Each(func(_ int, li *goquery.Selection) {
		ip := li.Find("span.ml-3").First()
		percent := li.Find("span.text-primary").First()
		if ip.Length() == 0 || percent.Length() == 0 {
			return
		}
		stats = append(stats, models.DNSStat{
			IP:      strings.TrimSpace(ip.Text()),
			Percent: strings.TrimSpace(percent.Text()),
		})
	})
	return stats, nil
}
