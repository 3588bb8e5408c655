package extract

import (
	"strings"
	"sync"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

var reportConverter = sync.OnceValue(func() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(
				// Minimal padding keeps wide vantage tables compact instead
				// of aligning every column to the longest Chinese region
				// name.
				table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
			),
		),
	)
})

// RenderReport converts a result region's HTML to a markdown table for the
// report bucket and MCP display. The region is first cut down to its table
// so tab chrome and progress widgets stay out of the report.
func RenderReport(regionHTML string) (string, error) {
	fragment, err := Fragment(regionHTML, "table")
	if err != nil {
		return "", err
	}
	md, err := reportConverter().ConvertString(fragment)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(md), nil
}
