package portal

import (
	"bytes"
	"fmt"
	"jntuh-results-backend/lib/htmlutil"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Listing is one row of an examination table on the home page.
type Listing struct {
	// Href is the result link of the row, empty if the row has none.
	Href string
	// Text is the row's text with whitespace collapsed to single spaces and
	// padded with one space on either end.
	Text string
}

// ParseHomePage returns the rows of every table on the home page in document
// order. The portal lists B.Tech examinations in the first table and
// B.Pharmacy examinations in the second.
func ParseHomePage(body []byte) ([][]Listing, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var tables [][]Listing
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		var rows []Listing
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			href, _ := row.Find("td").First().Find("a").First().Attr("href")
			text := strings.Join(strings.Fields(htmlutil.RawSelectionText(row)), " ")
			rows = append(rows, Listing{
				Href: href,
				Text: " " + text + " ",
			})
		})
		tables = append(tables, rows)
	})

	return tables, nil
}
