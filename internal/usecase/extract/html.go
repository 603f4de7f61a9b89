package extract

import (
	"fmt"
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Elements that carry navigation or chrome rather than content.
const strippedSelectors = "script, style, nav, footer, header, aside, .sidebar, .menu, .navigation"

// Containers likely to hold the main content of a page.
const contentSelectors = "main, article, .content, .post, #content, #main"

// ExtractHTML strips non-content elements and flattens the page to plain
// text. Tables are converted to markdown before flattening — naive
// flattening concatenates cell text without separators and destroys
// tabular meaning. Returns the cleaned text and the page title, if any.
func ExtractHTML(rawHTML string) (text, title string, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", "", fmt.Errorf("parse html: %w", err)
	}

	title = strings.TrimSpace(doc.Find("title").First().Text())

	doc.Find(strippedSelectors).Remove()

	// Tables first, while structure is still intact.
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		md := tableToMarkdown(table)
		if md == "" {
			table.Remove()
			return
		}
		table.ReplaceWithHtml("<p>\n" + html.EscapeString(md) + "\n</p>")
	})

	content := doc.Find(contentSelectors).First()
	if content.Length() > 0 {
		text = content.Text()
	} else {
		text = doc.Find("body").Text()
	}

	return CleanText(text), title, nil
}

// tableToMarkdown rebuilds a <table> element as a markdown table.
func tableToMarkdown(table *goquery.Selection) string {
	var rows [][]string
	maxCols := 0

	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, strings.Join(strings.Fields(cell.Text()), " "))
		})
		if len(cells) > 0 {
			rows = append(rows, cells)
			if len(cells) > maxCols {
				maxCols = len(cells)
			}
		}
	})

	if len(rows) == 0 || maxCols == 0 {
		return ""
	}

	var b strings.Builder
	for i, row := range rows {
		for len(row) < maxCols {
			row = append(row, "")
		}
		b.WriteString("| " + strings.Join(row, " | ") + " |\n")
		if i == 0 {
			b.WriteString("|" + strings.Repeat(" --- |", maxCols) + "\n")
		}
	}
	return b.String()
}
