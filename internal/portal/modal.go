// File: internal/portal/modal.go
package portal

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/xkilldash9x/lhkpn-cli/internal/model"
)

// detailCategories maps the modal's Indonesian category captions to the
// canonical collection names, in the order the modal lists them. Order
// matters: "HARTA BERGERAK LAINNYA" must match before "HARTA LAINNYA".
var detailCategories = []struct {
	caption string
	name    string
}{
	{"TANAH DAN BANGUNAN", "land_and_buildings"},
	{"ALAT TRANSPORTASI DAN MESIN", "vehicles"},
	{"HARTA BERGERAK LAINNYA", "movable_assets"},
	{"SURAT BERHARGA", "securities"},
	{"KAS DAN SETARA KAS", "cash"},
	{"HARTA LAINNYA", "other_assets"},
	{"HUTANG", "debts"},
}

// sectionMarkers are the outline labels that distinguish a category header
// row from an item row that merely mentions a caption.
var sectionMarkers = []string{"A.", "B.", "C.", "D.", "E.", "F.", "II.", "III."}

// ParseDetail parses the comparison modal's inner HTML into the seven
// itemized collections. The HTML is snapshotted once and parsed off-DOM.
// Unparseable currency text yields items with a nil Value; a missing data
// table yields all-empty collections, never an error.
func ParseDetail(rawHTML string) map[string][]model.AssetItem {
	out := make(map[string][]model.AssetItem, len(detailCategories))
	for _, cat := range detailCategories {
		out[cat.name] = []model.AssetItem{}
	}

	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return out
	}

	tbody := findByClass(doc, "tbody", "data_perbandingan_lhkpn")
	if tbody == nil {
		return out
	}
	rows := childElements(tbody, "tr")

	currentCat := ""
	for _, row := range rows {
		cells := childElements(row, "td", "th")

		if cat, ok := categoryHeader(row, cells); ok {
			currentCat = cat
			continue
		}
		if currentCat == "" {
			continue
		}
		if item, ok := itemRow(cells); ok {
			out[currentCat] = append(out[currentCat], item)
		}
	}

	// Totals fallback: a category with no item rows may still carry a
	// single aggregate figure on its caption row.
	for _, cat := range detailCategories {
		if len(out[cat.name]) > 0 {
			continue
		}
		if item, ok := totalRow(rows, cat.caption); ok {
			out[cat.name] = append(out[cat.name], item)
		}
	}

	return out
}

// categoryHeader reports whether the row introduces a new category section.
// A header combines a category caption (in the third cell or the row's
// leading text) with an outline marker in one of the first two cells.
func categoryHeader(row *html.Node, cells []*html.Node) (string, bool) {
	if len(cells) < 3 {
		return "", false
	}
	c0 := strings.ToUpper(nodeText(cells[0], ""))
	c1 := strings.ToUpper(nodeText(cells[1], ""))
	c2 := strings.ToUpper(nodeText(cells[2], ""))
	lead := strings.ToUpper(nodeText(row, " "))
	if len(lead) > 50 {
		lead = lead[:50]
	}

	for _, cat := range detailCategories {
		if !strings.Contains(c2, cat.caption) && !strings.Contains(lead, cat.caption) {
			continue
		}
		for _, marker := range sectionMarkers {
			if strings.Contains(c1, marker) || strings.Contains(c0, marker) {
				return cat.name, true
			}
		}
	}
	return "", false
}

// itemRow extracts one itemized entry: an index cell ("1.", "2.", ...)
// followed by a description and the first numeric-looking cell after it.
func itemRow(cells []*html.Node) (model.AssetItem, bool) {
	limit := len(cells)
	if limit > 4 {
		limit = 4
	}
	for j := 0; j < limit; j++ {
		text := nodeText(cells[j], "")
		if text == "" || !isDigit(rune(text[0])) || !strings.HasSuffix(text, ".") {
			continue
		}
		if j+1 >= len(cells) {
			return model.AssetItem{}, false
		}
		desc := nodeText(cells[j+1], "")
		value := ""
		for k := j + 2; k < len(cells); k++ {
			candidate := nodeText(cells[k], "")
			if candidate != "" && isDigit(rune(candidate[0])) {
				value = candidate
				break
			}
		}
		if desc == "" || value == "" {
			return model.AssetItem{}, false
		}
		return model.AssetItem{Description: desc, Value: model.RupiahOrNil(value)}, true
	}
	return model.AssetItem{}, false
}

// totalRow finds an aggregate figure on a row mentioning the caption: a
// cell that is purely grouped digits (e.g. "1.234.567").
func totalRow(rows []*html.Node, caption string) (model.AssetItem, bool) {
	for _, row := range rows {
		if !strings.Contains(strings.ToUpper(nodeText(row, " ")), caption) {
			continue
		}
		for _, cell := range childElements(row, "td", "th") {
			text := nodeText(cell, "")
			if text != "" && isGroupedNumber(text) {
				return model.AssetItem{Description: "Total", Value: model.RupiahOrNil(text)}, true
			}
		}
	}
	return model.AssetItem{}, false
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

// isGroupedNumber reports whether the text is digits with only grouping
// punctuation, such as "4.017.616.997" or "1.234,00".
func isGroupedNumber(s string) bool {
	sawDigit := false
	for _, r := range s {
		switch {
		case isDigit(r):
			sawDigit = true
		case r == '.' || r == ',':
		default:
			return false
		}
	}
	return sawDigit
}

// -- minimal DOM helpers over x/net/html --

// findByClass depth-first searches for the first element with the given tag
// carrying the given class.
func findByClass(n *html.Node, tag, class string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		for _, attr := range n.Attr {
			if attr.Key == "class" && hasClass(attr.Val, class) {
				return n
			}
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findByClass(child, tag, class); found != nil {
			return found
		}
	}
	return nil
}

func hasClass(attrVal, class string) bool {
	for _, c := range strings.Fields(attrVal) {
		if c == class {
			return true
		}
	}
	return false
}

// childElements collects descendant elements matching any of the tags,
// without descending into a matched element.
func childElements(n *html.Node, tags ...string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			if child.Type == html.ElementNode {
				matched := false
				for _, tag := range tags {
					if child.Data == tag {
						out = append(out, child)
						matched = true
						break
					}
				}
				if matched {
					continue
				}
			}
			walk(child)
		}
	}
	walk(n)
	return out
}

// nodeText concatenates the trimmed text content beneath n, joining text
// nodes with sep.
func nodeText(n *html.Node, sep string) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			if trimmed := strings.TrimSpace(node.Data); trimmed != "" {
				parts = append(parts, trimmed)
			}
			return
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return strings.Join(parts, sep)
}
