// File: internal/portal/selectors.go
package portal

import (
	"fmt"
	"strings"
)

// Selector keys. Every DOM dependency the client has goes through this
// table so portal drift surfaces as a startup validation failure or a
// single place to patch, not as silent nulls scattered through the output.
const (
	SelSearchInput     = "search_input"
	SelSearchSubmit    = "search_submit"
	SelAnnouncementTab = "announcement_tab"
	SelResultRows      = "result_rows"
	SelNextButton      = "next_button"
	SelDetailLink      = "detail_link"
	SelDetailModal     = "detail_modal"
	SelDetailTable     = "detail_modal_table"
	SelDetailClose     = "detail_modal_close"
)

// requiredSelectors is the full set of keys the client resolves at runtime.
var requiredSelectors = []string{
	SelSearchInput,
	SelSearchSubmit,
	SelAnnouncementTab,
	SelResultRows,
	SelNextButton,
	SelDetailLink,
	SelDetailModal,
	SelDetailTable,
	SelDetailClose,
}

// NoResultsText is the literal the portal renders for an empty search.
const NoResultsText = "Data Tidak Ditemukan"

// SelectorMap maps canonical field names to CSS selector expressions.
// Comma-separated alternatives are allowed; they resolve through
// querySelector semantics (first match wins).
type SelectorMap map[string]string

// DefaultSelectors returns the selector mapping for the current e-LHKPN
// portal markup. This is the compatibility surface that breaks when the
// portal changes.
func DefaultSelectors() SelectorMap {
	return SelectorMap{
		SelSearchInput:     "#CARI_NAMA, input[name='CARI_NAMA']",
		SelSearchSubmit:    "button[type='submit'].btn-success",
		SelAnnouncementTab: "a.page-scroll[href='#announ'], a.anchor-eannoun",
		SelResultRows:      "#table-pengumuman tbody tr, table.table-striped tbody tr",
		SelNextButton:      "#table-pengumuman_next, li.next a, .paginate_button.next a",
		SelDetailLink:      "a.perbandingan-announcement, a[data-toggle='modal'][data-target='#modal-perbandingan-announcement-lhkpn']",
		SelDetailModal:     "#modal-perbandingan-announcement-lhkpn",
		SelDetailTable:     "#modal-perbandingan-announcement-lhkpn table",
		SelDetailClose:     "#modal-perbandingan-announcement-lhkpn .remodal-close, #modal-perbandingan-announcement-lhkpn .btn-danger, button[data-dismiss='modal']",
	}
}

// Validate performs the startup smoke check: every required key must be
// mapped to a non-empty selector expression. Run before the browser
// launches so drift is detectable early.
func (s SelectorMap) Validate() error {
	var missing []string
	for _, key := range requiredSelectors {
		expr, ok := s[key]
		if !ok || strings.TrimSpace(expr) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("selector map is missing required entries: %s", strings.Join(missing, ", "))
	}
	for key, expr := range s {
		if strings.TrimSpace(expr) == "" {
			return fmt.Errorf("selector %q maps to an empty expression", key)
		}
	}
	return nil
}
