package crawler

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Selectors locates the three listing regions and the price sub-fields.
type Selectors struct {
	PriceBlock  string `mapstructure:"price_block"`
	NewPrice    string `mapstructure:"new_price"`
	Discount    string `mapstructure:"discount"`
	OldPrice    string `mapstructure:"old_price"`
	NameBlock   string `mapstructure:"name_block"`
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
}

// DefaultSelectors matches the listing grid markup of the target site.
// Multi-class selectors compare the whole class attribute, so variants that
// add or reorder classes are not counted as grid items.
func DefaultSelectors() Selectors {
	return Selectors{
		PriceBlock:  `div[class="width_common block_price space_bottom_3"]`,
		NewPrice:    `strong[class="item_giamoi txt_16"]`,
		Discount:    "span.discount_percent2_deal",
		OldPrice:    `span[class="item_giacu txt_12 right"]`,
		NameBlock:   `div[class="width_common txt_color_1 space_bottom_3"]`,
		Name:        "strong",
		Description: "div.vn_names",
	}
}

func (s Selectors) withDefaults() Selectors {
	d := DefaultSelectors()
	if s.PriceBlock == "" {
		s.PriceBlock = d.PriceBlock
	}
	if s.NewPrice == "" {
		s.NewPrice = d.NewPrice
	}
	if s.Discount == "" {
		s.Discount = d.Discount
	}
	if s.OldPrice == "" {
		s.OldPrice = d.OldPrice
	}
	if s.NameBlock == "" {
		s.NameBlock = d.NameBlock
	}
	if s.Name == "" {
		s.Name = d.Name
	}
	if s.Description == "" {
		s.Description = d.Description
	}
	return s
}

// Extractor parses listing pages into records.
//
// The grid renders prices, names and descriptions as three separate regions
// with no shared item key, so records are assembled by ordinal position and
// truncated to the shortest region. A region whose item count diverges from
// the others misaligns every following record on that page.
type Extractor struct {
	sel Selectors
}

// NewExtractor builds an Extractor; empty selectors fall back to the defaults.
func NewExtractor(sel Selectors) *Extractor {
	return &Extractor{sel: sel.withDefaults()}
}

// Extract returns the records found in body. pageURL is stamped on every
// record as its link_page.
func (e *Extractor) Extract(pageURL string, body []byte) ([]Record, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &ParseError{URL: pageURL, Reason: "read document", Err: err}
	}

	prices := doc.Find(e.sel.PriceBlock)
	names := doc.Find(e.sel.NameBlock)
	descriptions := doc.Find(e.sel.Description)
	if prices.Length() == 0 && names.Length() == 0 && descriptions.Length() == 0 {
		return nil, &ParseError{URL: pageURL, Reason: "listing grid not found"}
	}

	n := min(prices.Length(), names.Length(), descriptions.Length())
	records := make([]Record, 0, n)
	for i := 0; i < n; i++ {
		price := prices.Eq(i)
		records = append(records, Record{
			ItemName:        textOrPlaceholder(names.Eq(i).Find(e.sel.Name)),
			Description:     beforeComma(descriptions.Eq(i).Text()),
			NewPrice:        textOrPlaceholder(price.Find(e.sel.NewPrice)),
			DiscountPercent: textOrPlaceholder(price.Find(e.sel.Discount)),
			OldPrice:        textOrPlaceholder(price.Find(e.sel.OldPrice)),
			LinkPage:        pageURL,
		})
	}
	return records, nil
}

// textOrPlaceholder returns the trimmed text of the first match.
func textOrPlaceholder(s *goquery.Selection) string {
	if s.Length() == 0 {
		return NotAvailable
	}
	return strings.TrimSpace(s.First().Text())
}

func beforeComma(text string) string {
	head, _, _ := strings.Cut(strings.TrimSpace(text), ",")
	return strings.TrimSpace(head)
}
