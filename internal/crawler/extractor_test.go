package crawler

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pageURL = "https://hasaki.vn/danh-muc/suc-khoe-lam-dep-c3.html?p=1"

func priceBlock(newPrice, discount, oldPrice string) string {
	var b strings.Builder
	b.WriteString(`<div class="width_common block_price space_bottom_3">`)
	if newPrice != "" {
		fmt.Fprintf(&b, `<strong class="item_giamoi txt_16"> %s </strong>`, newPrice)
	}
	if discount != "" {
		fmt.Fprintf(&b, `<span class="discount_percent2_deal">%s</span>`, discount)
	}
	if oldPrice != "" {
		fmt.Fprintf(&b, `<span class="item_giacu txt_12 right">%s</span>`, oldPrice)
	}
	b.WriteString(`</div>`)
	return b.String()
}

func nameBlock(name string) string {
	if name == "" {
		return `<div class="width_common txt_color_1 space_bottom_3"><span>brand</span></div>`
	}
	return fmt.Sprintf(`<div class="width_common txt_color_1 space_bottom_3"><strong>
		%s
	</strong></div>`, name)
}

func descBlock(text string) string {
	return fmt.Sprintf(`<div class="vn_names">%s</div>`, text)
}

func page(parts ...string) []byte {
	return []byte("<html><body><div class=\"grid\">" + strings.Join(parts, "\n") + "</div></body></html>")
}

func TestExtractFullRecord(t *testing.T) {
	t.Parallel()

	body := page(
		priceBlock("250.000 ₫", "-20%", "312.000 ₫"),
		nameBlock("La Roche-Posay"),
		descBlock("  Sữa Rửa Mặt Effaclar 400ml, Dành Cho Da Dầu "),
	)

	records, err := NewExtractor(Selectors{}).Extract(pageURL, body)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, Record{
		ItemName:        "La Roche-Posay",
		Description:     "Sữa Rửa Mặt Effaclar 400ml",
		NewPrice:        "250.000 ₫",
		DiscountPercent: "-20%",
		OldPrice:        "312.000 ₫",
		LinkPage:        pageURL,
	}, records[0])
}

func TestExtractTruncatesToShortestRegion(t *testing.T) {
	t.Parallel()

	body := page(
		priceBlock("1", "-1%", "2"),
		priceBlock("3", "-3%", "4"),
		priceBlock("5", "-5%", "6"),
		nameBlock("A"),
		nameBlock("B"),
		descBlock("a"),
		descBlock("b"),
		descBlock("c"),
	)

	records, err := NewExtractor(Selectors{}).Extract(pageURL, body)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "A", records[0].ItemName)
	assert.Equal(t, "1", records[0].NewPrice)
	assert.Equal(t, "B", records[1].ItemName)
	assert.Equal(t, "3", records[1].NewPrice)
}

func TestExtractMissingDiscountUsesPlaceholder(t *testing.T) {
	t.Parallel()

	body := page(
		priceBlock("99.000 ₫", "", "120.000 ₫"),
		nameBlock("Cocoon"),
		descBlock("Nước Tẩy Trang"),
	)

	records, err := NewExtractor(Selectors{}).Extract(pageURL, body)
	require.NoError(t, err)
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, NotAvailable, rec.DiscountPercent)
	assert.Equal(t, "99.000 ₫", rec.NewPrice)
	assert.Equal(t, "120.000 ₫", rec.OldPrice)
	assert.Equal(t, "Cocoon", rec.ItemName)
	assert.Equal(t, "Nước Tẩy Trang", rec.Description)
}

func TestExtractMissingNameAndPrices(t *testing.T) {
	t.Parallel()

	body := page(priceBlock("", "", ""), nameBlock(""), descBlock("x"))

	records, err := NewExtractor(Selectors{}).Extract(pageURL, body)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, NotAvailable, records[0].ItemName)
	assert.Equal(t, NotAvailable, records[0].NewPrice)
	assert.Equal(t, NotAvailable, records[0].DiscountPercent)
	assert.Equal(t, NotAvailable, records[0].OldPrice)
}

func TestExtractDescriptionBeforeComma(t *testing.T) {
	t.Parallel()

	body := page(priceBlock("1", "", ""), nameBlock("Serum"), descBlock("500ml, Hydrating Serum"))

	records, err := NewExtractor(Selectors{}).Extract(pageURL, body)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "500ml", records[0].Description)
}

func TestExtractNoGridIsParseError(t *testing.T) {
	t.Parallel()

	_, err := NewExtractor(Selectors{}).Extract(pageURL, []byte("<html><body><p>Access denied</p></body></html>"))
	require.Error(t, err)
	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, pageURL, parseErr.URL)
}

func TestExtractOneRegionMissingYieldsNoRecords(t *testing.T) {
	t.Parallel()

	body := page(priceBlock("1", "", ""), nameBlock("A"))

	records, err := NewExtractor(Selectors{}).Extract(pageURL, body)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestExtractCustomSelectors(t *testing.T) {
	t.Parallel()

	body := []byte(`<ul>
<li class="p"><b class="now">10</b></li>
<li class="n"><strong>Toner</strong></li>
<li class="d">Toner 200ml, Sensitive</li>
</ul>`)
	ex := NewExtractor(Selectors{
		PriceBlock:  "li.p",
		NewPrice:    "b.now",
		NameBlock:   "li.n",
		Description: "li.d",
	})
	records, err := ex.Extract(pageURL, body)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "10", records[0].NewPrice)
	assert.Equal(t, "Toner", records[0].ItemName)
	assert.Equal(t, "Toner 200ml", records[0].Description)
	assert.Equal(t, NotAvailable, records[0].DiscountPercent)
}

func TestExtractMatchesExactClassAttribute(t *testing.T) {
	t.Parallel()

	body := page(
		`<div class="width_common block_price space_bottom_3 promo">`+
			`<strong class="item_giamoi txt_16">1</strong></div>`,
		`<div class="block_price width_common space_bottom_3"><strong class="item_giamoi txt_16">9</strong></div>`,
		`<div class="width_common block_price space_bottom_3">`+
			`<strong class="item_giamoi txt_16 sale">8</strong>`+
			`<strong class="item_giamoi txt_16">2</strong>`+
			`<span class="item_giacu txt_12 right old">7</span>`+
			`<span class="item_giacu txt_12 right">3</span></div>`,
		`<div class="width_common txt_color_1 space_bottom_3 ad"><strong>Sponsored</strong></div>`,
		nameBlock("Cetaphil"),
		descBlock("Sữa rửa mặt, 500ml"),
	)

	records, err := NewExtractor(Selectors{}).Extract(pageURL, body)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Cetaphil", records[0].ItemName)
	assert.Equal(t, "2", records[0].NewPrice)
	assert.Equal(t, "3", records[0].OldPrice)
	assert.Equal(t, NotAvailable, records[0].DiscountPercent)
}
