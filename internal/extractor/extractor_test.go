package extractor

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractAmazonVisiblePrice(t *testing.T) {
	html := `<html><body>
		<span class="a-price-whole">1,299</span>
		<div>"apexPriceToPay": {"displayPrice": "₹1,299"}</div>
	</body></html>`

	price, ok := Extract(html, "amazon")
	require.True(t, ok)
	assert.Equal(t, float64(1299), price)
}

func TestExtractPrefersMostFrequentValue(t *testing.T) {
	// The displayed price appears in three markup regions; a struck-through
	// MRP appears once. Frequency must win even though the MRP is higher.
	html := `<html><body>
		<span class="a-price-whole">2,499</span>
		<div>"priceToPay": 2499</div>
		<div>"priceAmount": 2499.00</div>
		<div>"priceAmount": 3999.00</div>
	</body></html>`

	price, ok := Extract(html, "amazon")
	require.True(t, ok)
	assert.Equal(t, float64(2499), price)
}

func TestExtractFrequencyTieGoesToHigherValue(t *testing.T) {
	html := `<div>"sellingPrice": 1500</div><div>"offerPrice": 1200</div>`

	price, ok := Extract(html, "flipkart")
	require.True(t, ok)
	assert.Equal(t, float64(1500), price)
}

func TestExtractIgnoresDiscountAndCashbackNoise(t *testing.T) {
	html := `<html><body>
		<div>Save ₹500 with bank offer</div>
		<div>Upto ₹150 cashback on UPI</div>
		<div>-70%</div>
		<span class="a-price-whole">8,999</span>
		<div>"priceToPay": 8999</div>
	</body></html>`

	price, ok := Extract(html, "amazon")
	require.True(t, ok)
	assert.Equal(t, float64(8999), price)
}

func TestExtractJSONLDProductOffer(t *testing.T) {
	html := `<html><head>
		<script type="application/ld+json">
		{"@type": "Product", "name": "Widget", "offers": {"price": "4599", "priceCurrency": "INR"}}
		</script>
	</head></html>`

	price, ok := Extract(html, "")
	require.True(t, ok)
	assert.Equal(t, float64(4599), price)
}

func TestExtractMetaPriceTag(t *testing.T) {
	html := `<html><head><meta property="product:price:amount" content="1749.50"></head></html>`

	price, ok := Extract(html, "")
	require.True(t, ok)
	assert.Equal(t, float64(1749), price, "fractional prices are floored")
}

func TestExtractRejectsImplausibleValues(t *testing.T) {
	cases := []string{
		`<div>"priceToPay": 99</div>`,
		`<div>"priceToPay": 10000000</div>`,
		`<div>"priceToPay": 12</div>`,
	}
	for _, html := range cases {
		_, ok := Extract(html, "amazon")
		assert.False(t, ok, "input %q must yield no price", html)
	}
}

func TestExtractNotFound(t *testing.T) {
	_, ok := Extract("<html><body><p>Currently unavailable.</p></body></html>", "amazon")
	assert.False(t, ok)

	_, ok = Extract("", "amazon")
	assert.False(t, ok)
}

func TestExtractNeverPanicsOnMalformedInput(t *testing.T) {
	inputs := []string{
		"<<<<>>>>",
		`<span class="a-price-whole">not-a-number</span>`,
		"<html><script type=\"application/ld+json\">{broken",
		"\x00\x01\x02",
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() { Extract(in, "amazon") })
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	html := `<div>"sellingPrice": 1500</div><div>"offerPrice": 1200</div>
		<div>"dealPrice": 1500</div><span class="a-price-whole">1,200</span>`

	first, ok := Extract(html, "unknown-platform")
	require.True(t, ok)
	for i := 0; i < 50; i++ {
		got, ok := Extract(html, "unknown-platform")
		require.True(t, ok)
		require.Equal(t, first, got)
	}
}

func TestExtractWithinPlausibilityBand(t *testing.T) {
	inputs := []string{
		`<div>"priceToPay": 100</div>`,
		`<div>"priceToPay": 9999999</div>`,
		`<span class="a-price-whole">54,990</span>`,
		fmt.Sprintf(`<div>"priceAmount": %d.99</div>`, 125),
	}
	for _, in := range inputs {
		price, ok := Extract(in, "amazon")
		require.True(t, ok, "input %q", in)
		assert.GreaterOrEqual(t, price, float64(100))
		assert.Less(t, price, float64(10_000_000))
	}
}
