package extractor

import "regexp"

// Promotional fragments are stripped before any price pattern runs so that
// cashback amounts and discount percentages cannot be mistaken for the price.
var noisePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)cashback[^₹]*₹\s*[0-9,]+(?:\.[0-9]{2})?`),
	regexp.MustCompile(`(?i)upto\s+₹\s*[0-9,]+(?:\.[0-9]{2})?[^₹]*cashback`),
	regexp.MustCompile(`(?i)save\s+₹\s*[0-9,]+(?:\.[0-9]{2})?`),
	regexp.MustCompile(`(?i)get\s+₹\s*[0-9,]+(?:\.[0-9]{2})?[^₹]*off`),
	regexp.MustCompile(`(?i)extra\s+₹\s*[0-9,]+(?:\.[0-9]{2})?[^₹]*off`),
	regexp.MustCompile(`-[0-9]+%`),
}

// Ordered per-platform pattern tables. The most reliable patterns come
// first: structured price fields the storefront renders for its own UI,
// then visible price markup, then looser fallbacks.
var amazonPatterns = []*regexp.Regexp{
	regexp.MustCompile(`"apexPriceToPay"\s*:.*?"displayPrice"\s*:\s*"₹([0-9,]+)"`),
	regexp.MustCompile(`class="a-price-whole"[^>]*>([0-9,]+)</span>`),
	regexp.MustCompile(`id="priceblock_ourprice"[^>]*>₹\s*([0-9,]+)`),
	regexp.MustCompile(`id="priceblock_dealprice"[^>]*>₹\s*([0-9,]+)`),
	regexp.MustCompile(`"priceToPay"\s*:\s*([0-9,]+(?:\.[0-9]{2})?)`),
	regexp.MustCompile(`"priceAmount"\s*:\s*([0-9,]+(?:\.[0-9]{2})?)`),
}

var flipkartPatterns = []*regexp.Regexp{
	regexp.MustCompile(`"sellingPrice"\s*:\s*([0-9,]+(?:\.[0-9]{2})?)`),
	regexp.MustCompile(`"offerPrice"\s*:\s*([0-9,]+(?:\.[0-9]{2})?)`),
}

var reliancePatterns = []*regexp.Regexp{
	regexp.MustCompile(`"dealPrice"\s*:\s*([0-9,]+(?:\.[0-9]{2})?)`),
}

// Structured product-offer data (JSON-LD) and generic currency-prefixed
// markup, applied for every platform after the platform table.
var genericPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?s)"@type"\s*:\s*"Product".*?"offers"\s*:.*?"price"\s*:\s*"?([0-9,]+(?:\.[0-9]{2})?)"?`),
	regexp.MustCompile(`data-a-color="price"[^>]*>₹([0-9,]+)`),
	regexp.MustCompile(`(?i)<span[^>]*class="[^"]*a-price-whole[^"]*"[^>]*>([0-9,]+)`),
}

var platformPatterns = map[string][]*regexp.Regexp{
	"amazon":   amazonPatterns,
	"flipkart": flipkartPatterns,
	"reliance": reliancePatterns,
}

// Patterns used inside JSON-LD script bodies. Offer prices take priority
// over any bare "price" key.
var (
	jsonLDOfferPrice = regexp.MustCompile(`"offers"[^}]*"price"\s*:\s*"?([0-9,.]+)"?`)
	jsonLDAnyPrice   = regexp.MustCompile(`"price"\s*:\s*"?([0-9,.]+)"?`)
)
