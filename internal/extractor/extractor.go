// Package extractor turns noisy product-page HTML into a single trustworthy
// price. It is pure: no I/O, deterministic for a given input, and it never
// panics on malformed markup.
package extractor

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Plausibility band for extracted prices. Values below 100 are almost
// always cashback amounts or discount percentages; values at 10M and above
// are corrupt data.
const (
	minPlausiblePrice = 100
	maxPlausiblePrice = 10_000_000
)

// Extract returns the best-guess price found in content, or ok=false when no
// plausible candidate survives filtering. The platform hint orders the
// pattern tables; an unrecognized hint falls back to trying every table.
func Extract(content, platform string) (float64, bool) {
	if content == "" {
		return 0, false
	}

	cleaned := stripNoise(content)

	candidates := collectStructured(cleaned)
	candidates = append(candidates, collectPatterns(cleaned, platform)...)

	return selectPrice(candidates)
}

func stripNoise(content string) string {
	for _, re := range noisePatterns {
		content = re.ReplaceAllString(content, "")
	}
	return content
}

// collectStructured walks the parsed document for structured price sources:
// JSON-LD product offers, product meta tags and visible price spans.
func collectStructured(content string) []float64 {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil
	}

	var candidates []float64

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		text := s.Text()
		if m := jsonLDOfferPrice.FindStringSubmatch(text); len(m) > 1 {
			candidates = appendCandidate(candidates, m[1])
			return
		}
		if m := jsonLDAnyPrice.FindStringSubmatch(text); len(m) > 1 {
			candidates = appendCandidate(candidates, m[1])
		}
	})

	doc.Find(`meta[property="product:price:amount"]`).Each(func(_ int, s *goquery.Selection) {
		if v, ok := s.Attr("content"); ok {
			candidates = appendCandidate(candidates, v)
		}
	})

	doc.Find("span.a-price-whole").Each(func(_ int, s *goquery.Selection) {
		candidates = appendCandidate(candidates, strings.TrimSpace(s.Text()))
	})

	return candidates
}

func collectPatterns(content, platform string) []float64 {
	var candidates []float64
	for _, re := range patternsFor(platform) {
		for _, m := range re.FindAllStringSubmatch(content, -1) {
			if len(m) > 1 {
				candidates = appendCandidate(candidates, m[1])
			}
		}
	}
	return candidates
}

// patternsFor orders the tables: the hinted platform first, then the
// generic fallbacks. An unknown hint tries every platform table.
func patternsFor(platform string) []*regexp.Regexp {
	key := strings.ToLower(strings.TrimSpace(platform))

	var patterns []*regexp.Regexp
	if table, ok := platformPatterns[key]; ok {
		patterns = append(patterns, table...)
	} else {
		for _, name := range []string{"amazon", "flipkart", "reliance"} {
			patterns = append(patterns, platformPatterns[name]...)
		}
	}
	return append(patterns, genericPatterns...)
}

func appendCandidate(candidates []float64, raw string) []float64 {
	v, ok := parseAmount(raw)
	if !ok {
		return candidates
	}
	if v < minPlausiblePrice || v >= maxPlausiblePrice {
		return candidates
	}
	return append(candidates, v)
}

func parseAmount(raw string) (float64, bool) {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// selectPrice picks the value that occurs most often across strategies:
// the genuinely displayed price tends to appear in several markup regions,
// while incidental numbers (savings amounts, struck-through MRP) do not.
// Frequency ties go to the higher value.
func selectPrice(candidates []float64) (float64, bool) {
	if len(candidates) == 0 {
		return 0, false
	}

	freq := make(map[float64]int, len(candidates))
	for _, v := range candidates {
		freq[v]++
	}

	unique := make([]float64, 0, len(freq))
	for v := range freq {
		unique = append(unique, v)
	}
	sort.Slice(unique, func(i, j int) bool {
		if freq[unique[i]] != freq[unique[j]] {
			return freq[unique[i]] > freq[unique[j]]
		}
		return unique[i] > unique[j]
	})

	return math.Floor(unique[0]), true
}
