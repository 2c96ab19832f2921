package scraper

import (
	"bytes"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/lucas-mlima/projeto-chamadas-bolsas-ipea/internal/model"
)

const baseURL = "https://www.ipea.gov.br"

// ErrNoItems signals a structural extraction failure: the page parsed but no
// notice container or items were found. The pipeline treats it as "no data",
// never as a partial result.
var ErrNoItems = fmt.Errorf("no notice items found on page")

// Call number and year appear in the item title under a few formats; the
// patterns are tried in order, from strict to permissive.
var titlePatterns = []*regexp.Regexp{
	regexp.MustCompile(`nº\s*(\d+)/(\d{4})`),
	regexp.MustCompile(`Chamada Pública\s*(\d+)/(\d{4})`),
	regexp.MustCompile(`(\d+)/(\d{4})`),
}

// Extract parses the listing page HTML into raw notice records. Fields the
// page does not provide for an item stay nil; an item with nothing
// extractable is still kept (the normalizer decides what to do with it).
func Extract(pageHTML []byte) ([]model.RawNotice, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(pageHTML))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	items := doc.Find("#resultado_busca_ajax > div.search-item-wrap")
	if items.Length() == 0 {
		// Older page layout used a striped <ul> listing.
		items = doc.Find("ul.search-resultsbolsas.list-striped li")
	}
	if items.Length() == 0 {
		return nil, ErrNoItems
	}

	log.Printf("[scraper] found %d notice items", items.Length())

	notices := make([]model.RawNotice, 0, items.Length())
	items.Each(func(i int, s *goquery.Selection) {
		notices = append(notices, extractItem(s))
	})
	return notices, nil
}

func extractItem(s *goquery.Selection) model.RawNotice {
	var n model.RawNotice

	titleLink := s.Find("h4.result-title a").First()
	if titleLink.Length() > 0 {
		title := strings.TrimSpace(titleLink.Text())
		if href, ok := titleLink.Attr("href"); ok && href != "" {
			if !strings.HasPrefix(href, "http") {
				href = baseURL + href
			}
			n.Link = &href
		}
		if num, year, ok := matchTitle(title); ok {
			n.CallNumber = &num
			n.Year = &year
		}
	}

	// Detail fields come as "<strong>Label:</strong> value" lines, in <p>
	// elements on the current layout and bare <div>s on the older one.
	details := s.Find("p")
	if details.Length() == 0 {
		details = s.Find("div")
	}
	details.Each(func(i int, p *goquery.Selection) {
		strong := p.Find("strong").First()
		if strong.Length() == 0 {
			return
		}
		label := strings.ToLower(strings.TrimSpace(strong.Text()))
		value := strings.TrimSpace(strings.TrimPrefix(p.Text(), strong.Text()))
		if value == "" {
			return
		}
		switch {
		case strings.Contains(label, "programa:"):
			n.Program = &value
		case strings.Contains(label, "prazo de inscrição:"):
			n.RegistrationPeriod = &value
		case strings.Contains(label, "ano:") && n.Year == nil:
			n.Year = &value
		}
	})

	return n
}

func matchTitle(title string) (num, year string, ok bool) {
	if title == "" {
		return "", "", false
	}
	for _, re := range titlePatterns {
		if m := re.FindStringSubmatch(title); m != nil {
			return m[1], m[2], true
		}
	}
	return "", "", false
}
