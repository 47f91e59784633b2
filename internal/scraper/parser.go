package scraper

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// extractArticleContent pulls the readable body text out of an article page.
func extractArticleContent(selection *goquery.Selection) string {
	doc := selection.Clone()

	// Remove unwanted elements
	doc.Find("script, style, nav, footer, header, aside, form, .nav, .navbar, .footer, .header, .sidebar, .advertisement, .ads, .share-buttons, .related-posts, .comments").Remove()

	contentSelectors := []string{
		".articlebody",
		"[itemprop='articleBody']",
		"article .content",
		"article",
		"main",
		".post-body",
		".entry-content",
		"body",
	}

	var content strings.Builder
	contentFound := false

	for _, selector := range contentSelectors {
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if len(text) > 100 {
				content.WriteString(text)
				content.WriteString("\n\n")
				contentFound = true
			}
		})
		if contentFound {
			break
		}
	}

	if !contentFound {
		content.WriteString(doc.Find("body").Text())
	}

	return collapseWhitespace(content.String())
}

// extractDate finds a publication date, preferring JSON-LD structured data
// over the visible selector text.
func extractDate(sel *goquery.Selection, dateSelector string) string {
	date := ""
	sel.Find("script[type='application/ld+json']").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var data map[string]interface{}
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			return true
		}
		if published, ok := data["datePublished"].(string); ok && published != "" {
			date = published
			return false
		}
		return true
	})
	if date != "" {
		return normalizeDate(date)
	}

	if dateSelector == "" {
		return ""
	}
	node := sel.Find(dateSelector).First()
	if dt, ok := node.Attr("datetime"); ok && dt != "" {
		return normalizeDate(dt)
	}
	return strings.TrimSpace(node.Text())
}

// normalizeDate trims an ISO timestamp down to its date part.
func normalizeDate(value string) string {
	value = strings.TrimSpace(value)
	if idx := strings.IndexAny(value, "T "); idx > 0 && len(value) >= 10 {
		candidate := value[:idx]
		if len(candidate) == 10 {
			return candidate
		}
	}
	return value
}

func extractTags(sel *goquery.Selection, tagSelector string) []string {
	if tagSelector == "" {
		return nil
	}
	var tags []string
	seen := make(map[string]bool)
	sel.Find(tagSelector).Each(func(_ int, s *goquery.Selection) {
		for _, part := range strings.Split(s.Text(), "/") {
			tag := strings.TrimSpace(part)
			if tag == "" || seen[tag] {
				continue
			}
			seen[tag] = true
			tags = append(tags, tag)
		}
	})
	return tags
}

func collapseWhitespace(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	var cleaned []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
