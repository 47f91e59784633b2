package scraper

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func docFromHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parsing HTML: %v", err)
	}
	return doc
}

func TestExtractArticleContent(t *testing.T) {
	doc := docFromHTML(t, `<html><head><script>var x=1;</script></head><body>
		<nav>Home | About</nav>
		<div class="articlebody">`+strings.Repeat("A ransomware gang breached the vendor. ", 10)+`</div>
		<footer>Copyright</footer>
	</body></html>`)

	content := extractArticleContent(doc.Selection)
	if !strings.Contains(content, "ransomware gang") {
		t.Fatalf("article body missing from content: %q", content)
	}
	if strings.Contains(content, "var x=1") || strings.Contains(content, "Copyright") {
		t.Fatalf("boilerplate leaked into content: %q", content)
	}
}

func TestExtractDatePrefersJSONLD(t *testing.T) {
	doc := docFromHTML(t, `<html><body>
		<script type="application/ld+json">{"@type":"NewsArticle","datePublished":"2026-08-12T09:30:00Z"}</script>
		<time datetime="2026-01-01">Jan 1</time>
	</body></html>`)

	got := extractDate(doc.Selection, "time")
	if got != "2026-08-12" {
		t.Fatalf("extractDate() = %q, want 2026-08-12", got)
	}
}

func TestExtractDateFallsBackToSelector(t *testing.T) {
	doc := docFromHTML(t, `<html><body><time datetime="2026-03-04T00:00:00Z">March 4</time></body></html>`)
	if got := extractDate(doc.Selection, "time"); got != "2026-03-04" {
		t.Fatalf("extractDate() = %q, want 2026-03-04", got)
	}

	doc = docFromHTML(t, `<html><body><span class="h-datetime">Aug 12, 2026</span></body></html>`)
	if got := extractDate(doc.Selection, ".h-datetime"); got != "Aug 12, 2026" {
		t.Fatalf("extractDate() = %q, want visible text", got)
	}
}

func TestExtractTags(t *testing.T) {
	doc := docFromHTML(t, `<html><body>
		<span class="h-tags">Malware / Ransomware</span>
		<span class="h-tags">Ransomware</span>
	</body></html>`)

	tags := extractTags(doc.Selection, ".h-tags")
	if len(tags) != 2 || tags[0] != "Malware" || tags[1] != "Ransomware" {
		t.Fatalf("extractTags() = %v, want [Malware Ransomware]", tags)
	}
}

func TestParseListSelection(t *testing.T) {
	profile := HackerNewsProfile("")
	s := New(profile, Config{})

	doc := docFromHTML(t, `<html><body><div class="body-post">
		<a class="story-link" href="https://thehackernews.com/2026/08/story.html">
			<h2 class="home-title">Zero-Day in Popular VPN</h2>
			<span class="h-datetime">Aug 12, 2026</span>
			<span class="h-tags">VPN / Zero-Day</span>
		</a>
	</div></body></html>`)

	stub, ok := s.parseListSelection(doc.Find(".body-post"), nil)
	if !ok {
		t.Fatal("expected a stub from a complete list item")
	}
	if stub.Title != "Zero-Day in Popular VPN" {
		t.Errorf("wrong title: %q", stub.Title)
	}
	if stub.URL != "https://thehackernews.com/2026/08/story.html" {
		t.Errorf("wrong URL: %q", stub.URL)
	}
	if len(stub.Tags) != 2 {
		t.Errorf("wrong tags: %v", stub.Tags)
	}
}

func TestParseListSelectionRejectsItemsWithoutLink(t *testing.T) {
	profile := HackerNewsProfile("")
	s := New(profile, Config{})

	doc := docFromHTML(t, `<html><body><div class="body-post"><h2 class="home-title">No link</h2></div></body></html>`)
	if _, ok := s.parseListSelection(doc.Find(".body-post"), nil); ok {
		t.Fatal("stub produced for an item with no link")
	}
}
