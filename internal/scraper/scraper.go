package scraper

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/brotli"
	colly "github.com/gocolly/colly/v2"
	"golang.org/x/net/html/charset"

	"cyber-news-digest/internal/identity"
	"cyber-news-digest/internal/logger"
	"cyber-news-digest/models"
)

var (
	// Global HTTP transport with compression enabled
	httpTransport = &http.Transport{
		DisableCompression: false,
	}
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// SiteProfile describes how to walk one news site: where its listing pages
// are and which selectors locate the article links and metadata.
type SiteProfile struct {
	Source     string // display name stored on articles
	SourceType string
	StartURL   string

	ListItemSelector string
	LinkSelector     string
	TitleSelector    string
	DateSelector     string
	TagSelector      string
	NextPageSelector string

	// Render the listing page in a headless browser first. Needed for
	// sites that build their index client side.
	RenderJS bool
}

// HackerNewsProfile walks The Hacker News front page and its "Next Page"
// chain.
func HackerNewsProfile(startURL string) SiteProfile {
	if startURL == "" {
		startURL = "https://thehackernews.com/"
	}
	return SiteProfile{
		Source:           "The Hacker News",
		SourceType:       models.SourceHackerNews,
		StartURL:         startURL,
		ListItemSelector: ".body-post",
		LinkSelector:     "a.story-link",
		TitleSelector:    ".home-title",
		DateSelector:     ".h-datetime",
		TagSelector:      ".h-tags",
		NextPageSelector: "a.blog-pager-older-link-mobile, a.blog-pager-older-link",
	}
}

// CyberNewsProfile walks the cybernews.com security section. The listing is
// assembled client side, so the first page goes through the renderer.
func CyberNewsProfile(startURL string) SiteProfile {
	if startURL == "" {
		startURL = "https://cybernews.com/security/"
	}
	return SiteProfile{
		Source:           "Cyber News",
		SourceType:       models.SourceCyberNews,
		StartURL:         startURL,
		ListItemSelector: "article.cells-item, .articles-list article",
		LinkSelector:     "a.link, h3 a, a",
		TitleSelector:    "h3.cells-item__title, h3",
		DateSelector:     "time",
		TagSelector:      ".cells-item__category",
		NextPageSelector: "a[rel='next'], .pagination__next a",
		RenderJS:         true,
	}
}

// Config holds the per-run scrape limits.
type Config struct {
	MaxPages      int
	Timeout       time.Duration
	RenderJS      bool // force-disable with false plus profile.RenderJS false
	RenderTimeout time.Duration
}

// Scraper fetches article listings and bodies for one site profile.
type Scraper struct {
	profile SiteProfile
	cfg     Config
}

func New(profile SiteProfile, cfg Config) *Scraper {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Scraper{profile: profile, cfg: cfg}
}

// articleStub is what a listing page knows about an article before its body
// has been fetched.
type articleStub struct {
	Title string
	URL   string
	Date  string
	Tags  []string
}

// Scrape walks up to MaxPages listing pages, follows every article link, and
// returns fully populated articles. Individual page failures are logged and
// skipped; only a dead start URL fails the run.
func (s *Scraper) Scrape() ([]models.Article, error) {
	parsedStart, err := url.Parse(s.profile.StartURL)
	if err != nil {
		return nil, fmt.Errorf("invalid start URL: %w", err)
	}
	domain := strings.TrimPrefix(strings.ToLower(parsedStart.Hostname()), "www.")

	c := colly.NewCollector(
		colly.Async(true),
		colly.MaxDepth(3),
		colly.AllowedDomains(domain, "www."+domain),
	)
	c.WithTransport(httpTransport)
	c.SetRequestTimeout(s.cfg.Timeout)
	c.UserAgent = browserUserAgent
	c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       2 * time.Second,
		RandomDelay: 1 * time.Second,
	})

	var (
		mu          sync.Mutex
		stubs       = make(map[string]articleStub) // keyed by normalized article URL
		articles    []models.Article
		listVisited int
		startErr    error
	)

	c.OnRequest(func(r *colly.Request) {
		setBrowserHeaders(r)
	})

	c.OnResponse(func(r *colly.Response) {
		decodeResponseBody(r)
	})

	// Listing pages: collect stubs and queue article fetches.
	c.OnHTML(s.profile.ListItemSelector, func(e *colly.HTMLElement) {
		stub, ok := s.parseListItem(e)
		if !ok {
			return
		}
		key, err := identity.NormalizeURL(stub.URL)
		if err != nil {
			return
		}

		mu.Lock()
		if _, seen := stubs[key]; seen {
			mu.Unlock()
			return
		}
		stubs[key] = stub
		mu.Unlock()

		if err := e.Request.Visit(stub.URL); err != nil && !strings.Contains(err.Error(), "already visited") {
			logger.Warn("could not queue article", "url", stub.URL, "error", err)
		}
	})

	// Pagination: follow the next-page link while under the page limit.
	if s.profile.NextPageSelector != "" {
		c.OnHTML(s.profile.NextPageSelector, func(e *colly.HTMLElement) {
			mu.Lock()
			underLimit := listVisited < s.cfg.MaxPages
			if underLimit {
				listVisited++
			}
			mu.Unlock()
			if !underLimit {
				return
			}
			next := e.Request.AbsoluteURL(e.Attr("href"))
			if next != "" {
				e.Request.Visit(next)
			}
		})
	}

	// Article pages: anything we queued from a listing gets its body read.
	c.OnHTML("html", func(e *colly.HTMLElement) {
		key, err := identity.NormalizeURL(e.Request.URL.String())
		if err != nil {
			return
		}

		mu.Lock()
		stub, isArticle := stubs[key]
		mu.Unlock()
		if !isArticle {
			return
		}

		article, ok := s.buildArticle(e.DOM, stub, key)
		if !ok {
			return
		}
		mu.Lock()
		articles = append(articles, article)
		mu.Unlock()
	})

	c.OnError(func(r *colly.Response, err error) {
		if strings.Contains(err.Error(), "already visited") {
			return
		}
		requestURL := r.Request.URL.String()
		logger.Warn("scrape request failed",
			"source", s.profile.SourceType, "url", requestURL, "status", r.StatusCode, "error", err)

		normalized, _ := identity.NormalizeURL(requestURL)
		startNorm, _ := identity.NormalizeURL(s.profile.StartURL)
		if normalized == startNorm {
			mu.Lock()
			startErr = fmt.Errorf("failed to fetch %s: %w", s.profile.StartURL, err)
			mu.Unlock()
		}
	})

	// JS-built listings are rendered once up front and fed through the same
	// listing selectors; the article pages themselves are plain HTML.
	if s.profile.RenderJS && s.cfg.RenderJS {
		if err := s.scrapeRenderedListing(c, &mu, stubs); err != nil {
			logger.Warn("headless render failed, falling back to raw fetch",
				"source", s.profile.SourceType, "error", err)
		}
	}

	if err := c.Visit(s.profile.StartURL); err != nil && !strings.Contains(err.Error(), "already visited") {
		return nil, fmt.Errorf("failed to start scrape: %w", err)
	}
	c.Wait()

	if len(articles) == 0 && startErr != nil {
		return nil, startErr
	}

	logger.Info("scrape finished",
		"source", s.profile.SourceType, "listings", len(stubs), "articles", len(articles))
	return articles, nil
}

// scrapeRenderedListing renders the start URL in a headless browser, runs the
// listing selectors over the result, and queues the article links on the
// collector.
func (s *Scraper) scrapeRenderedListing(c *colly.Collector, mu *sync.Mutex, stubs map[string]articleStub) error {
	renderTimeout := s.cfg.RenderTimeout
	if renderTimeout <= 0 {
		renderTimeout = 45 * time.Second
	}
	html, err := renderPageHTML(s.profile.StartURL, renderTimeout)
	if err != nil {
		return err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return err
	}

	base, _ := url.Parse(s.profile.StartURL)
	doc.Find(s.profile.ListItemSelector).Each(func(_ int, sel *goquery.Selection) {
		stub, ok := s.parseListSelection(sel, base)
		if !ok {
			return
		}
		key, err := identity.NormalizeURL(stub.URL)
		if err != nil {
			return
		}

		mu.Lock()
		if _, seen := stubs[key]; seen {
			mu.Unlock()
			return
		}
		stubs[key] = stub
		mu.Unlock()

		c.Visit(stub.URL)
	})
	return nil
}

func (s *Scraper) parseListItem(e *colly.HTMLElement) (articleStub, bool) {
	base := e.Request.URL
	return s.parseListSelection(e.DOM, base)
}

func (s *Scraper) parseListSelection(sel *goquery.Selection, base *url.URL) (articleStub, bool) {
	href, ok := sel.Find(s.profile.LinkSelector).First().Attr("href")
	if !ok || href == "" {
		return articleStub{}, false
	}
	if base != nil {
		if ref, err := url.Parse(href); err == nil {
			href = base.ResolveReference(ref).String()
		}
	}

	stub := articleStub{
		Title: strings.TrimSpace(sel.Find(s.profile.TitleSelector).First().Text()),
		URL:   href,
		Date:  extractDate(sel, s.profile.DateSelector),
		Tags:  extractTags(sel, s.profile.TagSelector),
	}
	if stub.Title == "" {
		return articleStub{}, false
	}
	return stub, true
}

func (s *Scraper) buildArticle(doc *goquery.Selection, stub articleStub, normalizedURL string) (models.Article, bool) {
	content := extractArticleContent(doc)
	if len(strings.Fields(content)) < 10 {
		return models.Article{}, false
	}

	title := stub.Title
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").Text())
	}
	date := stub.Date
	if date == "" {
		date = extractDate(doc, "time, [itemprop='datePublished']")
	}

	return models.Article{
		Title:      title,
		URL:        normalizedURL,
		Content:    content,
		Source:     s.profile.Source,
		SourceType: s.profile.SourceType,
		Date:       date,
		Tags:       stub.Tags,
		ScrapedAt:  time.Now(),
	}, true
}

func setBrowserHeaders(r *colly.Request) {
	r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	r.Headers.Set("Accept-Language", "en-US,en;q=0.9")
	r.Headers.Set("Accept-Encoding", "gzip, deflate, br, zstd")
	r.Headers.Set("Connection", "keep-alive")
	r.Headers.Set("Upgrade-Insecure-Requests", "1")
	r.Headers.Set("Sec-Fetch-Dest", "document")
	r.Headers.Set("Sec-Fetch-Mode", "navigate")
	r.Headers.Set("Sec-Fetch-Site", "none")
	r.Headers.Set("Sec-Fetch-User", "?1")

	if parsed, err := url.Parse(r.URL.String()); err == nil {
		r.Headers.Set("Referer", fmt.Sprintf("%s://%s/", parsed.Scheme, parsed.Host))
	}
}

// decodeResponseBody undoes brotli compression and recodes the body to
// UTF-8. Gzip is already handled by the transport.
func decodeResponseBody(r *colly.Response) {
	contentType := r.Headers.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "text/html") && !strings.Contains(contentType, "application/xhtml+xml") {
		return
	}

	var bodyReader io.Reader = bytes.NewReader(r.Body)
	if strings.Contains(r.Headers.Get("Content-Encoding"), "br") {
		if decompressed, err := io.ReadAll(brotli.NewReader(bodyReader)); err == nil {
			r.Body = decompressed
			bodyReader = bytes.NewReader(decompressed)
		}
	}

	if len(r.Body) > 0 {
		if utf8Reader, err := charset.NewReader(bodyReader, contentType); err == nil {
			if decoded, err := io.ReadAll(utf8Reader); err == nil && len(decoded) > 0 {
				r.Body = decoded
			}
		}
	}
}
