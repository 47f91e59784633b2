package scraper

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cyber-news-digest/internal/identity"
)

const listingPage = `<html><body>
<div class="body-post">
  <a class="story-link" href="/breach.html"><h2 class="home-title">Major Breach Disclosed</h2></a>
  <span class="h-datetime">2026-08-12</span>
  <span class="h-tags">Data Breach / Ransomware</span>
</div>
</body></html>`

const articlePage = `<html><head><title>Major Breach Disclosed</title></head><body>
<div class="articlebody">
Attackers gained access to the vendor network through a leaked service account and moved laterally for weeks before staging the exfiltration of customer records, according to the incident report published on Tuesday.
</div>
</body></html>`

func testProfile(startURL string) SiteProfile {
	return SiteProfile{
		Source:           "Test Wire",
		SourceType:       "test_wire",
		StartURL:         startURL,
		ListItemSelector: ".body-post",
		LinkSelector:     "a.story-link",
		TitleSelector:    ".home-title",
		DateSelector:     ".h-datetime",
		TagSelector:      ".h-tags",
	}
}

func testConfig() Config {
	return Config{MaxPages: 1, Timeout: 5 * time.Second}
}

func TestScrapeCollectsArticles(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "User-agent: *\nAllow: /\n")
	})
	mux.HandleFunc("/breach.html", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, articlePage)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listingPage)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	articles, err := New(testProfile(srv.URL+"/"), testConfig()).Scrape()
	if err != nil {
		t.Fatalf("Scrape failed: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("got %d articles, want 1", len(articles))
	}

	article := articles[0]
	if article.Title != "Major Breach Disclosed" {
		t.Errorf("Title = %q", article.Title)
	}
	wantURL, err := identity.NormalizeURL(srv.URL + "/breach.html")
	if err != nil {
		t.Fatal(err)
	}
	if article.URL != wantURL {
		t.Errorf("URL = %q, want %q", article.URL, wantURL)
	}
	if article.SourceType != "test_wire" {
		t.Errorf("SourceType = %q", article.SourceType)
	}
	if article.Date != "2026-08-12" {
		t.Errorf("Date = %q", article.Date)
	}
	if len(article.Tags) != 2 || article.Tags[0] != "Data Breach" || article.Tags[1] != "Ransomware" {
		t.Errorf("Tags = %v", article.Tags)
	}
	if !strings.Contains(article.Content, "leaked service account") {
		t.Errorf("Content = %q", article.Content)
	}
}

func TestScrapeReportsStartURLFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "User-agent: *\nAllow: /\n")
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	articles, err := New(testProfile(srv.URL+"/"), testConfig()).Scrape()
	if err == nil {
		t.Fatal("expected an error for a dead start URL")
	}
	if !strings.Contains(err.Error(), "failed to fetch") {
		t.Errorf("error = %v", err)
	}
	if len(articles) != 0 {
		t.Errorf("got %d articles, want 0", len(articles))
	}
}
