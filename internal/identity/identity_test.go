package identity

import "testing"

func TestDeriveIDDeterministic(t *testing.T) {
	first, err := DeriveID("https://thehackernews.com/2025/08/new-phishing-wave.html", "", "")
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	second, err := DeriveID("https://thehackernews.com/2025/08/new-phishing-wave.html", "", "")
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	if first != second {
		t.Fatalf("same url produced different ids: %s vs %s", first, second)
	}
	if len(first) != idHexLen {
		t.Fatalf("expected %d hex chars, got %d", idHexLen, len(first))
	}
}

func TestDeriveIDCollapsesCosmeticVariants(t *testing.T) {
	variants := []string{
		"https://Example.com/a/",
		"https://example.com/a",
		"HTTPS://EXAMPLE.COM/a",
		"https://example.com:443/a",
		"https://example.com/a?utm_source=newsletter&utm_medium=email",
		"https://example.com/a#section-2",
	}

	base, err := DeriveID(variants[0], "", "")
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	for _, v := range variants[1:] {
		id, err := DeriveID(v, "", "")
		if err != nil {
			t.Fatalf("derive %q failed: %v", v, err)
		}
		if id != base {
			t.Errorf("variant %q derived %s, want %s", v, id, base)
		}
	}
}

func TestDeriveIDKeepsMeaningfulQuery(t *testing.T) {
	plain, err := DeriveID("https://example.com/search", "", "")
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	withQuery, err := DeriveID("https://example.com/search?q=ransomware", "", "")
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	if plain == withQuery {
		t.Fatal("meaningful query parameter should change the id")
	}
}

func TestDeriveIDFallback(t *testing.T) {
	id, err := DeriveID("", "Critical RCE in widely used VPN appliance", "The Hacker News")
	if err != nil {
		t.Fatalf("fallback derive failed: %v", err)
	}
	again, err := DeriveID("", "Critical RCE in widely used VPN appliance", "The Hacker News")
	if err != nil {
		t.Fatalf("fallback derive failed: %v", err)
	}
	if id != again {
		t.Fatal("fallback id not deterministic")
	}

	if _, err := DeriveID("", "", ""); err == nil {
		t.Fatal("expected error when url, title and source are all empty")
	}
}
