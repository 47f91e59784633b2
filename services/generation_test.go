package services

import (
	"strings"
	"testing"

	"cyber-news-digest/models"
)

func articleWithContent(content string) models.Article {
	return models.Article{Title: "t", Date: "2026-08-01", Source: "s", Content: content}
}

func TestParseTipsReply(t *testing.T) {
	reply := `Here is the advice you asked for:
` + "```json" + `
{
  "summary": "Attackers exploit the flaw remotely.",
  "dos": ["Patch immediately", "Audit exposed instances"],
  "donts": ["Leave the service internet-facing"]
}
` + "```" + `
Stay safe!`

	payload, err := ParseTipsReply(reply)
	if err != nil {
		t.Fatalf("ParseTipsReply failed: %v", err)
	}
	if payload.Summary != "Attackers exploit the flaw remotely." {
		t.Errorf("wrong summary: %q", payload.Summary)
	}
	if len(payload.Dos) != 2 || len(payload.Donts) != 1 {
		t.Errorf("wrong list sizes: dos=%d donts=%d", len(payload.Dos), len(payload.Donts))
	}
}

func TestParseTipsReplyDefaultsMissingLists(t *testing.T) {
	payload, err := ParseTipsReply(`{"summary": "issue"}`)
	if err != nil {
		t.Fatalf("ParseTipsReply failed: %v", err)
	}
	if payload.Dos == nil || payload.Donts == nil {
		t.Fatal("missing lists must default to empty, not nil")
	}
	if err := ValidateTipsPayload(payload); err != nil {
		t.Fatalf("defaulted payload must pass validation: %v", err)
	}
}

func TestParseTipsReplyRejectsBadInput(t *testing.T) {
	cases := []struct {
		name  string
		reply string
	}{
		{"no JSON at all", "I cannot help with that."},
		{"broken JSON", `{"summary": "x", "dos": [}`},
		{"missing summary", `{"dos": [], "donts": []}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseTipsReply(tc.reply); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestBuildPromptsTruncateLongContent(t *testing.T) {
	long := strings.Repeat("a", 20000)
	prompt := buildSummaryPrompt(articleWithContent(long))
	if len(prompt) > 10000 {
		t.Fatalf("summary prompt not truncated: %d chars", len(prompt))
	}
	prompt = buildTipsPrompt(articleWithContent(long))
	if len(prompt) > 10000 {
		t.Fatalf("tips prompt not truncated: %d chars", len(prompt))
	}
}
