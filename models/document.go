package models

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DocKind is the shape discriminator for stored documents. Collection
// membership is decided by shape, not by which collection a document was
// found in, so classification has to be a total match over the raw document.
type DocKind string

const (
	KindArticle       DocKind = "article"
	KindSummary       DocKind = "summary"
	KindTips          DocKind = "tips"
	KindMalformedTips DocKind = "tips_malformed"
	KindUnknown       DocKind = "unknown"
)

// ClassifyDocument determines the kind of a raw document by its shape.
//
// Precedence: a well-formed nested tips object wins; a tips object missing
// its dos/donts lists, or legacy flat dos/donts hoisted to the top level,
// is malformed tips; a flat summary string next to an article_id is a
// summary; anything carrying a url or content field is an article.
func ClassifyDocument(raw bson.M) DocKind {
	if tips, present := raw["tips"]; present {
		m, ok := AsMap(tips)
		if !ok {
			return KindMalformedTips
		}
		if _, hasDos := m["dos"]; hasDos {
			if _, hasDonts := m["donts"]; hasDonts {
				return KindTips
			}
		}
		return KindMalformedTips
	}

	_, hasDos := raw["dos"]
	_, hasDonts := raw["donts"]
	if hasDos || hasDonts {
		return KindMalformedTips
	}

	if s, ok := raw["summary"].(string); ok && s != "" {
		if _, hasRef := raw["article_id"]; hasRef {
			return KindSummary
		}
	}

	if _, hasURL := raw["url"]; hasURL {
		return KindArticle
	}
	if _, hasContent := raw["content"]; hasContent {
		return KindArticle
	}

	return KindUnknown
}

// AsMap converts the decoded forms a nested document can take (bson.M,
// bson.D, plain map) into a map.
func AsMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case bson.M:
		return m, true
	case map[string]interface{}:
		return m, true
	case primitive.D:
		out := make(map[string]interface{}, len(m))
		for _, e := range m {
			out[e.Key] = e.Value
		}
		return out, true
	default:
		return nil, false
	}
}

// AsStringSlice converts the decoded forms an array field can take into a
// string slice, dropping non-string elements.
func AsStringSlice(v interface{}) []string {
	switch s := v.(type) {
	case []string:
		return s
	case bson.A:
		out := make([]string, 0, len(s))
		for _, e := range s {
			if str, ok := e.(string); ok {
				out = append(out, str)
			}
		}
		return out
	case []interface{}:
		out := make([]string, 0, len(s))
		for _, e := range s {
			if str, ok := e.(string); ok {
				out = append(out, str)
			}
		}
		return out
	default:
		return nil
	}
}

// GetString reads a string field from a raw document, returning "" when the
// field is absent or not a string.
func GetString(raw bson.M, key string) string {
	if s, ok := raw[key].(string); ok {
		return s
	}
	return ""
}
