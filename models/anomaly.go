package models

import "go.mongodb.org/mongo-driver/bson"

// AnomalyKind identifies a class of structural drift detected by the auditor.
type AnomalyKind string

const (
	// A summary-shaped document sitting in the tips collection.
	AnomalyMisplacedSummary AnomalyKind = "misplaced_summary"
	// A tips-shaped document sitting in the summaries collection.
	AnomalyMisplacedTips AnomalyKind = "misplaced_tips"
	// A tips document whose nested tips object is missing or incomplete.
	AnomalyMalformedTips AnomalyKind = "malformed_tips"
	// A summary/tips document whose article_id resolves to no article.
	AnomalyOrphanReference AnomalyKind = "orphan_reference"
	// An article with no summary and/or tips. Informational only.
	AnomalyMissingCoverage AnomalyKind = "missing_coverage"
)

// Anomaly is one detected mismatch between a stored document's shape and its
// collection's expected schema. Raw carries the offending document so the
// repair engine does not have to re-read it.
type Anomaly struct {
	Kind       AnomalyKind `json:"kind"`
	Collection string      `json:"collection"`
	DocID      string      `json:"doc_id"`
	ArticleID  string      `json:"article_id,omitempty"`
	Detail     string      `json:"detail,omitempty"`
	Raw        bson.M      `json:"-"`
}
