package models

// Summary is the AI-generated condensation of one article. At most one
// Summary exists per article; regeneration overwrites the same document.
type Summary struct {
	ID          string `bson:"_id" json:"id"` // "summary_" + article id
	ArticleID   string `bson:"article_id" json:"article_id"`
	Title       string `bson:"title" json:"title"`
	Summary     string `bson:"summary" json:"summary"` // top-level text, never nested
	Source      string `bson:"source" json:"source"`
	Date        string `bson:"date" json:"date"`
	GeneratedAt string `bson:"generated_at" json:"generated_at"`
}

// SummaryDocID returns the document id a summary for the given article
// is stored under.
func SummaryDocID(articleID string) string {
	return "summary_" + articleID
}
