package models

// TipsPayload is the nested structure required under the "tips" field of a
// tips document: a short summary of the security issue plus do/don't lists.
type TipsPayload struct {
	Summary string   `bson:"summary" json:"summary"`
	Dos     []string `bson:"dos" json:"dos"`
	Donts   []string `bson:"donts" json:"donts"`
}

// Tips holds AI-generated security recommendations for one article. At most
// one Tips document exists per article; regeneration overwrites it.
type Tips struct {
	ID          string      `bson:"_id" json:"id"` // "tips_" + article id
	ArticleID   string      `bson:"article_id" json:"article_id"`
	Title       string      `bson:"title" json:"title"`
	Tips        TipsPayload `bson:"tips" json:"tips"`
	Source      string      `bson:"source" json:"source"`
	Date        string      `bson:"date" json:"date"`
	GeneratedAt string      `bson:"generated_at" json:"generated_at"`
}

// TipsDocID returns the document id tips for the given article are stored
// under.
func TipsDocID(articleID string) string {
	return "tips_" + articleID
}
