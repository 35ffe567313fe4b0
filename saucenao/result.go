package saucenao

import "encoding/json"

// Sauce is a single normalized match. Instances are immutable once
// returned; the caller owns them.
type Sauce struct {
	// ExtURLs lists where the matched image is hosted. May be empty.
	ExtURLs []string `json:"ext_urls"`
	Title   string   `json:"title,omitempty"`
	// Site is the resolved name of the database the match came from.
	// When the index is not in the catalog this is the raw index_name
	// label from the API.
	Site    string `json:"site"`
	Index   uint32 `json:"index"`
	IndexID uint32 `json:"index_id"`
	// Similarity is the match confidence in percent.
	Similarity float64 `json:"similarity"`
	Thumbnail  string  `json:"thumbnail"`
	// AdditionalFields carries any index-specific data the API returned
	// beyond the common fields, undecoded.
	AdditionalFields map[string]json.RawMessage `json:"additional_fields,omitempty"`
	Source           string                     `json:"source,omitempty"`
	Creator          string                     `json:"creator,omitempty"`
	EngName          string                     `json:"eng_name,omitempty"`
	JpName           string                     `json:"jp_name,omitempty"`
}

// RateLimit is a snapshot of the account quota as reported by the most
// recent successful API response. SauceNAO accounts have two
// concurrent windows: a short one (seconds) and a long one (daily).
type RateLimit struct {
	ShortLimit     uint32 `json:"short_limit"`
	LongLimit      uint32 `json:"long_limit"`
	ShortRemaining uint32 `json:"short_remaining"`
	LongRemaining  uint32 `json:"long_remaining"`
}
