package saucenao

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Wire format of a search.php reply. The response header mixes numeric
// and string fields: *_remaining come back as numbers while *_limit are
// decimal strings, and each row's similarity is also a decimal string.
type apiResponse struct {
	Header  apiHeader   `json:"header"`
	Results []apiResult `json:"results"`
}

type apiHeader struct {
	Status         int    `json:"status"`
	Message        string `json:"message"`
	ShortRemaining uint32 `json:"short_remaining"`
	LongRemaining  uint32 `json:"long_remaining"`
	ShortLimit     string `json:"short_limit"`
	LongLimit      string `json:"long_limit"`
}

type apiResult struct {
	Header resultHeader `json:"header"`
	Data   resultData   `json:"data"`
}

type resultHeader struct {
	Similarity string `json:"similarity"`
	Thumbnail  string `json:"thumbnail"`
	IndexID    uint32 `json:"index_id"`
	IndexName  string `json:"index_name"`
}

type resultData struct {
	ExtURLs []string
	Title   string
	Source  string
	Creator string
	EngName string
	JpName  string
	// Extra holds whatever index-specific fields came alongside the
	// common ones (member_id, danbooru_id, part, est_time, ...).
	Extra map[string]json.RawMessage
}

var knownDataFields = []string{"ext_urls", "title", "source", "creator", "eng_name", "jp_name"}

// UnmarshalJSON decodes the common fields and keeps everything else
// raw, since each index returns its own set of identifiers.
func (d *resultData) UnmarshalJSON(b []byte) error {
	var known struct {
		ExtURLs []string `json:"ext_urls"`
		Title   string   `json:"title"`
		Source  string   `json:"source"`
		Creator string   `json:"creator"`
		EngName string   `json:"eng_name"`
		JpName  string   `json:"jp_name"`
	}
	if err := json.Unmarshal(b, &known); err != nil {
		return err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return err
	}
	for _, k := range knownDataFields {
		delete(all, k)
	}
	if len(all) == 0 {
		all = nil
	}

	d.ExtURLs = known.ExtURLs
	d.Title = known.Title
	d.Source = known.Source
	d.Creator = known.Creator
	d.EngName = known.EngName
	d.JpName = known.JpName
	d.Extra = all
	return nil
}

// parseIndexLabel extracts the numeric database index from an
// index_name label such as "Index #5: pixiv Images - title".
func parseIndexLabel(label string) (uint32, error) {
	head, _, _ := strings.Cut(label, ":")
	_, num, ok := strings.Cut(head, "#")
	if !ok {
		return 0, fmt.Errorf("%w: no index in label %q", ErrInvalidParse, label)
	}
	idx, err := strconv.ParseUint(strings.TrimSpace(num), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: index in label %q: %v", ErrInvalidParse, label, err)
	}
	return uint32(idx), nil
}

func parseLimit(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: limit %q: %v", ErrInvalidParse, s, err)
	}
	return uint32(v), nil
}

func parseSimilarity(s string) (float64, error) {
	sim, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: similarity %q: %v", ErrInvalidParse, s, err)
	}
	return sim, nil
}

// toSauce maps one response row into the caller-facing record. Site
// resolution falls back to the raw index_name label for indices the
// catalog does not know about.
func toSauce(r apiResult, index uint32, similarity float64) Sauce {
	site, ok := SourceName(index)
	if !ok {
		site = r.Header.IndexName
	}

	return Sauce{
		ExtURLs:          r.Data.ExtURLs,
		Title:            r.Data.Title,
		Site:             site,
		Index:            index,
		IndexID:          r.Header.IndexID,
		Similarity:       similarity,
		Thumbnail:        r.Header.Thumbnail,
		AdditionalFields: r.Data.Extra,
		Source:           r.Data.Source,
		Creator:          r.Data.Creator,
		EngName:          r.Data.EngName,
		JpName:           r.Data.JpName,
	}
}
