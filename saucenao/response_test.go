package saucenao

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestResultData_UnmarshalExtraFields(t *testing.T) {
	raw := `{
		"ext_urls": ["https://www.pixiv.net/artworks/1234"],
		"title": "some title",
		"creator": "someone",
		"member_id": 5678,
		"pixiv_id": 1234
	}`

	var d resultData
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if d.Title != "some title" || d.Creator != "someone" {
		t.Errorf("known fields = %q, %q", d.Title, d.Creator)
	}
	if len(d.ExtURLs) != 1 {
		t.Fatalf("ext_urls = %v, want 1 entry", d.ExtURLs)
	}

	if len(d.Extra) != 2 {
		t.Fatalf("Extra = %v, want member_id and pixiv_id", d.Extra)
	}
	if _, ok := d.Extra["title"]; ok {
		t.Error("known field title leaked into Extra")
	}
	if string(d.Extra["member_id"]) != "5678" {
		t.Errorf("Extra[member_id] = %s, want 5678", d.Extra["member_id"])
	}
}

func TestResultData_UnmarshalNoExtras(t *testing.T) {
	var d resultData
	if err := json.Unmarshal([]byte(`{"title": "t"}`), &d); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if d.Extra != nil {
		t.Errorf("Extra = %v, want nil", d.Extra)
	}
}

func TestParseIndexLabel(t *testing.T) {
	tests := []struct {
		name    string
		label   string
		want    uint32
		wantErr bool
	}{
		{"pixiv", "Index #5: pixiv Images - 1234.jpg", 5, false},
		{"ehentai", "Index #38: E-Hentai - foo", 38, false},
		{"bare", "Index #0: H-Magazines", 0, false},
		{"no hash", "Index 5: pixiv", 0, true},
		{"not a number", "Index #x5: pixiv", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseIndexLabel(tt.label)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidParse) {
					t.Errorf("parseIndexLabel(%q) error = %v, want ErrInvalidParse", tt.label, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseIndexLabel(%q) error = %v", tt.label, err)
			}
			if got != tt.want {
				t.Errorf("parseIndexLabel(%q) = %d, want %d", tt.label, got, tt.want)
			}
		})
	}
}

func TestParseSimilarity(t *testing.T) {
	if _, err := parseSimilarity("not-a-number"); !errors.Is(err, ErrInvalidParse) {
		t.Errorf("parseSimilarity() error = %v, want ErrInvalidParse", err)
	}

	sim, err := parseSimilarity("93.21")
	if err != nil {
		t.Fatalf("parseSimilarity() error = %v", err)
	}
	if sim != 93.21 {
		t.Errorf("parseSimilarity() = %v, want 93.21", sim)
	}
}

func TestSauce_JSONRoundTrip(t *testing.T) {
	original := []Sauce{
		{
			ExtURLs:    []string{"https://www.pixiv.net/artworks/1234"},
			Title:      "artwork",
			Site:       "pixiv Images",
			Index:      5,
			IndexID:    5,
			Similarity: 93.21,
			Thumbnail:  "https://img3.saucenao.com/thumb.jpg",
			AdditionalFields: map[string]json.RawMessage{
				"member_id": json.RawMessage("5678"),
			},
			Creator: "someone",
		},
		{
			ExtURLs:    []string{},
			Site:       "Anime",
			Index:      21,
			IndexID:    21,
			Similarity: 60,
			Thumbnail:  "https://img1.saucenao.com/thumb2.jpg",
			EngName:    "Some Show",
			JpName:     "何か",
		},
	}

	b, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded []Sauce
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if !reflect.DeepEqual(original, decoded) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", decoded, original)
	}
}
