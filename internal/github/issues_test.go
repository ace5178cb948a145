package github

import (
	"reflect"
	"testing"
)

func sampleIssue() *Issue {
	return &Issue{
		Number:    42,
		Title:     "App crashes on export",
		Body:      "export crashes every time",
		Author:    Author{Login: "alice"},
		CreatedAt: "2025-06-01T12:00:00Z",
		Comments: []Comment{
			{Author: Author{Login: "bob"}, Body: "same on macos", CreatedAt: "2025-06-01T13:00:00Z"},
			{Author: Author{Login: "carol"}, Body: "   "},
			{Author: Author{Login: "bob"}, Body: "still broken in 2.1"},
			{Author: Author{Login: ""}, Body: "ghost comment"},
		},
	}
}

func TestIssueTexts(t *testing.T) {
	texts := sampleIssue().Texts()

	// Body plus three non-blank comments (the blank one is dropped).
	if len(texts) != 4 {
		t.Fatalf("Expected 4 texts, got %d", len(texts))
	}
	if texts[0].Source != "issue_body" || texts[0].Author != "alice" {
		t.Errorf("Issue body text wrong: %+v", texts[0])
	}
	if texts[1].Source != "comment" || texts[1].Text != "same on macos" {
		t.Errorf("First comment wrong: %+v", texts[1])
	}
}

func TestIssueTextsEmptyBody(t *testing.T) {
	issue := sampleIssue()
	issue.Body = "  \n"
	texts := issue.Texts()

	if len(texts) != 3 || texts[0].Source != "comment" {
		t.Errorf("Blank body should be dropped, got %+v", texts)
	}
}

func TestCommenters(t *testing.T) {
	got := sampleIssue().Commenters()
	want := []string{"bob", "carol"}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("Commenters = %v, want %v", got, want)
	}
}
