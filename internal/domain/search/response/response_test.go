package response

import (
	"strings"
	"testing"

	"github.com/kailas-cloud/searchdeck/internal/domain/search/mode"
)

func TestNew_AllFieldsUnset(t *testing.T) {
	r := New()
	if r.Answer != nil || r.Quotes != nil || r.Documents != nil ||
		r.SuggestedSearchType != nil || r.SuggestedFlowType != nil ||
		r.SelectedDocIndices != nil || r.Error != nil || r.MessageID != nil {
		t.Fatalf("expected all fields nil, got %+v", r)
	}
}

func TestAppendAnswer(t *testing.T) {
	r := New()
	r.AppendAnswer("Refunds are")
	r.AppendAnswer(" processed in 5 days")

	if r.Answer == nil || *r.Answer != "Refunds are processed in 5 days" {
		t.Fatalf("unexpected answer: %v", r.Answer)
	}
}

func TestAppendAnswer_EmptyPieceSetsField(t *testing.T) {
	r := New()
	r.AppendAnswer("")
	if r.Answer == nil || *r.Answer != "" {
		t.Fatalf("expected empty non-nil answer, got %v", r.Answer)
	}
}

func TestAppendAnswer_ManyPieces(t *testing.T) {
	r := New()
	want := strings.Repeat("tok ", 20000)
	for i := 0; i < 20000; i++ {
		r.AppendAnswer("tok ")
	}
	if *r.Answer != want {
		t.Fatalf("answer has %d bytes, want %d", len(*r.Answer), len(want))
	}
}

func TestAppendAnswer_AfterCloneAndExternalSet(t *testing.T) {
	r := New()
	r.AppendAnswer("Refunds")
	c := r.Clone()

	c.AppendAnswer(" take")
	r.AppendAnswer(" are")
	if *c.Answer != "Refunds take" || *r.Answer != "Refunds are" {
		t.Fatalf("clone and source share the answer: %q / %q", *c.Answer, *r.Answer)
	}

	reset := "Retry:"
	r.Answer = &reset
	r.AppendAnswer(" ok")
	if *r.Answer != "Retry: ok" {
		t.Errorf("append after external set: %q", *r.Answer)
	}
}

func TestSetDocuments_Overwrites(t *testing.T) {
	r := New()
	r.SetDocuments([]Document{{DocumentID: "a"}, {DocumentID: "b"}})
	r.SetDocuments([]Document{{DocumentID: "c"}})

	if len(r.Documents) != 1 || r.Documents[0].DocumentID != "c" {
		t.Fatalf("expected overwrite semantics, got %+v", r.Documents)
	}
}

func TestBind(t *testing.T) {
	r := New()
	u := Bind(r)
	u.AppendAnswer("x")
	u.Quotes([]Quote{{Quote: "q"}})
	u.SuggestedSearchType(mode.Keyword)
	u.SuggestedFlowType(mode.FlowQuestionAnswer)
	u.SelectedDocIndices([]int{0, 2})
	u.Error("boom")
	u.MessageID(42)

	if *r.Answer != "x" || len(r.Quotes) != 1 || *r.SuggestedSearchType != mode.Keyword ||
		*r.SuggestedFlowType != mode.FlowQuestionAnswer || len(r.SelectedDocIndices) != 2 ||
		*r.Error != "boom" || *r.MessageID != 42 {
		t.Fatalf("unexpected response: %+v", r)
	}
}

func TestClone_IsDeep(t *testing.T) {
	score := 0.5
	r := New()
	r.AppendAnswer("a")
	r.SetDocuments([]Document{{DocumentID: "d", Score: &score, Metadata: map[string]any{"k": "v"}}})
	r.SetSelectedDocIndices([]int{1})

	c := r.Clone()
	r.AppendAnswer("b")
	*r.Documents[0].Score = 0.9
	r.Documents[0].Metadata["k"] = "changed"
	r.SelectedDocIndices[0] = 7

	if *c.Answer != "a" {
		t.Errorf("clone answer changed: %q", *c.Answer)
	}
	if *c.Documents[0].Score != 0.5 {
		t.Errorf("clone score changed: %v", *c.Documents[0].Score)
	}
	if c.Documents[0].Metadata["k"] != "v" {
		t.Errorf("clone metadata changed: %v", c.Documents[0].Metadata)
	}
	if c.SelectedDocIndices[0] != 1 {
		t.Errorf("clone indices changed: %v", c.SelectedDocIndices)
	}
}

func TestClone_Nil(t *testing.T) {
	var r *SearchResponse
	if r.Clone() != nil {
		t.Error("expected nil clone of nil response")
	}
}
