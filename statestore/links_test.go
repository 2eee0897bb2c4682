package statestore

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"formlink/model"
)

func testLinkStore(t *testing.T) *LinkStore {
	t.Helper()
	return NewLinkStore(filepath.Join(t.TempDir(), "shortLinks.json"))
}

func questionsNamed(title string) []model.Question {
	return []model.Question{{ID: "q1", Title: title, Options: []model.Option{
		{ID: "o1", Kind: model.KindDropdown, SourceMode: model.SourceFixedValues, RawValue: "A,B"},
	}}}
}

func TestPutIsIdempotentPerPair(t *testing.T) {
	s := testLinkStore(t)

	first, err := s.Put("F1", "Thailand", questionsNamed("v1"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if len(first) != shortIDLength {
		t.Errorf("short id %q, want length %d", first, shortIDLength)
	}

	second, err := s.Put("F1", "Thailand", questionsNamed("v2"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if second != first {
		t.Errorf("second Put minted a new id: %q != %q", second, first)
	}

	_, _, questions, err := s.Get(first)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if questions[0].Title != "v2" {
		t.Errorf("stored questions = %q, want the second call's content", questions[0].Title)
	}
}

func TestPutDistinctPairsGetDistinctIDs(t *testing.T) {
	s := testLinkStore(t)

	a, err := s.Put("F1", "Thailand", questionsNamed("a"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	b, err := s.Put("F1", "Vietnam", questionsNamed("b"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if a == b {
		t.Errorf("pairs share a short id: %q", a)
	}
}

func TestGetRoundTrip(t *testing.T) {
	s := testLinkStore(t)

	want := questionsNamed("round trip")
	id, err := s.Put("F1", "Thailand", want)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	formID, country, questions, err := s.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if formID != "F1" || country != "Thailand" {
		t.Errorf("got (%q, %q), want (F1, Thailand)", formID, country)
	}
	if !reflect.DeepEqual(questions, want) {
		t.Errorf("questions = %#v, want %#v", questions, want)
	}
}

func TestGetUnknownShortID(t *testing.T) {
	s := testLinkStore(t)
	if _, _, _, err := s.Get("nope1234"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestShortIDFor(t *testing.T) {
	s := testLinkStore(t)

	if _, ok := s.ShortIDFor("F1", "Thailand"); ok {
		t.Fatal("unexpected id before Put")
	}

	id, err := s.Put("F1", "Thailand", questionsNamed("x"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok := s.ShortIDFor("F1", "Thailand")
	if !ok || got != id {
		t.Errorf("ShortIDFor = (%q, %v), want (%q, true)", got, ok, id)
	}
}

func TestPutAllSharesSnapshotAcrossCountries(t *testing.T) {
	s := testLinkStore(t)

	first, err := s.PutAll("F1", []string{"Thailand", "Vietnam"}, questionsNamed("x"))
	if err != nil {
		t.Fatalf("PutAll: %v", err)
	}

	thai, ok := s.ShortIDFor("F1", "Thailand")
	if !ok || thai != first {
		t.Errorf("first country id = %q, want %q", thai, first)
	}
	if _, ok := s.ShortIDFor("F1", "Vietnam"); !ok {
		t.Error("second country missing")
	}

	// re-saving keeps both ids
	again, err := s.PutAll("F1", []string{"Thailand", "Vietnam"}, questionsNamed("y"))
	if err != nil {
		t.Fatalf("PutAll: %v", err)
	}
	if again != first {
		t.Errorf("re-save minted a new id: %q != %q", again, first)
	}
}

func TestUpdateUnknownForm(t *testing.T) {
	s := testLinkStore(t)
	err := s.Update("missing", "Thailand", questionsNamed("x"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateOverwritesKeepingID(t *testing.T) {
	s := testLinkStore(t)

	id, err := s.Put("F1", "Thailand", questionsNamed("before"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Update("F1", "Thailand", questionsNamed("after")); err != nil {
		t.Fatalf("Update: %v", err)
	}

	_, _, questions, err := s.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if questions[0].Title != "after" {
		t.Errorf("questions = %q, want the updated content", questions[0].Title)
	}
}

func TestConcurrentPutsKeepUnrelatedPairs(t *testing.T) {
	s := testLinkStore(t)

	const writers = 16
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			country := fmt.Sprintf("country-%02d", i)
			if _, err := s.Put("F1", country, questionsNamed(country)); err != nil {
				t.Errorf("Put %s: %v", country, err)
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < writers; i++ {
		country := fmt.Sprintf("country-%02d", i)
		if _, ok := s.ShortIDFor("F1", country); !ok {
			t.Errorf("pair (F1, %s) lost to a racing writer", country)
		}
	}
}

func TestDeleteForm(t *testing.T) {
	s := testLinkStore(t)

	id, err := s.Put("F1", "Thailand", questionsNamed("x"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := s.Put("F2", "Thailand", questionsNamed("y")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if err := s.DeleteForm("F1"); err != nil {
		t.Fatalf("DeleteForm: %v", err)
	}
	if _, _, _, err := s.Get(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted form still resolvable")
	}
	if _, ok := s.ShortIDFor("F2", "Thailand"); !ok {
		t.Error("unrelated form lost")
	}
}

func TestRetainCountries(t *testing.T) {
	s := testLinkStore(t)

	if _, err := s.PutAll("F1", []string{"Thailand", "Vietnam", "Malaysia"}, questionsNamed("x")); err != nil {
		t.Fatalf("PutAll: %v", err)
	}
	if err := s.RetainCountries("F1", []string{"Thailand"}); err != nil {
		t.Fatalf("RetainCountries: %v", err)
	}

	if _, ok := s.ShortIDFor("F1", "Thailand"); !ok {
		t.Error("retained country dropped")
	}
	if _, ok := s.ShortIDFor("F1", "Vietnam"); ok {
		t.Error("removed country still present")
	}
}
