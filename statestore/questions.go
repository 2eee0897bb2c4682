package statestore

import (
	"sync"

	"formlink/model"
)

type questionDocument struct {
	Version int                                    `json:"version"`
	Forms   map[string]map[string][]model.Question `json:"forms"`
}

// QuestionStore persists authored question trees per (form, country),
// with the same whole-document, serialized-writer discipline as
// LinkStore.
type QuestionStore struct {
	path string
	mu   sync.Mutex
}

func NewQuestionStore(path string) *QuestionStore {
	return &QuestionStore{path: path}
}

func (s *QuestionStore) load() (questionDocument, error) {
	doc := questionDocument{Version: schemaVersion, Forms: map[string]map[string][]model.Question{}}
	err := readDocument(s.path, &doc)
	if doc.Forms == nil {
		doc.Forms = map[string]map[string][]model.Question{}
	}
	doc.Version = schemaVersion
	return doc, err
}

// Save stores the same question tree for each listed country.
func (s *QuestionStore) Save(formID string, countries []string, questions []model.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	if doc.Forms[formID] == nil {
		doc.Forms[formID] = map[string][]model.Question{}
	}
	for _, country := range countries {
		doc.Forms[formID][country] = questions
	}
	return writeDocument(s.path, doc)
}

// Get returns the question tree of one (form, country) pair. A
// missing pair yields an empty list, not an error.
func (s *QuestionStore) Get(formID, country string) ([]model.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	questions := doc.Forms[formID][country]
	if questions == nil {
		questions = []model.Question{}
	}
	return questions, nil
}

// GetAll returns every country's question tree for a form.
func (s *QuestionStore) GetAll(formID string) (map[string][]model.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	byCountry := doc.Forms[formID]
	if byCountry == nil {
		byCountry = map[string][]model.Question{}
	}
	return byCountry, nil
}

// Flatten returns every question of a form across all countries.
func (s *QuestionStore) Flatten(formID string) ([]model.Question, error) {
	byCountry, err := s.GetAll(formID)
	if err != nil {
		return nil, err
	}
	questions := []model.Question{}
	for _, qs := range byCountry {
		questions = append(questions, qs...)
	}
	return questions, nil
}

func (s *QuestionStore) DeleteForm(formID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := doc.Forms[formID]; !ok {
		return nil
	}
	delete(doc.Forms, formID)
	return writeDocument(s.path, doc)
}

// RetainCountries mirrors LinkStore.RetainCountries for the authored
// trees.
func (s *QuestionStore) RetainCountries(formID string, keep []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	byCountry, ok := doc.Forms[formID]
	if !ok {
		return nil
	}

	kept := make(map[string]bool, len(keep))
	for _, c := range keep {
		kept[c] = true
	}
	for country := range byCountry {
		if !kept[country] {
			delete(byCountry, country)
		}
	}
	return writeDocument(s.path, doc)
}
