package statestore

import (
	"strings"
	"sync"

	"github.com/gofrs/uuid"
	"github.com/pkg/errors"

	"formlink/model"
)

const shortIDLength = 8

// LinkEntry is the stored snapshot behind one short id.
type LinkEntry struct {
	ShortID   string           `json:"shortId"`
	Questions []model.Question `json:"questions"`
}

type linkDocument struct {
	Version int                              `json:"version"`
	Forms   map[string]map[string]*LinkEntry `json:"forms"`
}

// LinkStore maps (formID, country) to a short id plus a question-tree
// snapshot, backed by a single JSON document.
type LinkStore struct {
	path  string
	mu    sync.Mutex
	newID func() (string, error)
}

func NewLinkStore(path string) *LinkStore {
	return &LinkStore{path: path, newID: newShortID}
}

func newShortID() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", errors.Wrap(err, "statestore.short_id")
	}
	return strings.ReplaceAll(id.String(), "-", "")[:shortIDLength], nil
}

func (s *LinkStore) load() (linkDocument, error) {
	doc := linkDocument{Version: schemaVersion, Forms: map[string]map[string]*LinkEntry{}}
	err := readDocument(s.path, &doc)
	if doc.Forms == nil {
		doc.Forms = map[string]map[string]*LinkEntry{}
	}
	doc.Version = schemaVersion
	return doc, err
}

// Put stores the snapshot for one (form, country) pair. An existing
// pair keeps its short id and only the questions are overwritten;
// otherwise a fresh id is minted.
func (s *LinkStore) Put(formID, country string, questions []model.Question) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(formID, country, questions)
}

// PutAll stores the same snapshot for several countries in one
// document rewrite and returns the first country's short id.
func (s *LinkStore) PutAll(formID string, countries []string, questions []model.Question) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return "", err
	}
	if doc.Forms[formID] == nil {
		doc.Forms[formID] = map[string]*LinkEntry{}
	}

	first := ""
	for _, country := range countries {
		entry := doc.Forms[formID][country]
		if entry == nil {
			id, err := s.newID()
			if err != nil {
				return "", err
			}
			entry = &LinkEntry{ShortID: id}
			doc.Forms[formID][country] = entry
		}
		entry.Questions = questions
		if first == "" {
			first = entry.ShortID
		}
	}

	return first, writeDocument(s.path, doc)
}

func (s *LinkStore) put(formID, country string, questions []model.Question) (string, error) {
	doc, err := s.load()
	if err != nil {
		return "", err
	}
	if doc.Forms[formID] == nil {
		doc.Forms[formID] = map[string]*LinkEntry{}
	}

	entry := doc.Forms[formID][country]
	if entry == nil {
		id, err := s.newID()
		if err != nil {
			return "", err
		}
		entry = &LinkEntry{ShortID: id}
		doc.Forms[formID][country] = entry
	}
	entry.Questions = questions

	return entry.ShortID, writeDocument(s.path, doc)
}

// Update overwrites the questions for a pair of a form that already
// has state. An unknown form is ErrNotFound.
func (s *LinkStore) Update(formID, country string, questions []model.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	if doc.Forms[formID] == nil {
		return errors.Wrap(ErrNotFound, formID)
	}

	_, err = s.put(formID, country, questions)
	return err
}

// Get scans for a short id. Read-only.
func (s *LinkStore) Get(shortID string) (formID, country string, questions []model.Question, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return "", "", nil, err
	}

	for fid, byCountry := range doc.Forms {
		for c, entry := range byCountry {
			if entry != nil && entry.ShortID == shortID {
				return fid, c, entry.Questions, nil
			}
		}
	}
	return "", "", nil, errors.Wrap(ErrNotFound, shortID)
}

// ShortIDFor reports the live short id of a pair, if any.
func (s *LinkStore) ShortIDFor(formID, country string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return "", false
	}
	entry := doc.Forms[formID][country]
	if entry == nil {
		return "", false
	}
	return entry.ShortID, true
}

// DeleteForm drops every pair of a form.
func (s *LinkStore) DeleteForm(formID string) error {
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

// RetainCountries drops every pair of a form whose country is not in
// keep. Used when a form's country list shrinks.
func (s *LinkStore) RetainCountries(formID string, keep []string) error {
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
