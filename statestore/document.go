// Package statestore persists small whole-document JSON stores: the
// short-link state per (form, country) pair and the authored question
// trees. Every mutation rewrites the full document, so each store
// serializes its read-modify-write cycle behind one lock — a racing
// writer must never lose unrelated pairs.
package statestore

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const schemaVersion = 1

var ErrNotFound = errors.New("not found")

func readDocument(path string, doc any) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "statestore.read")
	}
	if len(data) == 0 {
		return nil
	}
	return errors.Wrap(json.Unmarshal(data, doc), "statestore.decode")
}

// writeDocument rewrites the whole backing file, going through a temp
// file and rename so readers never observe a partial document.
func writeDocument(path string, doc any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "statestore.encode")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "statestore.mkdir")
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrap(err, "statestore.write")
	}
	return errors.Wrap(os.Rename(tmp, path), "statestore.rename")
}
