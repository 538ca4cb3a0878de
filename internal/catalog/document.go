// Package catalog loads and persists the marketplace product document. The
// document is held fully in memory during a sync cycle and written back
// atomically (temp file + rename) so that a crash mid-cycle can never leave
// a half-written catalog behind.
package catalog

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/smart-dostup/marketsync/internal/errs"
	"github.com/smart-dostup/marketsync/internal/models"
)

const dateLayout = "2006-01-02T15:04:05-07:00"

// Document wraps the in-memory catalog tree together with its storage path.
type Document struct {
	Catalog models.Catalog
	path    string
}

// New returns an empty document bound to path, with the fixed category table
// and shop name already in place.
func New(path, shopName string) *Document {
	return &Document{
		path: path,
		Catalog: models.Catalog{
			Date: time.Now().Format(dateLayout),
			Shop: models.Shop{
				Name:       shopName,
				Categories: models.DefaultCategories(),
			},
		},
	}
}

// Load parses the catalog document at path.
func Load(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}

	var c models.Catalog
	if err := xml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}

	return &Document{Catalog: c, path: path}, nil
}

// Exists reports whether a catalog document is present at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Path returns the storage location the document is bound to.
func (d *Document) Path() string { return d.path }

// Save serializes the document with stable two-space indentation, refreshes
// the generation timestamp, and replaces the file on disk atomically. The
// previous file stays untouched if anything fails before the final rename.
func (d *Document) Save() error {
	d.Catalog.Date = time.Now().Format(dateLayout)

	body, err := xml.MarshalIndent(&d.Catalog, "", "  ")
	if err != nil {
		return &errs.PersistenceError{Path: d.path, Err: err}
	}
	payload := append([]byte(xml.Header), body...)
	payload = append(payload, '\n')

	dir := filepath.Dir(d.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(d.path)+".tmp-*")
	if err != nil {
		return &errs.PersistenceError{Path: d.path, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &errs.PersistenceError{Path: d.path, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &errs.PersistenceError{Path: d.path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &errs.PersistenceError{Path: d.path, Err: err}
	}

	if err := os.Rename(tmpName, d.path); err != nil {
		os.Remove(tmpName)
		return &errs.PersistenceError{Path: d.path, Err: err}
	}
	return nil
}
