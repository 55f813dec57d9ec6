// Package jsonstore persists the whole dataset in a single flat JSON
// document. Every operation takes one process-wide lock around its
// read-mutate-write cycle; writes go through a rename-write-restore
// backup protocol so a failed write never loses the previous state.
package jsonstore

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"pulse/models"
)

// next_ids entity keys inside the document.
const (
	idKeyUser    = "user_id"
	idKeyPost    = "post_id"
	idKeyComment = "comment_id"
	idKeyLike    = "like_id"
)

// userRecord is the on-disk user shape. models.User hides the password
// hash from JSON rendering, so the document keeps its own type.
type userRecord struct {
	ID           uint      `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// document is the single persisted object: entity maps keyed by the
// decimal id, plus the sequential id allocator state.
type document struct {
	Users    map[string]*userRecord     `json:"users"`
	Posts    map[string]*models.Post    `json:"posts"`
	Likes    map[string]*models.Like    `json:"likes"`
	Comments map[string]*models.Comment `json:"comments"`
	NextIDs  map[string]int             `json:"next_ids"`
}

func emptyDocument() *document {
	return &document{
		Users:    map[string]*userRecord{},
		Posts:    map[string]*models.Post{},
		Likes:    map[string]*models.Like{},
		Comments: map[string]*models.Comment{},
		NextIDs: map[string]int{
			idKeyUser:    1,
			idKeyPost:    1,
			idKeyComment: 1,
			idKeyLike:    1,
		},
	}
}

// Store is the flat-file backend. It implements IdentityStore,
// ContentStore and InteractionStore; media lives in a separate sink.
type Store struct {
	path string
	mu   sync.Mutex
}

// Open prepares a store over the given document path. The file is
// created lazily on first write; a missing file reads as empty data.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return &Store{path: path}, nil
}

func (s *Store) backupPath() string { return s.path + ".bak" }

// load reads the document. When the main file is missing or corrupt
// but a backup exists (a write died between the rename and the new
// write), the backup is moved back into place and served, so readers
// always see the pre-write state.
func (s *Store) load() *document {
	if b, err := os.ReadFile(s.path); err == nil {
		var doc document
		if json.Unmarshal(b, &doc) == nil {
			normalize(&doc)
			return &doc
		}
	}

	if b, err := os.ReadFile(s.backupPath()); err == nil {
		var doc document
		if json.Unmarshal(b, &doc) == nil {
			// restore the backup as the main file again
			_ = os.Rename(s.backupPath(), s.path)
			normalize(&doc)
			return &doc
		}
	}

	return emptyDocument()
}

// save writes the document with the backup protocol: rename the
// previous file to .bak, write the new one, then drop the backup on
// success or move it back on failure.
func (s *Store) save(doc *document) error {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	hadPrevious := fileExists(s.path)
	if hadPrevious {
		if err := os.Rename(s.path, s.backupPath()); err != nil {
			return err
		}
	}

	if err := os.WriteFile(s.path, b, 0o644); err != nil {
		if hadPrevious {
			_ = os.Rename(s.backupPath(), s.path)
		}
		return err
	}

	if hadPrevious {
		_ = os.Remove(s.backupPath())
	}
	return nil
}

// nextID bumps the allocator for the entity inside an already-held
// lock; the caller persists the document together with its mutation,
// so allocation and insert land in one write.
func (doc *document) nextID(entity string) uint {
	id := doc.NextIDs[entity]
	if id < 1 {
		id = 1
	}
	doc.NextIDs[entity] = id + 1
	return uint(id)
}

// normalize fills nil maps from partially written or hand-edited files.
func normalize(doc *document) {
	empty := emptyDocument()
	if doc.Users == nil {
		doc.Users = empty.Users
	}
	if doc.Posts == nil {
		doc.Posts = empty.Posts
	}
	if doc.Likes == nil {
		doc.Likes = empty.Likes
	}
	if doc.Comments == nil {
		doc.Comments = empty.Comments
	}
	if doc.NextIDs == nil {
		doc.NextIDs = empty.NextIDs
	}
	for key, start := range empty.NextIDs {
		if doc.NextIDs[key] < start {
			doc.NextIDs[key] = start
		}
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}
