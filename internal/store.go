package internal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/singleflight"
)

// Artifact keys are plain file names inside the store directory, derived from
// the session id and the kind of media they hold.

// AudioKey names the extracted audio track for a session.
func AudioKey(sessionID string) string {
	return sessionID + ".mp3"
}

// MasterKey names the full-resolution video for a session.
func MasterKey(sessionID string) string {
	return sessionID + "_full.mp4"
}

// ClipKey names a cut clip covering [start, end) seconds of the master.
func ClipKey(sessionID string, start, end int) string {
	return fmt.Sprintf("%s_clip_%d_%d.mp4", sessionID, start, end)
}

// MediaStore caches media artifacts on disk under a single directory.
// Producers write into a staging subdirectory and the finished file is
// renamed into place, so a key either does not exist or names a complete
// artifact. Ensure collapses concurrent producers for the same key.
type MediaStore struct {
	dir   string
	group singleflight.Group
}

// NewMediaStore returns a store rooted at dir. The directory is created on
// first use.
func NewMediaStore(dir string) *MediaStore {
	return &MediaStore{dir: dir}
}

// Dir returns the store's root directory.
func (s *MediaStore) Dir() string {
	return s.dir
}

// Path returns the absolute path an artifact with the given key would have.
// It does not imply the artifact exists.
func (s *MediaStore) Path(key string) string {
	return filepath.Join(s.dir, key)
}

// Exists reports whether a finished artifact is cached under key.
func (s *MediaStore) Exists(key string) bool {
	return FileExists(s.Path(key))
}

// Ensure returns the path of the artifact under key, producing it first if it
// is missing. produce receives a staging path and must leave the complete
// artifact there; Ensure then publishes it under the final key. Concurrent
// calls for the same key share one produce invocation.
func (s *MediaStore) Ensure(ctx context.Context, key string, produce func(ctx context.Context, dst string) error) (string, error) {
	final := s.Path(key)
	v, err, _ := s.group.Do(key, func() (any, error) {
		if FileExists(final) {
			return final, nil
		}
		staging := filepath.Join(s.dir, "staging")
		if err := EnsureDirs(staging); err != nil {
			return nil, err
		}
		dst := filepath.Join(staging, key)
		if err := produce(ctx, dst); err != nil {
			os.Remove(dst)
			return nil, err
		}
		if err := os.Rename(dst, final); err != nil {
			os.Remove(dst)
			return nil, fmt.Errorf("publishing %s: %w", key, err)
		}
		return final, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Remove deletes the artifact under key if present. Missing artifacts are not
// an error.
func (s *MediaStore) Remove(key string) error {
	err := os.Remove(s.Path(key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
