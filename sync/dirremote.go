/*
dirremote.go - Directory-backed remote store

PURPOSE:
  A RemoteStore that mirrors buckets as JSON files under a directory, one
  subdirectory per user. Pointing it at a folder that is itself synchronized
  (network share, Dropbox-style folder) gives a usable mirror without any
  cloud SDK.

LAYOUT:
  <root>/<userID>/<bucket>.json
*/
package sync

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// DirRemote mirrors buckets to a local directory.
type DirRemote struct {
	root string
}

// NewDirRemote creates a directory-backed remote rooted at root. The
// directory is created on first write.
func NewDirRemote(root string) *DirRemote {
	return &DirRemote{root: root}
}

func (d *DirRemote) userDir(userID string) (string, error) {
	if strings.ContainsAny(userID, `/\`) || userID == "" || userID == "." || userID == ".." {
		return "", errors.New("invalid user id")
	}
	return filepath.Join(d.root, userID), nil
}

// Read returns every bucket file of the user. A missing directory is an
// empty remote, not an error.
func (d *DirRemote) Read(ctx context.Context, userID string) (map[string][]byte, error) {
	dir, err := d.userDir(userID)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return map[string][]byte{}, nil
	}
	if err != nil {
		return nil, err
	}

	out := make(map[string][]byte, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		out[strings.TrimSuffix(e.Name(), ".json")] = raw
	}
	return out, nil
}

// Write stores the given buckets, creating the user directory as needed.
// Buckets absent from the payload are left untouched.
func (d *DirRemote) Write(ctx context.Context, userID string, payload map[string][]byte) error {
	dir, err := d.userDir(userID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for bucket, raw := range payload {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, bucket+".json"), raw, 0o644); err != nil {
			return err
		}
	}
	return nil
}
