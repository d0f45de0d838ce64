package artifact

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
)

// DirStore persists artifacts as files below Root, one directory per match.
// Writes go through a temporary file and a rename so readers never observe a
// partial artifact.
type DirStore struct {
	Root string
}

// NewDirStore creates root if needed and returns a store writing below it.
func NewDirStore(root string) (*DirStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &DirStore{Root: root}, nil
}

func (d *DirStore) path(matchID, name string) string {
	return filepath.Join(d.Root, matchID, name)
}

// Save writes data to Root/matchID/name.
func (d *DirStore) Save(matchID, name string, data []byte) error {
	if err := validate(matchID, name); err != nil {
		return err
	}

	dir := filepath.Join(d.Root, matchID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), d.path(matchID, name))
}

// Get reads Root/matchID/name.
func (d *DirStore) Get(matchID, name string) ([]byte, error) {
	if err := validate(matchID, name); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(d.path(matchID, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}

	return data, err
}

// List returns the sorted artifact names of the match.
func (d *DirStore) List(matchID string) ([]string, error) {
	if err := validate(matchID, "x"); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(filepath.Join(d.Root, matchID))
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && e.Name()[0] != '.' {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)

	return names, nil
}

// Delete removes Root/matchID/name.
func (d *DirStore) Delete(matchID, name string) error {
	if err := validate(matchID, name); err != nil {
		return err
	}

	err := os.Remove(d.path(matchID, name))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}

	return err
}
