package models

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mmdatafocus/pos_sync/utils"
)

// ErrInvalidShape marks a collection file that does not hold the declared JSON shape.
var ErrInvalidShape = errors.New("collection file has an unexpected shape")

// Store keeps every collection as one JSON file inside dir.
//
// Mutations are read-modify-write of the whole file under a per-collection
// lock and are committed by writing a temp file and renaming it over the
// collection file, so readers never observe a half written file.
type Store struct {
	dir    string
	locker Locker
}

func NewStore(dir string, locker Locker) *Store {
	if locker == nil {
		locker = NewLocalLocker()
	}
	return &Store{dir: dir, locker: locker}
}

func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file backing c.
func (s *Store) Path(c Collection) string {
	return filepath.Join(s.dir, c.File)
}

// EnsureCollections creates missing collection files with their empty default.
func (s *Store) EnsureCollections(ctx context.Context, cols ...Collection) error {
	if len(cols) == 0 {
		cols = AllCollections
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	for _, c := range cols {
		if err := s.ensure(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ensure(ctx context.Context, c Collection) error {
	unlock, err := s.locker.Lock(ctx, c.Name)
	if err != nil {
		return err
	}
	defer unlock()

	if _, err := os.Stat(s.Path(c)); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", c.File, err)
	}
	return s.write(c, defaultValue(c))
}

func defaultValue(c Collection) any {
	if c.Shape == ShapeObject {
		return Record{"isSetup": false}
	}
	return []Record{}
}

// ReadList loads a list collection. A missing or empty file is an empty list.
func (s *Store) ReadList(ctx context.Context, c Collection) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := s.readRaw(c)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return []Record{}, nil
	}
	var list []Record
	if err := utils.DecodeJSON(raw, &list); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidShape, c.File)
		}
		return nil, fmt.Errorf("decode %s: %w", c.File, err)
	}
	if list == nil {
		list = []Record{}
	}
	return list, nil
}

// ReadValue loads any collection as a generic JSON value. A missing or
// empty file is nil.
func (s *Store) ReadValue(ctx context.Context, c Collection) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := s.readRaw(c)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var v any
	if err := utils.DecodeJSON(raw, &v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.File, err)
	}
	return v, nil
}

// UpdateList applies fn to the current contents of c and persists the
// result when fn reports a change.
func (s *Store) UpdateList(ctx context.Context, c Collection, fn func(list []Record) ([]Record, bool, error)) error {
	unlock, err := s.locker.Lock(ctx, c.Name)
	if err != nil {
		return fmt.Errorf("lock %s: %w", c.Name, err)
	}
	defer unlock()

	list, err := s.ReadList(ctx, c)
	if err != nil {
		return err
	}
	next, changed, err := fn(list)
	if err != nil || !changed {
		return err
	}
	if next == nil {
		next = []Record{}
	}
	return s.write(c, next)
}

// UpdateValue is UpdateList for single-object collections.
func (s *Store) UpdateValue(ctx context.Context, c Collection, fn func(current any) (any, bool, error)) error {
	unlock, err := s.locker.Lock(ctx, c.Name)
	if err != nil {
		return fmt.Errorf("lock %s: %w", c.Name, err)
	}
	defer unlock()

	current, err := s.ReadValue(ctx, c)
	if err != nil {
		return err
	}
	next, changed, err := fn(current)
	if err != nil || !changed {
		return err
	}
	return s.write(c, next)
}

func (s *Store) readRaw(c Collection) ([]byte, error) {
	raw, err := os.ReadFile(s.Path(c))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c.File, err)
	}
	return bytes.TrimSpace(raw), nil
}

func (s *Store) write(c Collection, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.File, err)
	}
	if err := writeFileAtomic(s.Path(c), data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", c.File, err)
	}
	return nil
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), perm); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
