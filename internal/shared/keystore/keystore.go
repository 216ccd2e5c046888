package keystore

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// The two named values the collaborator persists between runs.
const (
	keyAPIKey = "api_key"
	keyPolicy = "policy"
)

const fileName = "config.yaml"

// Store persists the user's provider api key and grading policy text in a
// small per-user config file, read once at startup and written whenever the
// user confirms a new value.
type Store struct {
	v    *viper.Viper
	path string
}

// Open loads the store from dir, defaulting to ~/.grader. A missing file is
// not an error; the store starts empty.
func Open(dir string) (*Store, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, ".grader")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}

	path := filepath.Join(dir, fileName)
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return &Store{v: v, path: path}, nil
}

// Path returns the backing file location.
func (s *Store) Path() string { return s.path }

// APIKey returns the stored provider key, empty when unset.
func (s *Store) APIKey() string { return s.v.GetString(keyAPIKey) }

// Policy returns the stored grading policy text, empty when unset.
func (s *Store) Policy() string { return s.v.GetString(keyPolicy) }

// SetAPIKey persists a new provider key.
func (s *Store) SetAPIKey(value string) error { return s.set(keyAPIKey, value) }

// SetPolicy persists new grading policy text.
func (s *Store) SetPolicy(value string) error { return s.set(keyPolicy, value) }

func (s *Store) set(key, value string) error {
	s.v.Set(key, value)
	return s.v.WriteConfigAs(s.path)
}
