package store

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"golang.org/x/crypto/nacl/secretbox"

	"medibook-console/internal/model"
)

var (
	ErrBadKey = errors.New("store: key must be 32 bytes")
	ErrLocked = errors.New("store: session file is encrypted and no key is configured")
	ErrSealed = errors.New("store: cannot decrypt session file")
)

// sealed files start with this marker, followed by base64(nonce|box)
var sealedPrefix = []byte("mbx1:")

// File keeps the session as JSON in a per-profile file, sealed with
// secretbox when a key is set.
type File struct {
	path string
	key  *[32]byte
}

func NewFile(dir, profile string, key []byte) (*File, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("store: home dir: %w", err)
		}
		dir = filepath.Join(home, ".medibook")
	}
	f := &File{path: filepath.Join(dir, "session-"+profile+".json")}
	if len(key) > 0 {
		if len(key) != 32 {
			return nil, ErrBadKey
		}
		f.key = new([32]byte)
		copy(f.key[:], key)
	}
	return f, nil
}

func (f *File) Path() string { return f.path }

func (f *File) Load(_ context.Context) (*model.User, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if bytes.HasPrefix(data, sealedPrefix) {
		if data, err = f.open(data[len(sealedPrefix):]); err != nil {
			return nil, err
		}
	}
	u := &model.User{}
	if err := json.Unmarshal(data, u); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return u, nil
}

func (f *File) Save(_ context.Context, u *model.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return err
	}
	if f.key != nil {
		if data, err = f.seal(data); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}

	// write-then-rename so a crash never leaves half a session behind
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".session-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}

func (f *File) Clear(_ context.Context) error {
	err := os.Remove(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (f *File) Close() error { return nil }

func (f *File) seal(plain []byte) ([]byte, error) {
	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, err
	}
	box := secretbox.Seal(nonce[:], plain, &nonce, f.key)
	out := make([]byte, len(sealedPrefix)+base64.StdEncoding.EncodedLen(len(box)))
	copy(out, sealedPrefix)
	base64.StdEncoding.Encode(out[len(sealedPrefix):], box)
	return out, nil
}

func (f *File) open(encoded []byte) ([]byte, error) {
	if f.key == nil {
		return nil, ErrLocked
	}
	box := make([]byte, base64.StdEncoding.DecodedLen(len(encoded)))
	n, err := base64.StdEncoding.Decode(box, bytes.TrimSpace(encoded))
	if err != nil || n < 24 {
		return nil, ErrSealed
	}
	box = box[:n]
	var nonce [24]byte
	copy(nonce[:], box[:24])
	plain, ok := secretbox.Open(nil, box[24:], &nonce, f.key)
	if !ok {
		return nil, ErrSealed
	}
	return plain, nil
}
