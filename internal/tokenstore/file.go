// ABOUTME: Durable fallback token storage in the config directory
// ABOUTME: Encrypts the token at rest with age using a locally generated X25519 identity

package tokenstore

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"filippo.io/age"
)

const identityFileName = "identity.age"

// File stores the fallback token as <dir>/auth_token_fallback.age. The
// identity that decrypts it lives next to it with 0600 permissions, so
// the token file alone is useless if copied elsewhere.
type File struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

// NewFile creates a file store rooted at dir. Nothing is written until
// the first Save.
func NewFile(dir string) *File {
	return &File{dir: dir, now: time.Now}
}

func (f *File) tokenPath() string {
	return filepath.Join(f.dir, Key+".age")
}

func (f *File) identityPath() string {
	return filepath.Join(f.dir, identityFileName)
}

// Load decrypts and returns the stored token. Expired JWTs are removed
// and reported as absent.
func (f *File) Load() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ciphertext, err := os.ReadFile(f.tokenPath())
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading fallback token: %w", err)
	}

	identity, err := f.readIdentity()
	if err != nil {
		return "", err
	}
	if identity == nil {
		// Token without its identity can never be decrypted
		slog.Warn("Fallback token has no identity, discarding", "path", f.tokenPath())
		return "", f.removeLocked()
	}

	reader, err := age.Decrypt(bytes.NewReader(ciphertext), identity)
	if err != nil {
		slog.Warn("Fallback token could not be decrypted, discarding", "error", err)
		return "", f.removeLocked()
	}
	plaintext, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("reading decrypted token: %w", err)
	}

	token := string(plaintext)
	if Expired(token, f.now()) {
		slog.Info("Fallback token expired, discarding")
		return "", f.removeLocked()
	}
	return token, nil
}

// Save encrypts token and replaces any stored token
func (f *File) Save(token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if token == "" {
		return f.removeLocked()
	}

	if err := os.MkdirAll(f.dir, 0700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	identity, err := f.readIdentity()
	if err != nil {
		return err
	}
	if identity == nil {
		if identity, err = f.generateIdentity(); err != nil {
			return err
		}
	}

	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, identity.Recipient())
	if err != nil {
		return fmt.Errorf("creating age encryptor: %w", err)
	}
	if _, err := io.WriteString(w, token); err != nil {
		return fmt.Errorf("encrypting token: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing token encryption: %w", err)
	}

	return writeFileAtomic(f.tokenPath(), buf.Bytes())
}

// Clear removes the stored token. Clearing an absent token is not an error.
func (f *File) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.removeLocked()
}

func (f *File) removeLocked() error {
	if err := os.Remove(f.tokenPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing fallback token: %w", err)
	}
	return nil
}

func (f *File) readIdentity() (*age.X25519Identity, error) {
	data, err := os.ReadFile(f.identityPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading token identity: %w", err)
	}
	identity, err := age.ParseX25519Identity(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("parsing token identity: %w", err)
	}
	return identity, nil
}

func (f *File) generateIdentity() (*age.X25519Identity, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("generating token identity: %w", err)
	}
	if err := writeFileAtomic(f.identityPath(), []byte(identity.String()+"\n")); err != nil {
		return nil, err
	}
	return identity, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path))
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("setting permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", filepath.Base(path), err)
	}
	return nil
}
