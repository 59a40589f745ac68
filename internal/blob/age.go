package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"filippo.io/age"

	"talentflow/internal/talentflow"
)

// EncryptedStore wraps another BlobStore and encrypts every blob with age
// before it reaches the backend. Keys are stored in the clear.
type EncryptedStore struct {
	inner     talentflow.BlobStore
	recipient age.Recipient
	identity  age.Identity
}

func NewEncryptedStore(inner talentflow.BlobStore, recipient age.Recipient, identity age.Identity) *EncryptedStore {
	return &EncryptedStore{inner: inner, recipient: recipient, identity: identity}
}

// NewEncryptedStoreFromFiles loads an X25519 key pair written by GenerateKeys.
func NewEncryptedStoreFromFiles(inner talentflow.BlobStore, publicKeyPath, privateKeyPath string) (*EncryptedStore, error) {
	recipient, err := loadRecipient(publicKeyPath)
	if err != nil {
		return nil, err
	}
	identity, err := loadIdentity(privateKeyPath)
	if err != nil {
		return nil, err
	}
	return NewEncryptedStore(inner, recipient, identity), nil
}

func (e *EncryptedStore) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	plain, err := readSized(r, size)
	if err != nil {
		return err
	}

	var sealed bytes.Buffer
	w, err := age.Encrypt(&sealed, e.recipient)
	if err != nil {
		return fmt.Errorf("creating encrypted writer: %w", err)
	}
	if _, err := w.Write(plain); err != nil {
		return fmt.Errorf("encrypting blob: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing encryption: %w", err)
	}

	return e.inner.Put(ctx, key, &sealed, int64(sealed.Len()))
}

func (e *EncryptedStore) Get(ctx context.Context, key string, w io.Writer) error {
	var sealed bytes.Buffer
	if err := e.inner.Get(ctx, key, &sealed); err != nil {
		return err
	}
	r, err := age.Decrypt(&sealed, e.identity)
	if err != nil {
		return fmt.Errorf("decrypting blob %s: %w", key, err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("decrypting blob %s: %w", key, err)
	}
	return nil
}

func (e *EncryptedStore) List(ctx context.Context, prefix string) ([]string, error) {
	return e.inner.List(ctx, prefix)
}

func (e *EncryptedStore) Delete(ctx context.Context, key string) error {
	return e.inner.Delete(ctx, key)
}

// Close closes the inner store when it holds resources.
func (e *EncryptedStore) Close() error {
	if c, ok := e.inner.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// GenerateKeys writes a new X25519 key pair: the recipient to publicKeyPath
// and the identity to privateKeyPath (mode 0600). Existing files are not
// overwritten.
func GenerateKeys(publicKeyPath, privateKeyPath string) error {
	for _, p := range []string{publicKeyPath, privateKeyPath} {
		if _, err := os.Stat(p); err == nil {
			return fmt.Errorf("key file already exists at %s", p)
		}
		if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
			return fmt.Errorf("creating key directory: %w", err)
		}
	}

	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return fmt.Errorf("generating key pair: %w", err)
	}
	if err := os.WriteFile(privateKeyPath, []byte(identity.String()+"\n"), 0o600); err != nil {
		return fmt.Errorf("writing private key: %w", err)
	}
	if err := os.WriteFile(publicKeyPath, []byte(identity.Recipient().String()+"\n"), 0o644); err != nil {
		return fmt.Errorf("writing public key: %w", err)
	}
	return nil
}

func loadRecipient(path string) (age.Recipient, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading public key: %w", err)
	}
	recipients, err := age.ParseRecipients(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing public key: %w", err)
	}
	if len(recipients) == 0 {
		return nil, fmt.Errorf("no recipients found in %s", path)
	}
	return recipients[0], nil
}

func loadIdentity(path string) (age.Identity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading private key: %w", err)
	}
	identities, err := age.ParseIdentities(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}
	if len(identities) == 0 {
		return nil, fmt.Errorf("no identities found in %s", path)
	}
	return identities[0], nil
}

var _ talentflow.BlobStore = (*EncryptedStore)(nil)
