// Package keyring stores the account token.
// It uses the system keyring when available, falling back to
// encrypted local file storage when not.
package keyring

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/zalando/go-keyring"

	"github.com/yllada/vpn-connect/common"
)

const (
	// ServiceName is the identifier used in the system keyring.
	ServiceName = common.ConfigDirName

	accountTokenKey = "account-token"
	probeKey        = "vpn-connect-probe"
	localFileName   = ".credentials"
)

// Store keeps credentials in the system keyring or, when the keyring
// service is unavailable, in an encrypted file. It implements
// common.TokenStore.
type Store struct {
	service string

	mu        sync.RWMutex
	useLocal  bool
	local     map[string]string
	localFile string
	key       []byte
}

// NewStore probes the system keyring. dir holds the fallback file and is
// only touched when the keyring is unavailable.
func NewStore(service, dir string) *Store {
	s := &Store{service: service, localFile: filepath.Join(dir, localFileName)}

	if err := keyring.Set(service, probeKey, "probe"); err != nil {
		common.LogWarn("System keyring unavailable, using local storage: %v", err)
		s.initLocal()
		return s
	}
	_ = keyring.Delete(service, probeKey)
	return s
}

// UsesLocalStorage reports whether the encrypted file fallback is active.
func (s *Store) UsesLocalStorage() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.useLocal
}

// AccountToken returns the stored account token.
func (s *Store) AccountToken() (string, error) {
	return s.get(accountTokenKey)
}

// SetAccountToken saves the account token.
func (s *Store) SetAccountToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("%w: token cannot be empty", common.ErrCredentialStorage)
	}
	return s.set(accountTokenKey, token)
}

// ClearAccountToken removes the account token. Clearing a missing token
// is not an error.
func (s *Store) ClearAccountToken() error {
	return s.delete(accountTokenKey)
}

func (s *Store) get(key string) (string, error) {
	if s.UsesLocalStorage() {
		return s.getLocal(key)
	}

	value, err := keyring.Get(s.service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", common.ErrCredentialsNotFound
		}
		// Fall back to anything saved while the keyring was down.
		return s.getLocal(key)
	}
	return value, nil
}

func (s *Store) set(key, value string) error {
	if !s.UsesLocalStorage() {
		err := keyring.Set(s.service, key, value)
		if err == nil {
			return nil
		}
		common.LogWarn("Keyring write failed, switching to local storage: %v", err)
		s.initLocal()
	}

	s.mu.Lock()
	s.local[key] = value
	s.mu.Unlock()
	return s.saveLocal()
}

func (s *Store) delete(key string) error {
	if !s.UsesLocalStorage() {
		if err := keyring.Delete(s.service, key); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("%w: %v", common.ErrCredentialStorage, err)
		}
	}

	s.mu.Lock()
	_, present := s.local[key]
	delete(s.local, key)
	s.mu.Unlock()
	if present {
		return s.saveLocal()
	}
	return nil
}

func (s *Store) getLocal(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.local[key]
	if !ok {
		return "", common.ErrCredentialsNotFound
	}
	return value, nil
}

func (s *Store) initLocal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.useLocal {
		return
	}
	s.useLocal = true

	// Encryption key derived from machine-specific data
	hostname, _ := os.Hostname()
	keyData := fmt.Sprintf("%s-%s-%s-%d", s.service, hostname, machineID(), os.Getuid())
	hash := sha256.Sum256([]byte(keyData))
	s.key = hash[:]

	s.local = make(map[string]string)
	data, err := os.ReadFile(s.localFile)
	if err != nil {
		return
	}
	plain, err := decrypt(s.key, data)
	if err != nil {
		common.LogWarn("Ignoring unreadable credential file %s: %v", s.localFile, err)
		return
	}
	if err := json.Unmarshal(plain, &s.local); err != nil {
		common.LogWarn("Ignoring malformed credential file %s: %v", s.localFile, err)
		s.local = make(map[string]string)
	}
}

func (s *Store) saveLocal() error {
	s.mu.RLock()
	data, err := json.Marshal(s.local)
	key := s.key
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrCredentialStorage, err)
	}

	encrypted, err := encrypt(key, data)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrCredentialStorage, err)
	}
	if err := os.MkdirAll(filepath.Dir(s.localFile), 0700); err != nil {
		return fmt.Errorf("%w: %v", common.ErrCredentialStorage, err)
	}
	if err := os.WriteFile(s.localFile, encrypted, 0600); err != nil {
		return fmt.Errorf("%w: %v", common.ErrCredentialStorage, err)
	}
	return nil
}

func machineID() string {
	data, err := os.ReadFile("/etc/machine-id")
	if err == nil {
		return strings.TrimSpace(string(data))
	}
	return "default-machine-id"
}

func encrypt(key, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	ciphertext := gcm.Seal(nonce, nonce, plaintext, nil)
	return []byte(base64.StdEncoding.EncodeToString(ciphertext)), nil
}

func decrypt(key, data []byte) ([]byte, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(string(data))
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, nil)
}
