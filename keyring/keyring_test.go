package keyring

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zalando/go-keyring"

	"github.com/yllada/vpn-connect/common"
)

func TestStore_SystemKeyring(t *testing.T) {
	keyring.MockInit()
	s := NewStore("vpn-connect-test", t.TempDir())

	if s.UsesLocalStorage() {
		t.Fatal("mock keyring should be used")
	}
	if _, err := s.AccountToken(); !errors.Is(err, common.ErrCredentialsNotFound) {
		t.Errorf("AccountToken() on empty store error = %v", err)
	}

	if err := s.SetAccountToken(" 1234567890123456 "); err != nil {
		t.Fatalf("SetAccountToken() error = %v", err)
	}
	got, err := s.AccountToken()
	if err != nil || got != "1234567890123456" {
		t.Errorf("AccountToken() = %q, %v", got, err)
	}

	if err := s.ClearAccountToken(); err != nil {
		t.Fatalf("ClearAccountToken() error = %v", err)
	}
	if err := s.ClearAccountToken(); err != nil {
		t.Errorf("second ClearAccountToken() error = %v", err)
	}
	if _, err := s.AccountToken(); !errors.Is(err, common.ErrCredentialsNotFound) {
		t.Errorf("AccountToken() after clear error = %v", err)
	}
}

func TestStore_EmptyToken(t *testing.T) {
	keyring.MockInit()
	s := NewStore("vpn-connect-test", t.TempDir())
	for _, token := range []string{"", "   "} {
		if err := s.SetAccountToken(token); !errors.Is(err, common.ErrCredentialStorage) {
			t.Errorf("SetAccountToken(%q) error = %v", token, err)
		}
	}
}

func TestStore_LocalFallback(t *testing.T) {
	keyring.MockInitWithError(errors.New("no secret service"))
	dir := t.TempDir()

	s := NewStore("vpn-connect-test", dir)
	if !s.UsesLocalStorage() {
		t.Fatal("failing keyring should select local storage")
	}
	if err := s.SetAccountToken("secret-token"); err != nil {
		t.Fatalf("SetAccountToken() error = %v", err)
	}

	path := filepath.Join(dir, localFileName)
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("credential file not written: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("credential file mode = %v, want 0600", info.Mode().Perm())
	}
	data, _ := os.ReadFile(path)
	if string(data) == "" || strings.Contains(string(data), "secret-token") {
		t.Error("credential file should be encrypted")
	}

	// a fresh store reads what the first one saved
	reopened := NewStore("vpn-connect-test", dir)
	got, err := reopened.AccountToken()
	if err != nil || got != "secret-token" {
		t.Errorf("reopened AccountToken() = %q, %v", got, err)
	}

	if err := reopened.ClearAccountToken(); err != nil {
		t.Fatal(err)
	}
	if _, err := NewStore("vpn-connect-test", dir).AccountToken(); !errors.Is(err, common.ErrCredentialsNotFound) {
		t.Errorf("token should be gone after clear, err = %v", err)
	}
}

func TestStore_CorruptLocalFile(t *testing.T) {
	keyring.MockInitWithError(errors.New("no secret service"))
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, localFileName), []byte("garbage"), 0600); err != nil {
		t.Fatal(err)
	}

	s := NewStore("vpn-connect-test", dir)
	if _, err := s.AccountToken(); !errors.Is(err, common.ErrCredentialsNotFound) {
		t.Errorf("AccountToken() error = %v", err)
	}
}

func TestEncryptDecrypt(t *testing.T) {
	key := make([]byte, 32)
	enc, err := encrypt(key, []byte("payload"))
	if err != nil {
		t.Fatal(err)
	}
	dec, err := decrypt(key, enc)
	if err != nil || string(dec) != "payload" {
		t.Errorf("decrypt() = %q, %v", dec, err)
	}

	other := make([]byte, 32)
	other[0] = 1
	if _, err := decrypt(other, enc); err == nil {
		t.Error("decrypt() with wrong key should fail")
	}
	if _, err := decrypt(key, []byte("c2hvcnQ=")); err == nil {
		t.Error("decrypt() of short input should fail")
	}
}
