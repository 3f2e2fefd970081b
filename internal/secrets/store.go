// Package secrets keeps bank session credentials in a per-user file (0600)
// with AES-GCM obfuscation. Not a replacement for OS keychains but avoids
// plain-text config.
package secrets

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
	"runtime"
	"strings"
)

const fileName = "credentials.json"

// ErrNotFound is returned when no credentials are stored for an institution.
var ErrNotFound = errors.New("credentials not found")

type secretFile struct {
	Credentials map[string]string `json:"credentials"` // institution -> base64(ciphertext of JSON map)
}

// StoreCredentials saves the opaque credentials blob of institution,
// replacing any previous one.
func StoreCredentials(institution string, creds map[string]string) error {
	if institution = norm(institution); institution == "" {
		return fmt.Errorf("institution required")
	}
	path, err := filePath()
	if err != nil {
		return err
	}
	sf, err := load(path)
	if err != nil {
		return err
	}
	if sf.Credentials == nil {
		sf.Credentials = map[string]string{}
	}
	plain, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	ct, err := encrypt(plain)
	if err != nil {
		return err
	}
	sf.Credentials[institution] = base64.StdEncoding.EncodeToString(ct)
	return save(path, sf)
}

// FetchCredentials returns the blob stored for institution.
func FetchCredentials(institution string) (map[string]string, error) {
	if institution = norm(institution); institution == "" {
		return nil, fmt.Errorf("institution required")
	}
	path, err := filePath()
	if err != nil {
		return nil, err
	}
	sf, err := load(path)
	if err != nil {
		return nil, err
	}
	enc, ok := sf.Credentials[institution]
	if !ok {
		return nil, fmt.Errorf("%s: %w", institution, ErrNotFound)
	}
	raw, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return nil, err
	}
	pt, err := decrypt(raw)
	if err != nil {
		return nil, fmt.Errorf("decrypt %s credentials: %w", institution, err)
	}
	var creds map[string]string
	if err := json.Unmarshal(pt, &creds); err != nil {
		return nil, err
	}
	return creds, nil
}

func DeleteCredentials(institution string) error {
	if institution = norm(institution); institution == "" {
		return fmt.Errorf("institution required")
	}
	path, err := filePath()
	if err != nil {
		return err
	}
	sf, err := load(path)
	if err != nil {
		return err
	}
	delete(sf.Credentials, institution)
	return save(path, sf)
}

func filePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	dir = filepath.Join(dir, "finsync")
	if err := os.MkdirAll(dir, 0o700); err != nil { // restrict directory
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

func load(path string) (secretFile, error) {
	var sf secretFile
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return secretFile{}, nil
		}
		return sf, err
	}
	if err := json.Unmarshal(data, &sf); err != nil {
		return sf, err
	}
	return sf, nil
}

func save(path string, sf secretFile) error {
	data, err := json.MarshalIndent(sf, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func norm(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}

func masterKey() []byte {
	base := fmt.Sprintf("finsync-%s-%s", runtime.GOOS, os.Getenv("USER"))
	hash := sha256.Sum256([]byte(base))
	return hash[:]
}

func newGCM() (cipher.AEAD, error) {
	block, err := aes.NewCipher(masterKey())
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func encrypt(plain []byte) ([]byte, error) {
	gcm, err := newGCM()
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plain, nil), nil
}

func decrypt(ciphertext []byte) ([]byte, error) {
	gcm, err := newGCM()
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce := ciphertext[:gcm.NonceSize()]
	body := ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, body, nil)
}
