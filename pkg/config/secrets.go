package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/scrypt"
)

// Encrypted secrets file: [salt][nonce][ciphertext], AES-256-GCM with a
// scrypt-derived key. API keys never live in the config file itself.
const (
	SecretsFilename = "secrets.enc"

	scryptN  = 32768
	scryptR  = 8
	scryptP  = 1
	keySize  = 32
	saltSize = 16
	nonceSize = 12
)

//nolint:gochecknoglobals // Decrypted secrets cache for the process lifetime
var (
	secretsMu    sync.RWMutex
	secretsCache map[string]string
)

// deriveKey derives an AES-256 key from a passphrase and salt via scrypt.
func deriveKey(passphrase string, salt []byte) ([]byte, error) {
	key, err := scrypt.Key([]byte(passphrase), salt, scryptN, scryptR, scryptP, keySize)
	if err != nil {
		return nil, fmt.Errorf("key derivation failed: %w", err)
	}
	return key, nil
}

// EncryptSecretsFile encrypts the secrets map with the passphrase and writes
// it to path with 0600 permissions.
func EncryptSecretsFile(path, passphrase string, secrets map[string]string) error {
	plaintext, err := json.Marshal(secrets)
	if err != nil {
		return fmt.Errorf("failed to marshal secrets: %w", err)
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}

	key, err := deriveKey(passphrase, salt)
	if err != nil {
		return err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	out := make([]byte, 0, saltSize+nonceSize+len(ciphertext))
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, ciphertext...)

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create secrets directory: %w", err)
	}
	if err := os.WriteFile(path, out, 0o600); err != nil {
		return fmt.Errorf("failed to write secrets file: %w", err)
	}
	return nil
}

// DecryptSecretsFile reads and decrypts the secrets file at path.
func DecryptSecretsFile(path, passphrase string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secrets file: %w", err)
	}
	if len(data) < saltSize+nonceSize+1 {
		return nil, fmt.Errorf("secrets file too short: %d bytes", len(data))
	}

	salt := data[:saltSize]
	nonce := data[saltSize : saltSize+nonceSize]
	ciphertext := data[saltSize+nonceSize:]

	key, err := deriveKey(passphrase, salt)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed (wrong passphrase?): %w", err)
	}

	var secrets map[string]string
	if err := json.Unmarshal(plaintext, &secrets); err != nil {
		return nil, fmt.Errorf("failed to unmarshal secrets: %w", err)
	}
	return secrets, nil
}

// LoadSecrets decrypts the secrets file and caches the contents for the
// process lifetime. Call once at startup if an encrypted secrets file is used;
// otherwise GetSecret falls back to the environment alone.
func LoadSecrets(path, passphrase string) error {
	secrets, err := DecryptSecretsFile(path, passphrase)
	if err != nil {
		return err
	}
	secretsMu.Lock()
	secretsCache = secrets
	secretsMu.Unlock()
	getLogger().Info("Loaded %d secrets from %s", len(secrets), path)
	return nil
}

// SetSecretsForTest installs a secrets map directly. Only for use in tests.
func SetSecretsForTest(secrets map[string]string) {
	secretsMu.Lock()
	defer secretsMu.Unlock()
	secretsCache = secrets
}

// GetSecret returns the named secret, checking the decrypted secrets cache
// first, then the environment.
func GetSecret(name string) (string, error) {
	secretsMu.RLock()
	if secretsCache != nil {
		if v, ok := secretsCache[name]; ok && v != "" {
			secretsMu.RUnlock()
			return v, nil
		}
	}
	secretsMu.RUnlock()

	if v := os.Getenv(name); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("secret %s not found in secrets file or environment", name)
}

// DefaultSecretsPath returns the per-user secrets file path.
func DefaultSecretsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, UserConfigDir, SecretsFilename), nil
}
