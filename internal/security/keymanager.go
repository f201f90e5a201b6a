package security

import (
	"crypto/sha256"
	"fmt"
	"os"
)

// KeyManager derives the fixed-size keys used for database, field and backup
// encryption from the configured passphrases.
type KeyManager struct {
	dbKey     []byte
	appKey    []byte
	backupKey []byte
}

// NewKeyManager creates a new key manager
func NewKeyManager(dbKeyStr, appKeyStr, backupKeyStr string) *KeyManager {
	return &KeyManager{
		dbKey:     deriveKey(dbKeyStr),
		appKey:    deriveKey(appKeyStr),
		backupKey: deriveKey(backupKeyStr),
	}
}

// DBKey returns the database encryption key as the hex-safe passphrase form
// expected by the SQLCipher DSN.
func (km *KeyManager) DBKey() string {
	return fmt.Sprintf("%x", km.dbKey)
}

// AppKey returns the 32-byte field encryption key
func (km *KeyManager) AppKey() []byte {
	return km.appKey
}

// BackupKey returns the 32-byte backup encryption key
func (km *KeyManager) BackupKey() []byte {
	return km.backupKey
}

// deriveKey derives a 32-byte key from a string using SHA-256
func deriveKey(keyStr string) []byte {
	hash := sha256.Sum256([]byte(keyStr))
	return hash[:]
}

// LoadKeyFromEnv loads encryption key from environment variable
func LoadKeyFromEnv(envVar string) (string, error) {
	key := os.Getenv(envVar)
	if key == "" {
		return "", fmt.Errorf("environment variable %s not set", envVar)
	}

	if len(key) < 32 {
		return "", fmt.Errorf("key too short (minimum 32 characters)")
	}

	return key, nil
}
