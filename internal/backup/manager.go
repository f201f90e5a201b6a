package backup

import (
	"compress/gzip"
	"context"
	"crypto/sha256"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/amirk1998/recipe-box/internal/security"
)

// Manager produces encrypted, compressed snapshots of the database on a
// schedule and prunes them by retention age.
type Manager struct {
	db            *sql.DB
	backupDir     string
	encryptor     *security.FieldEncryptor
	retentionDays int
}

// NewManager creates a new backup manager
func NewManager(db *sql.DB, backupDir string, encryptionKey []byte, retentionDays int) (*Manager, error) {
	encryptor, err := security.NewFieldEncryptor(encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize backup encryptor: %w", err)
	}

	// Ensure backup directory exists with secure permissions
	if err := os.MkdirAll(backupDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	return &Manager{
		db:            db,
		backupDir:     backupDir,
		encryptor:     encryptor,
		retentionDays: retentionDays,
	}, nil
}

// CreateBackup creates an encrypted backup
func (m *Manager) CreateBackup() (string, error) {
	timestamp := time.Now().Format("20060102_150405")
	backupFileName := fmt.Sprintf("backup_%s.db", timestamp)
	backupPath := filepath.Join(m.backupDir, backupFileName)

	// Use VACUUM INTO to create backup
	vacuumQuery := fmt.Sprintf("VACUUM INTO '%s'", backupPath)
	if _, err := m.db.Exec(vacuumQuery); err != nil {
		return "", fmt.Errorf("failed to create backup: %w", err)
	}

	// Encrypt and compress the backup
	encryptedPath := backupPath + ".enc.gz"
	if err := m.encryptAndCompressFile(backupPath, encryptedPath); err != nil {
		os.Remove(backupPath)
		return "", fmt.Errorf("failed to encrypt backup: %w", err)
	}

	// Remove unencrypted backup
	os.Remove(backupPath)

	// Set secure file permissions
	if err := os.Chmod(encryptedPath, 0600); err != nil {
		return "", fmt.Errorf("failed to set file permissions: %w", err)
	}

	// Create checksum file
	if err := m.createChecksumFile(encryptedPath); err != nil {
		return "", fmt.Errorf("failed to create checksum: %w", err)
	}

	log.Printf("[Backup] Created: %s", encryptedPath)
	return encryptedPath, nil
}

// encryptAndCompressFile encrypts and compresses a file
func (m *Manager) encryptAndCompressFile(srcPath, dstPath string) error {
	plaintext, err := os.ReadFile(srcPath)
	if err != nil {
		return fmt.Errorf("failed to read source file: %w", err)
	}

	ciphertext, err := m.encryptor.EncryptBytes(plaintext)
	if err != nil {
		return fmt.Errorf("failed to encrypt backup data: %w", err)
	}

	dstFile, err := os.OpenFile(dstPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dstFile.Close()

	// Compress encrypted data
	gzWriter := gzip.NewWriter(dstFile)
	defer gzWriter.Close()

	if _, err := gzWriter.Write(ciphertext); err != nil {
		return fmt.Errorf("failed to write compressed data: %w", err)
	}

	return nil
}

// createChecksumFile creates SHA-256 checksum file
func (m *Manager) createChecksumFile(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}

	hash := sha256.Sum256(data)
	checksumPath := filePath + ".sha256"

	return os.WriteFile(checksumPath, []byte(fmt.Sprintf("%x", hash)), 0600)
}

// VerifyBackup verifies backup integrity
func (m *Manager) VerifyBackup(backupPath string) error {
	checksumPath := backupPath + ".sha256"

	// Read stored checksum
	storedChecksum, err := os.ReadFile(checksumPath)
	if err != nil {
		return fmt.Errorf("failed to read checksum file: %w", err)
	}

	// Calculate current checksum
	data, err := os.ReadFile(backupPath)
	if err != nil {
		return fmt.Errorf("failed to read backup file: %w", err)
	}

	hash := sha256.Sum256(data)
	currentChecksum := fmt.Sprintf("%x", hash)

	if currentChecksum != string(storedChecksum) {
		return fmt.Errorf("checksum mismatch: backup file may be corrupted")
	}

	return nil
}

// CleanOldBackups removes old backups based on retention policy
func (m *Manager) CleanOldBackups() error {
	cutoffTime := time.Now().AddDate(0, 0, -m.retentionDays)

	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		return fmt.Errorf("failed to read backup directory: %w", err)
	}

	deletedCount := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoffTime) {
			filePath := filepath.Join(m.backupDir, entry.Name())
			if err := os.Remove(filePath); err != nil {
				log.Printf("[Backup] Warning: failed to delete %s: %v", filePath, err)
				continue
			}
			deletedCount++
		}
	}

	if deletedCount > 0 {
		log.Printf("[Backup] Cleaned %d old backup files", deletedCount)
	}

	return nil
}

// StartAutomatedBackups starts automated backup scheduler
func (m *Manager) StartAutomatedBackups(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("[Backup] Automated backups started (interval: %v)", interval)

	for {
		select {
		case <-ctx.Done():
			log.Println("[Backup] Stopping automated backups")
			return
		case <-ticker.C:
			if _, err := m.CreateBackup(); err != nil {
				log.Printf("[Backup] Scheduled backup failed: %v", err)
			}

			if err := m.CleanOldBackups(); err != nil {
				log.Printf("[Backup] Cleanup failed: %v", err)
			}
		}
	}
}
