package fs

// Session token storage between CLI runs
// Saved as <dataDir>/token.json, readable by the owner only

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const tokenFileName = "token.json"

// ErrNoToken is returned by LoadToken when nothing has been saved yet.
var ErrNoToken = errors.New("no saved session token")

// TokenFile is the on-disk session.
type TokenFile struct {
	AccessToken string `json:"accessToken"`
	Email       string `json:"email,omitempty"`
	ExpiresAt   int64  `json:"expiresAt,omitempty"` // unix seconds, 0 when unknown
	SavedAt     int64  `json:"savedAt"`
}

// Expired reports whether a known expiry lies before now.
func (t *TokenFile) Expired(now time.Time) bool {
	return t.ExpiresAt > 0 && now.Unix() >= t.ExpiresAt
}

// TokenPath returns where the token is kept for dataDir.
func TokenPath(dataDir string) string {
	return filepath.Join(dataDir, tokenFileName)
}

// SaveToken writes tf to dataDir, creating the directory if needed.
func SaveToken(dataDir string, tf TokenFile) (string, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	if tf.SavedAt == 0 {
		tf.SavedAt = time.Now().Unix()
	}

	jsonData, err := json.MarshalIndent(tf, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal token file: %w", err)
	}

	filename := TokenPath(dataDir)
	if err := os.WriteFile(filename, jsonData, 0600); err != nil {
		return "", fmt.Errorf("failed to save token file: %w", err)
	}
	return filename, nil
}

// LoadToken reads the saved session, ErrNoToken if there is none.
func LoadToken(dataDir string) (*TokenFile, error) {
	data, err := os.ReadFile(TokenPath(dataDir))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var tf TokenFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token file: %w", err)
	}
	if tf.AccessToken == "" {
		return nil, ErrNoToken
	}
	return &tf, nil
}

// DeleteToken removes the saved session. Deleting a missing file is not an error.
func DeleteToken(dataDir string) error {
	err := os.Remove(TokenPath(dataDir))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete token file: %w", err)
	}
	return nil
}
