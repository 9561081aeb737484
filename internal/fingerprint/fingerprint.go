// Package fingerprint computes and compares the file identity tuple used to
// gate resumption (C8): a job may only resume against the same bytes it was
// created against.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/nanichang/employee-import-engine/internal/models"
)

// Compute hashes path's contents and reads its size/mtime, producing the
// Fingerprint stored alongside a job at creation time (§4.8).
func Compute(path string) (models.Fingerprint, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.Fingerprint{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return models.Fingerprint{}, err
	}

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return models.Fingerprint{}, fmt.Errorf("hash file: %w", err)
	}

	return models.Fingerprint{
		FileSize:         info.Size(),
		FileHash:         hex.EncodeToString(h.Sum(nil)),
		FileLastModified: info.ModTime().UTC(),
	}, nil
}

// Matches reports whether a freshly computed fingerprint is identical to
// the one recorded on the job. All three fields must agree exactly (§4.8,
// §4.9 integrity_check).
func Matches(recorded, current models.Fingerprint) bool {
	return recorded.FileSize == current.FileSize &&
		recorded.FileHash == current.FileHash &&
		recorded.FileLastModified.Equal(current.FileLastModified)
}
