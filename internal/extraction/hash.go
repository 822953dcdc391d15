package extraction

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
)

// HashAlgorithm names the content hash used for duplicate detection.
const HashAlgorithm = "sha256"

// hashFile streams the file through SHA-256 and returns the hex digest and
// the measured byte size.
func hashFile(path string) (string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer file.Close()

	hasher := sha256.New()
	size, err := io.Copy(hasher, file)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(hasher.Sum(nil)), size, nil
}
