package collections

import (
	"crypto/md5"
	"encoding/hex"
	"io"
	"os"
)

// Computes the hex-encoded MD5 digest of the named file. This is the value
// stored in a definition file's .md5 sibling in the remote repository.
func FileChecksum(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := md5.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
