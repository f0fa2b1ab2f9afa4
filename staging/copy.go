package staging

import (
	"io"
	"os"
)

// Makes files that are already visible on the local filesystem available in
// the data cache. A symlink is preferred; if the filesystem refuses one, the
// file is copied instead.
func copyToCache(transfers []FileTransfer) error {
	for _, transfer := range transfers {
		if err := os.Symlink(transfer.RemotePath, transfer.LocalPath); err == nil {
			continue
		}
		if err := copyFile(transfer.RemotePath, transfer.LocalPath); err != nil {
			return &TransferFailedError{
				ResourceType: "copy-to-cache",
				RemotePath:   transfer.RemotePath,
				Message:      err.Error(),
			}
		}
	}
	return nil
}

func copyFile(srcPath, dstPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(dstPath)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}
