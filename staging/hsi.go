package staging

import (
	"fmt"
	"log/slog"
	"os/exec"
)

// Retrieves files from an HPSS tape archive using the hsi command-line
// client, which must be on the PATH and configured for unattended
// authentication. hsi has no batch get, so files are pulled one at a time.
func hsiRetrieve(transfers []FileTransfer) error {
	hsiPath, err := exec.LookPath("hsi")
	if err != nil {
		return &TransferFailedError{
			ResourceType: "hsi",
			Message:      "the hsi client is not available",
		}
	}

	for _, transfer := range transfers {
		slog.Debug(fmt.Sprintf("hsi get %s : %s", transfer.LocalPath, transfer.RemotePath))
		cmd := exec.Command(hsiPath, fmt.Sprintf("get %s : %s",
			transfer.LocalPath, transfer.RemotePath))
		if output, err := cmd.CombinedOutput(); err != nil {
			return &TransferFailedError{
				ResourceType: "hsi",
				RemotePath:   transfer.RemotePath,
				Message:      fmt.Sprintf("%s (%s)", err, string(output)),
			}
		}
	}
	return nil
}
