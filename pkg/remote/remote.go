// Package remote mirrors staged listing images to the public image
// host over rsync/ssh. The operations are opaque side effects; their
// failures propagate to the caller unchanged.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"

	"github.com/propertypartner/social-pipeline/pkg/staging"
)

// Transfer runs uploads and deletions against one remote host.
type Transfer struct {
	host      string
	remoteDir string
	localDir  string
	logger    *slog.Logger
}

func NewTransfer(host, remoteDir, localDir string, logger *slog.Logger) *Transfer {
	return &Transfer{host: host, remoteDir: remoteDir, localDir: localDir, logger: logger}
}

// UploadDir rsyncs one listing's staging directory to the server.
// --delete removes any stale files from a previous run of the same
// listing.
func (t *Transfer) UploadDir(ctx context.Context, dirName string) error {
	if err := staging.ValidateDirName(dirName); err != nil {
		return err
	}
	local := filepath.Join(t.localDir, dirName)
	t.logger.Info("Uploading staging dir", "dir", dirName, "host", t.host)
	return t.run(ctx, "rsync", "-az", "--delete", local+"/",
		fmt.Sprintf("%s:%s/%s/", t.host, t.remoteDir, dirName))
}

// DeleteRemoteDir removes one listing's images from the server.
func (t *Transfer) DeleteRemoteDir(ctx context.Context, dirName string) error {
	if err := staging.ValidateDirName(dirName); err != nil {
		return err
	}
	t.logger.Info("Deleting remote staging dir", "dir", dirName, "host", t.host)
	return t.run(ctx, "ssh", t.host, "rm", "-rf",
		fmt.Sprintf("%s/%s", t.remoteDir, dirName))
}

func (t *Transfer) run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w: %s", name, err, stderr.String())
	}
	return nil
}
