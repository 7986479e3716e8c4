package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/sceneforge/sceneforge/pkg/errors"
)

// WriteOutput writes data to path atomically. The data lands in a uniquely
// named temp file in the target directory and is renamed over the
// destination, so a watching dev server never picks up a half-written
// component.
func WriteOutput(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(path), uuid.NewString()))
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// wrapFileError maps filesystem errors onto the structured error codes.
func wrapFileError(err error, path string) error {
	if err == nil {
		return nil
	}
	if os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "file %s not found", path)
	}
	if os.IsPermission(err) {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "no permission for %s", path)
	}
	return errors.Wrap(errors.ErrCodeInternal, err, "file operation on %s failed", path)
}
