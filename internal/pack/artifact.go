package pack

import (
	"fmt"
	"os"
	"path/filepath"

	"depaudit/internal/audit"
	"depaudit/internal/types"
)

// WriteArtifact writes data to path by writing a temp file in the same
// directory, syncing it, and renaming it over the destination. The downstream
// compile step reads the file as soon as its path is published, so it must
// never observe a partial file.
func WriteArtifact(path string, data []byte) error {
	if err := atomicWriteFile(path, data, 0o644); err != nil {
		return types.NewAppError(
			types.ErrCodePackageWrite,
			fmt.Sprintf("failed to write artifact %s", path),
			err,
		)
	}
	return nil
}

// ReadArtifact reads and decodes the artifact at path.
func ReadArtifact(path string) (*audit.VersionInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.NewAppError(
			types.ErrCodePackageRead,
			fmt.Sprintf("failed to read artifact %s", path),
			err,
		)
	}
	return Decode(data)
}

func atomicWriteFile(path string, content []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	tmp, err := os.CreateTemp(dir, base+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
