package vdjaggr

import (
	"os/user"
	"path/filepath"
	"strings"

	"github.com/carbocation/pfx"
)

// ExpandHome expands ~ to its proper path, where appropriate.
func ExpandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	usr, err := user.Current()
	if err != nil {
		return "", pfx.Err(err)
	}

	return filepath.Join(usr.HomeDir, path[2:]), nil
}

// ResolvePath expands ~ and anchors relative local paths at dir. gs:// paths
// are returned unchanged.
func ResolvePath(dir, path string) (string, error) {
	if IsGoogleStoragePath(path) || path == "" {
		return path, nil
	}

	path, err := ExpandHome(path)
	if err != nil {
		return "", err
	}

	if filepath.IsAbs(path) || dir == "" {
		return path, nil
	}

	return filepath.Join(dir, path), nil
}
