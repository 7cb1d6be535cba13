package processor

import (
	"path/filepath"
)

// determineScanFolder maps a changed file to the folder a user would
// recognize as the recording location.
//
// DCF cameras spill recordings into a fresh numbered media directory once
// the current one fills up (100GOPRO, 101GOPRO, ...). Chapters of one
// session can land in two of them, so changes inside numbered media
// directories are grouped under the parent:
//
//	/footage/card1/DCIM/101GOPRO/GX020153.MP4 -> /footage/card1/DCIM
func determineScanFolder(filePath string) string {
	dir := filepath.Dir(filePath)

	if isMediaDir(filepath.Base(dir)) {
		return filepath.Dir(dir)
	}

	return dir
}

// isMediaDir checks whether a directory name follows the DCF media
// directory pattern: a directory number in 100-999 followed by up to five
// free characters (100GOPRO, 101MSDCF, 100_PANA).
func isMediaDir(name string) bool {
	if len(name) < 4 || len(name) > 8 {
		return false
	}

	if name[0] < '1' || name[0] > '9' {
		return false
	}
	for i := 1; i < 3; i++ {
		if name[i] < '0' || name[i] > '9' {
			return false
		}
	}

	for i := 3; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'A' && c <= 'Z':
		case c >= 'a' && c <= 'z':
		case c == '_':
		default:
			return false
		}
	}

	return true
}
