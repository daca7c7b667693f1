package cropimage

import (
	"os"
	"path/filepath"
)

const (
	NoStorage  = -1
	CannotStat = -2

	// bytesPerPicture is a rough size for one saved crop.
	bytesPerPicture = 400000
)

// StorageRoots are the candidate locations for saved crops. External is
// preferred when it is mounted (an existing directory).
type StorageRoots struct {
	External string
	Private  string
}

// DefaultStorageRoots uses $EXTERNAL_STORAGE when set and the user cache
// directory as the private fallback.
func DefaultStorageRoots() StorageRoots {
	roots := StorageRoots{External: os.Getenv("EXTERNAL_STORAGE")}
	if dir, err := os.UserCacheDir(); err == nil {
		roots.Private = filepath.Join(dir, "cropimage")
	} else {
		roots.Private = os.TempDir()
	}
	return roots
}

func isDir(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Dir returns the root a remaining-space estimate should use, or "" when
// neither root exists.
func (r StorageRoots) Dir() string {
	if isDir(r.External) {
		return r.External
	}
	if isDir(r.Private) {
		return r.Private
	}
	return ""
}

func (r StorageRoots) PicturesRemaining() int {
	dir := r.Dir()
	if dir == "" {
		return NoStorage
	}
	return PicturesRemaining(dir)
}

// PicturesRemaining estimates how many more crops fit in dir. It is a
// heuristic; CannotStat means the filesystem could not be queried.
func PicturesRemaining(dir string) int {
	avail, err := availableBytes(dir)
	if err != nil {
		return CannotStat
	}
	return int(avail / bytesPerPicture)
}

// StorageWarning is the user message for a remaining count, or "" when
// there is room.
func StorageWarning(remaining int) string {
	switch {
	case remaining == NoStorage:
		return "No hay almacenamiento disponible"
	case remaining == CannotStat:
		return "No se pudo determinar el espacio disponible"
	case remaining < 1:
		return "No hay espacio suficiente"
	}
	return ""
}
