package project

import (
	"path"
	"strings"
)

// ignoreExtensions are suffixes that are never diffed, uploaded, or deleted.
// QGIS/GeoPackage lock and journal files, editor swap files, compiled
// Python bytecode.
var ignoreExtensions = []string{
	"~",
	".gpkg-shm",
	".gpkg-wal",
	".qgs~",
	".qgz~",
	".pyc",
}

// ignoreNames are exact basenames that are never diffed, uploaded, or
// deleted.
var ignoreNames = map[string]struct{}{
	".DS_Store":  {},
	".directory": {},
}

// IsIgnored reports whether p should be excluded from all sync logic. Pure;
// no filesystem access.
func IsIgnored(p string) bool {
	base := path.Base(p)

	if _, ok := ignoreNames[base]; ok {
		return true
	}

	for _, ext := range ignoreExtensions {
		if strings.HasSuffix(base, ext) {
			return true
		}
	}

	return false
}
