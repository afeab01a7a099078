// Package archive holds the blob backends that receive evicted artifacts and
// the Archiver that serializes artifacts into them.
package archive

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrNotFound is returned by Get when no object exists under the key.
var ErrNotFound = errors.New("archive object not found")

// validateKey rejects keys that could escape a store's namespace.
func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("empty archive key")
	}
	if strings.HasPrefix(key, "/") || path.Clean(key) != key || strings.HasPrefix(key, "..") {
		return fmt.Errorf("invalid archive key: %q", key)
	}
	return nil
}
