package storage

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxExtLen = 16

// GenerateFilename returns field-<unix millis>-<random hex><ext>. The random
// part makes collisions between concurrent uploads practically impossible.
func GenerateFilename(field, originalName string, now time.Time) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%s-%d-%s%s", field, now.UnixMilli(), random, safeExt(originalName))
}

// safeExt keeps the original extension only when it is short and alphanumeric.
func safeExt(name string) string {
	ext := filepath.Ext(filepath.Base(strings.ReplaceAll(name, "\\", "/")))
	if len(ext) < 2 || len(ext) > maxExtLen {
		return ""
	}
	for _, r := range ext[1:] {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !isAlnum {
			return ""
		}
	}
	return ext
}
