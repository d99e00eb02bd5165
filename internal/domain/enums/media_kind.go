package enums

import (
	"path"
	"strings"
)

type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
)

var videoExtensions = map[string]struct{}{
	".mp4":  {},
	".mov":  {},
	".webm": {},
	".avi":  {},
	".mkv":  {},
}

// MediaKindForKey classifies a storage key by its extension.
func MediaKindForKey(key string) MediaKind {
	ext := strings.ToLower(path.Ext(strings.TrimSpace(key)))
	if _, ok := videoExtensions[ext]; ok {
		return MediaKindVideo
	}
	return MediaKindImage
}
