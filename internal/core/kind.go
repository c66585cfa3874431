package core

import (
	"path/filepath"
	"strings"
)

var kindByExtension = map[string]Kind{}

func init() {
	register := func(k Kind, exts ...string) {
		for _, ext := range exts {
			kindByExtension[ext] = k
		}
	}
	register(KindDocument, "pdf", "doc", "docx", "txt", "rtf", "odt", "xlsx", "xls", "csv", "pptx", "ppt", "md")
	register(KindImage, "jpg", "jpeg", "png", "gif", "svg", "webp", "bmp", "ico", "tiff")
	register(KindVideo, "mp4", "mov", "avi", "mkv", "wmv", "flv", "webm", "m4v")
	register(KindAudio, "mp3", "wav", "flac", "ogg", "m4a", "aac", "wma", "aiff")
	register(KindArchive, "zip", "rar", "7z", "tar", "gz", "bz2", "xz")
}

// Extension returns the lower-cased extension of name without the dot.
func Extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// KindFromName classifies a file by its extension. Unknown extensions are KindOther.
func KindFromName(name string) Kind {
	if k, ok := kindByExtension[Extension(name)]; ok {
		return k
	}
	return KindOther
}
