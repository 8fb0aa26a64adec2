// Package format turns entity fields into display strings. Everything here is
// a pure lookup or formatting function.
package format

import (
	"math"
	"strconv"
	"strings"
	"time"
)

var sizeUnits = []string{"Bytes", "KB", "MB", "GB", "TB"}

// FileSize formats bytes with 1024-based units and up to two decimals,
// e.g. 1536 -> "1.5 KB".
func FileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	i := 0
	for n := bytes; n >= 1024 && i < len(sizeUnits)-1; n /= 1024 {
		i++
	}
	v := float64(bytes) / math.Pow(1024, float64(i))
	v = math.Round(v*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + sizeUnits[i]
}

// DateLayout is the layout used by Date.
const DateLayout = "02 Jan 2006, 15:04"

// Date formats a timestamp in local time.
func Date(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(DateLayout)
}

var icons = map[string]string{
	"pdf": "📄", "doc": "📝", "docx": "📝",
	"xls": "📊", "xlsx": "📊", "ppt": "📊", "pptx": "📊",
	"jpg": "🖼️", "jpeg": "🖼️", "png": "🖼️", "gif": "🖼️", "webp": "🖼️",
	"mp4": "🎥", "avi": "🎥", "mov": "🎥",
	"mp3": "🎵", "wav": "🎵",
	"zip": "📦", "rar": "📦",
	"txt": "📃", "md": "📃",
	"json": "📋", "xml": "📋",
	"html": "🌐", "css": "🎨",
	"js": "⚡", "ts": "⚡",
}

// FolderIcon is shown for folders.
const FolderIcon = "📁"

// FileIcon returns the icon for an extension. Unknown or missing extensions
// get a generic document icon.
func FileIcon(ext *string) string {
	if ext != nil {
		if icon, ok := icons[strings.ToLower(*ext)]; ok {
			return icon
		}
	}
	return "📄"
}

var mimeTypes = map[string]string{
	"pdf":  "application/pdf",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"xls":  "application/vnd.ms-excel",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"ppt":  "application/vnd.ms-powerpoint",
	"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"mp4":  "video/mp4",
	"avi":  "video/x-msvideo",
	"mov":  "video/quicktime",
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"zip":  "application/zip",
	"rar":  "application/x-rar-compressed",
	"txt":  "text/plain",
	"md":   "text/markdown",
	"json": "application/json",
	"xml":  "application/xml",
	"html": "text/html",
	"css":  "text/css",
	"js":   "text/javascript",
	"ts":   "text/typescript",
}

// DefaultMimeType is returned for unknown extensions.
const DefaultMimeType = "application/octet-stream"

// MimeType maps an extension to its MIME type.
func MimeType(ext *string) string {
	if ext != nil {
		if mt, ok := mimeTypes[strings.ToLower(*ext)]; ok {
			return mt
		}
	}
	return DefaultMimeType
}

// Extension derives the lower-cased extension of a file name without the
// leading dot. Names without a dot, or ending in one, have no extension.
func Extension(name string) *string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 || i == len(name)-1 {
		return nil
	}
	ext := strings.ToLower(name[i+1:])
	return &ext
}
