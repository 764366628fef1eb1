package handlers

import (
	"strings"
)

const defaultMIMEType = "application/octet-stream"

// MIMETable maps a lower-case file extension (no dot) to a content type.
type MIMETable map[string]string

func DefaultMIMETable() MIMETable {
	return MIMETable{
		"jpeg":  "image/jpeg",
		"jpg":   "image/jpeg",
		"jfif":  "image/jpeg",
		"pjpeg": "image/jpeg",
		"pjp":   "image/jpeg",
		"png":   "image/png",
		"ogg":   "audio/ogg",
		"mpeg":  "audio/mpeg",
		"pdf":   "application/pdf",
		"css":   "text/css",
		"html":  "text/html",
		"js":    "text/javascript",
	}
}

// With returns a copy of t with extra merged over it.
func (t MIMETable) With(extra map[string]string) MIMETable {
	m := make(MIMETable, len(t)+len(extra))
	for k, v := range t {
		m[k] = v
	}
	for k, v := range extra {
		m[strings.ToLower(k)] = v
	}
	return m
}

// Lookup returns the content type for name by its last extension.
func (t MIMETable) Lookup(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i == -1 || strings.ContainsRune(name[i:], '/') {
		return defaultMIMEType
	}
	if ct, ok := t[strings.ToLower(name[i+1:])]; ok {
		return ct
	}
	return defaultMIMEType
}
