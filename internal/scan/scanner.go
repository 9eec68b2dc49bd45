package scan

import (
	"os"
	"path/filepath"
	"strings"
)

type FileInfo struct {
	Path  string
	Key   string // relative path without extension, stable across re-scans
	Name  string // human-readable chat name derived from the file name
	Mtime int64
	Size  int64
}

// ScanRoot walks the export root for .txt chat exports.
func ScanRoot(root string) ([]FileInfo, error) {
	var files []FileInfo
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip unreadable dirs
		}
		if info.IsDir() {
			if strings.HasPrefix(filepath.Base(path), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".txt" {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		files = append(files, FileInfo{
			Path:  path,
			Key:   strings.TrimSuffix(filepath.ToSlash(rel), ".txt"),
			Name:  ChatName(path),
			Mtime: info.ModTime().Unix(),
			Size:  info.Size(),
		})
		return nil
	})
	if os.IsNotExist(err) {
		return nil, nil
	}
	return files, err
}

// ChatName derives a display name from an export file name, e.g.
// "WhatsApp Chat with Alice.txt" -> "Alice", "_chat.txt" -> parent dir.
func ChatName(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), ".txt")
	if strings.HasPrefix(base, "WhatsApp Chat with ") {
		return strings.TrimPrefix(base, "WhatsApp Chat with ")
	}
	// iOS exports unzip to "<Chat name>/_chat.txt"
	if base == "_chat" {
		return filepath.Base(filepath.Dir(path))
	}
	return base
}
