package core

import (
	"os"
	"time"
)

// simpleFileInfo is a synthetic os.FileInfo for tree nodes that describe
// files which do not exist on disk yet.
type simpleFileInfo struct {
	name  string
	isDir bool
}

// NewSimpleFileInfo builds an os.FileInfo for a planned file or directory.
func NewSimpleFileInfo(name string, isDir bool) os.FileInfo {
	return simpleFileInfo{name: name, isDir: isDir}
}

func (s simpleFileInfo) Name() string { return s.name }
func (s simpleFileInfo) Size() int64  { return 0 }
func (s simpleFileInfo) Mode() os.FileMode {
	if s.isDir {
		return os.ModeDir | 0755
	}
	return 0644
}
func (s simpleFileInfo) ModTime() time.Time { return time.Time{} }
func (s simpleFileInfo) IsDir() bool        { return s.isDir }
func (s simpleFileInfo) Sys() any           { return nil }
