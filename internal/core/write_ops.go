package core

import (
	"fmt"
	"os"

	"github.com/Digital-Shane/csv-notes/internal/log"
	"github.com/Digital-Shane/csv-notes/internal/note"
)

// CreateNote renders the frontmatter for a planned row and writes it to the
// destination path. Returns nil only when a new file landed on disk.
func CreateNote(rm *RowMeta, columns []string) error {
	destPath := rm.DestPath

	content, err := note.Render(columns, rm.Record)
	if err != nil {
		log.LogCreateFile(destPath, false, err)
		return rm.Fail(err)
	}

	// The planner probed for collisions, but the directory may have changed
	// since. Never overwrite.
	if _, err := os.Stat(destPath); err == nil {
		err := fmt.Errorf("destination already exists")
		log.LogCreateFile(destPath, false, err)
		return rm.Fail(err)
	}

	if err := os.WriteFile(destPath, []byte(content), 0644); err != nil {
		log.LogCreateFile(destPath, false, err)
		return rm.Fail(err)
	}

	log.LogCreateFile(destPath, true, nil)
	rm.Success()
	return nil
}

// EnsureOutputDir creates the output directory when missing. Creation is
// logged so undo can remove the directory again; a directory that already
// existed is left unlogged and untouched.
func EnsureOutputDir(path string) error {
	if info, err := os.Stat(path); err == nil {
		if !info.IsDir() {
			return fmt.Errorf("output path %s is not a directory", path)
		}
		return nil
	}

	if err := os.MkdirAll(path, 0755); err != nil {
		log.LogCreateDir(path, false, err)
		return err
	}
	log.LogCreateDir(path, true, nil)
	return nil
}
