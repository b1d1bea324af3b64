package replay

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// IndexEntry pairs a recording header with the manifest it points at.
type IndexEntry struct {
	HeaderPath   string `json:"header_path"`
	ManifestPath string `json:"manifest_path"`
	Header       Header `json:"header"`
}

// List walks root and returns the header of every cleanly closed recording, ordered by run
// id and then path.
func List(root string) ([]IndexEntry, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("root directory must be provided")
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root must be a directory")
	}

	var entries []IndexEntry
	//1.- Walk the tree searching for header files.
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || d.Name() != headerFile {
			return nil
		}
		header, err := ReadHeader(path)
		if err != nil {
			return err
		}
		manifestPath := header.FilePointer
		if !filepath.IsAbs(manifestPath) {
			manifestPath = filepath.Join(filepath.Dir(path), manifestPath)
		}
		entries = append(entries, IndexEntry{HeaderPath: path, ManifestPath: manifestPath, Header: header})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Header.RunID == entries[j].Header.RunID {
			return entries[i].ManifestPath < entries[j].ManifestPath
		}
		return entries[i].Header.RunID < entries[j].Header.RunID
	})
	return entries, nil
}
