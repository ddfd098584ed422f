package rxnav

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type FileCache struct {
	rootDir string
}

func NewFileCache(cacheDirectory string) *FileCache {
	return &FileCache{
		rootDir: cacheDirectory,
	}
}

func (f *FileCache) filePath(term string) string {
	return filepath.Join(f.rootDir, sanitizeTerm(term)+".json")
}

// sanitizeTerm makes a drug name safe as a file name.
func sanitizeTerm(term string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.' || r == ' ':
			return r
		default:
			return '_'
		}
	}, strings.ToLower(term))
}

func (cache *FileCache) cache(term string, f func() ([]byte, error)) ([]byte, error) {
	localFilePath := cache.filePath(term)
	if _, err := os.Stat(localFilePath); err == nil {
		contents, err := cache.read(term)
		if err != nil {
			return nil, fmt.Errorf("cache.read > %w", err)
		}
		return contents, nil
	}

	contents, err := f()
	if err != nil {
		return nil, fmt.Errorf("lookup for RxNav > %w", err)
	}

	if err := os.MkdirAll(cache.rootDir, 0o755); err != nil {
		return contents, fmt.Errorf("os.MkdirAll > %w", err)
	}
	file, err := os.Create(localFilePath)
	if err != nil {
		return contents, fmt.Errorf("os.Create > %w", err)
	}
	defer func() {
		_ = file.Close()
	}()
	if _, err := file.Write(contents); err != nil {
		return contents, fmt.Errorf("file.Write > %w", err)
	}
	return contents, nil
}

func (cache *FileCache) read(term string) ([]byte, error) {
	file, err := os.Open(cache.filePath(term))
	if err != nil {
		return nil, fmt.Errorf("os.Open > %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	contents, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("io.ReadAll > %w", err)
	}
	return contents, nil
}
