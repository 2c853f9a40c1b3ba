package dirstore

import (
	"context"
	"os"
	"path"
	"strings"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/tts-data-client/ttsdal"
)

var _ ttsdal.ObjStore = &DirObjStore{}

// DirObjStore serves a local directory mirror of the data lake as an object
// store. Object keys are slash-separated paths relative to basePath.
type DirObjStore struct {
	fs       gofs.Fs
	basePath string
}

func NewDirObjStore(fs gofs.Fs, basePath string) *DirObjStore {
	return &DirObjStore{fs: fs, basePath: strings.TrimSuffix(basePath, "/")}
}

func (s *DirObjStore) ListKeys(ctx context.Context, prefix string) ([]ttsdal.ObjectInfo, errorsx.Error) {
	var infos []ttsdal.ObjectInfo

	err := s.walk("", func(key string, size int64) {
		if !strings.HasPrefix(key, prefix) {
			return
		}

		infos = append(infos, ttsdal.ObjectInfo{Key: key, Size: size})
	})
	if err != nil {
		return nil, err
	}

	return infos, nil
}

func (s *DirObjStore) GetObject(ctx context.Context, key string) ([]byte, error) {
	data, err := s.fs.ReadFile(path.Join(s.basePath, key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errorsx.ObjectNotFound
		}

		return nil, errorsx.Wrap(err, "key", key)
	}

	return data, nil
}

func (s *DirObjStore) walk(relativeDir string, onFile func(key string, size int64)) errorsx.Error {
	dirPath := s.basePath
	if relativeDir != "" {
		dirPath = path.Join(s.basePath, relativeDir)
	}

	entries, err := s.fs.ReadDir(dirPath)
	if err != nil {
		if os.IsNotExist(err) {
			// an empty mirror is an empty listing, not an error
			return nil
		}

		return errorsx.Wrap(err, "dirPath", dirPath)
	}

	for _, entry := range entries {
		entryRelativePath := path.Join(relativeDir, entry.Name())

		if entry.IsDir() {
			err := s.walk(entryRelativePath, onFile)
			if err != nil {
				return err
			}
			continue
		}

		onFile(entryRelativePath, entry.Size())
	}

	return nil
}
