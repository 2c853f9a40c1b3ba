package dirstore

import (
	"context"
	"path"
	"testing"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs/mockfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, files map[string][]byte) *DirObjStore {
	fs := mockfs.NewMockFs()

	for key, data := range files {
		filePath := path.Join("/lake", key)
		require.NoError(t, fs.MkdirAll(path.Dir(filePath), 0755))
		require.NoError(t, fs.WriteFile(filePath, data, 0644))
	}

	return NewDirObjStore(fs, "/lake")
}

func Test_ListKeys(t *testing.T) {
	store := newTestStore(t, map[string][]byte{
		"tracking-the-sun/2019/state=CA/part-0.parquet": []byte("a"),
		"tracking-the-sun/2019/state=NY/part-0.parquet": []byte("b"),
		"tracking-the-sun/2020/state=CA/part-0.parquet": []byte("c"),
	})

	infos, err := store.ListKeys(context.Background(), "tracking-the-sun/2019/")
	require.NoError(t, err)

	var keys []string
	for _, info := range infos {
		keys = append(keys, info.Key)
	}

	assert.ElementsMatch(t, []string{
		"tracking-the-sun/2019/state=CA/part-0.parquet",
		"tracking-the-sun/2019/state=NY/part-0.parquet",
	}, keys)
}

func Test_ListKeys_emptyMirror(t *testing.T) {
	store := NewDirObjStore(mockfs.NewMockFs(), "/no/such/dir")

	infos, err := store.ListKeys(context.Background(), "tracking-the-sun/")
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func Test_GetObject(t *testing.T) {
	store := newTestStore(t, map[string][]byte{
		"tracking-the-sun/2019/state=CA/part-0.parquet": []byte("parquet bytes"),
	})

	data, err := store.GetObject(context.Background(), "tracking-the-sun/2019/state=CA/part-0.parquet")
	require.NoError(t, err)
	assert.Equal(t, []byte("parquet bytes"), data)

	_, err = store.GetObject(context.Background(), "tracking-the-sun/2019/state=CA/part-1.parquet")
	require.Equal(t, errorsx.ObjectNotFound, err)
}
