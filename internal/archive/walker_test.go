package archive

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geodati/catasto2gpkg/internal/files/filesystem"
	"github.com/geodati/catasto2gpkg/internal/logging"
	"github.com/geodati/catasto2gpkg/pkg/catasto"
)

func TestWalker_Discover(t *testing.T) {
	mfs := filesystem.NewMemoryFileSystem("/catasto/VENETO")
	mfs.AddFile("VE_F229.zip", nil)
	mfs.AddFile("pd_G224.ZIP", nil)
	mfs.AddFile("VE_L736.zip", nil)
	mfs.AddFile("LEGGIMI.txt", nil)
	mfs.AddFile("VENETO.gpkg", nil)
	mfs.AddFile("old/TV_L407.zip", nil)
	mfs.AddDir("archive.zip")

	w := NewWalkerWithFS(mfs, logging.NewNullLogger())
	regions, err := w.Discover("/catasto/VENETO")
	require.NoError(t, err)

	assert.Equal(t, []catasto.Region{
		{Code: "VE", Archives: []string{"/catasto/VENETO/VE_F229.zip", "/catasto/VENETO/VE_L736.zip"}},
		{Code: "PD", Archives: []string{"/catasto/VENETO/pd_G224.ZIP"}},
	}, regions)
}

func TestWalker_Discover_Empty(t *testing.T) {
	mfs := filesystem.NewMemoryFileSystem("/catasto/empty")

	regions, err := NewWalkerWithFS(mfs, logging.NewNullLogger()).Discover("/catasto/empty")
	require.NoError(t, err)
	assert.Empty(t, regions)
}

func TestWalker_Discover_InvalidRoot(t *testing.T) {
	mfs := filesystem.NewMemoryFileSystem("/catasto")
	mfs.AddFile("file.zip", nil)
	w := NewWalkerWithFS(mfs, logging.NewNullLogger())

	tests := map[string]string{
		"missing":       "/catasto/missing",
		"not directory": "/catasto/file.zip",
	}
	for name, root := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := w.Discover(root)
			if !errors.Is(err, catasto.ErrInvalidRoot) {
				t.Errorf("Discover(%q) error = %v, want ErrInvalidRoot", root, err)
			}
		})
	}
}

func TestWalker_Discover_NoRegionCode(t *testing.T) {
	mfs := filesystem.NewMemoryFileSystem("/catasto")
	mfs.AddFile(".zip", nil)
	logger := logging.NewRecordingLogger()

	regions, err := NewWalkerWithFS(mfs, logger).Discover("/catasto")
	require.NoError(t, err)
	assert.Empty(t, regions)
	assert.True(t, logger.Contains(logging.LevelVerbose, "no region code"))
}

func TestNewWalkerWithFS_PanicsOnNil(t *testing.T) {
	assert.Panics(t, func() { NewWalkerWithFS(nil, logging.NewNullLogger()) })
	assert.Panics(t, func() { NewWalkerWithFS(filesystem.NewOSFileSystem(), nil) })
}
