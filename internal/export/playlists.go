package export

import (
	"path/filepath"

	"github.com/handiism/lyrics-harvester/internal/audio"
	ioutils "github.com/handiism/lyrics-harvester/internal/io"
)

// WritePlaylists renders each playlist with creator into dir and returns
// the file names written.
func WritePlaylists(dir string, playlists []audio.Playlist, creator *audio.PlaylistCreator) ([]string, error) {
	if err := ioutils.EnsureDir(dir); err != nil {
		return nil, err
	}

	var names []string
	for _, pl := range playlists {
		name := ioutils.SanitizeFileName(pl.Name) + creator.Extension()
		if err := ioutils.WriteFileAtomic(filepath.Join(dir, name), []byte(creator.CreatePlaylist(pl))); err != nil {
			return names, err
		}
		names = append(names, name)
	}
	return names, nil
}
