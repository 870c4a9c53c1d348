package debrid

import (
	"path"
	"strings"
)

var videoExtensions = map[string]bool{
	".mkv": true, ".mp4": true, ".avi": true, ".m4v": true,
	".mov": true, ".wmv": true, ".ts": true, ".webm": true,
}

// minVideoBytes filters out stubs and extras; samples are usually well
// under 100 MB.
const minVideoBytes = 100 << 20

// filterVideoFiles returns the files worth selecting for caching: real
// video files, skipping samples, extras, and subtitle tracks.
func filterVideoFiles(files []TorrentFile) []TorrentFile {
	var out []TorrentFile
	for _, f := range files {
		name := strings.ToLower(path.Base(f.Path))
		if !videoExtensions[path.Ext(name)] {
			continue
		}
		if strings.Contains(name, "sample") || strings.Contains(name, "trailer") {
			continue
		}
		if f.Bytes < minVideoBytes {
			continue
		}
		out = append(out, f)
	}
	return out
}
