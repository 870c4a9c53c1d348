package debrid_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vmunix/strmd/internal/debrid"
	"github.com/vmunix/strmd/internal/debrid/mocks"
	"github.com/vmunix/strmd/internal/library"
)

const testMagnet = "magnet:?xt=urn:btih:c12fe1c06bba254a9dc9f519b335aa7c1367a88a"

type fakeLinkStore struct {
	mu       sync.Mutex
	swapped  []int64
	lastLink string
}

func (s *fakeLinkStore) SwapLink(id int64, link string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.swapped = append(s.swapped, id)
	s.lastLink = link
	return nil
}

func newTestResolver(t *testing.T, svc debrid.Service, store *fakeLinkStore) *debrid.Resolver {
	t.Helper()
	if store == nil {
		store = &fakeLinkStore{}
	}
	return debrid.NewResolver(svc, store, nil, time.Millisecond, 3, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestResolveCached(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)

	files := []debrid.TorrentFile{
		{ID: 1, Path: "Movie.2023.1080p/movie.mkv", Bytes: 4 << 30},
		{ID: 2, Path: "Movie.2023.1080p/sample.mkv", Bytes: 200 << 20},
		{ID: 3, Path: "Movie.2023.1080p/info.nfo", Bytes: 1024},
	}

	svc.EXPECT().AddMagnet(gomock.Any(), testMagnet).Return("tor1", nil)
	svc.EXPECT().TorrentInfo(gomock.Any(), "tor1").Return(&debrid.TorrentInfo{
		ID: "tor1", Status: "waiting_files_selection", Files: files,
	}, nil)
	svc.EXPECT().SelectFiles(gomock.Any(), "tor1", []int64{1}).Return(nil)
	svc.EXPECT().TorrentInfo(gomock.Any(), "tor1").Return(&debrid.TorrentInfo{
		ID: "tor1", Status: debrid.StatusDownloaded, Files: files,
		Links: []string{"https://rd.example/dl/abc"},
	}, nil)
	svc.EXPECT().Unrestrict(gomock.Any(), "https://rd.example/dl/abc").Return(&debrid.UnrestrictedLink{
		URL: "https://stream.example/abc", Filename: "movie.mkv", Filesize: 4 << 30,
	}, nil)

	r := newTestResolver(t, svc, nil)
	link, err := r.Resolve(context.Background(), testMagnet)
	require.NoError(t, err)
	assert.Equal(t, "https://stream.example/abc", link.URL)
	assert.Equal(t, "movie.mkv", link.Filename)
	assert.False(t, link.ResolvedAt.IsZero())
}

func TestResolvePicksLargestLink(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)

	svc.EXPECT().AddMagnet(gomock.Any(), testMagnet).Return("tor1", nil)
	svc.EXPECT().TorrentInfo(gomock.Any(), "tor1").Return(&debrid.TorrentInfo{
		ID: "tor1", Status: debrid.StatusDownloaded,
		Links: []string{"https://rd.example/dl/a", "https://rd.example/dl/b"},
	}, nil)
	svc.EXPECT().Unrestrict(gomock.Any(), "https://rd.example/dl/a").Return(&debrid.UnrestrictedLink{
		URL: "https://stream.example/a", Filename: "extra.mkv", Filesize: 700 << 20,
	}, nil)
	svc.EXPECT().Unrestrict(gomock.Any(), "https://rd.example/dl/b").Return(&debrid.UnrestrictedLink{
		URL: "https://stream.example/b", Filename: "feature.mkv", Filesize: 8 << 30,
	}, nil)

	r := newTestResolver(t, svc, nil)
	link, err := r.Resolve(context.Background(), testMagnet)
	require.NoError(t, err)
	assert.Equal(t, "https://stream.example/b", link.URL)
}

func TestResolveDeadTorrent(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)

	svc.EXPECT().AddMagnet(gomock.Any(), testMagnet).Return("tor1", nil)
	svc.EXPECT().TorrentInfo(gomock.Any(), "tor1").Return(&debrid.TorrentInfo{
		ID: "tor1", Status: "magnet_error",
	}, nil)
	svc.EXPECT().Delete(gomock.Any(), "tor1").Return(nil)

	r := newTestResolver(t, svc, nil)
	_, err := r.Resolve(context.Background(), testMagnet)
	assert.ErrorIs(t, err, debrid.ErrNotCached)
}

func TestResolveNoVideoFiles(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)

	svc.EXPECT().AddMagnet(gomock.Any(), testMagnet).Return("tor1", nil)
	svc.EXPECT().TorrentInfo(gomock.Any(), "tor1").Return(&debrid.TorrentInfo{
		ID: "tor1", Status: "waiting_files_selection",
		Files: []debrid.TorrentFile{{ID: 1, Path: "book.pdf", Bytes: 5 << 20}},
	}, nil)
	svc.EXPECT().Delete(gomock.Any(), "tor1").Return(nil)

	r := newTestResolver(t, svc, nil)
	_, err := r.Resolve(context.Background(), testMagnet)
	assert.ErrorIs(t, err, debrid.ErrNoVideoFiles)
}

func TestResolveAttemptsExhausted(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)

	svc.EXPECT().AddMagnet(gomock.Any(), testMagnet).Return("tor1", nil)
	svc.EXPECT().TorrentInfo(gomock.Any(), "tor1").Return(&debrid.TorrentInfo{
		ID: "tor1", Status: "downloading", Progress: 12,
	}, nil).Times(3)

	r := newTestResolver(t, svc, nil)
	_, err := r.Resolve(context.Background(), testMagnet)
	assert.ErrorIs(t, err, debrid.ErrNotCached)
}

func TestResolveAuthErrorAborts(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)

	svc.EXPECT().AddMagnet(gomock.Any(), testMagnet).Return("", debrid.ErrAuth)

	r := newTestResolver(t, svc, nil)
	_, err := r.Resolve(context.Background(), testMagnet)
	assert.ErrorIs(t, err, debrid.ErrAuth)
}

func TestResolveRetriesTransientInfoFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)

	svc.EXPECT().AddMagnet(gomock.Any(), testMagnet).Return("tor1", nil)
	gomock.InOrder(
		svc.EXPECT().TorrentInfo(gomock.Any(), "tor1").Return(nil, debrid.ErrTransient),
		svc.EXPECT().TorrentInfo(gomock.Any(), "tor1").Return(&debrid.TorrentInfo{
			ID: "tor1", Status: debrid.StatusDownloaded,
			Links: []string{"https://rd.example/dl/abc"},
		}, nil),
	)
	svc.EXPECT().Unrestrict(gomock.Any(), "https://rd.example/dl/abc").Return(&debrid.UnrestrictedLink{
		URL: "https://stream.example/abc", Filename: "movie.mkv", Filesize: 4 << 30,
	}, nil)

	r := newTestResolver(t, svc, nil)
	link, err := r.Resolve(context.Background(), testMagnet)
	require.NoError(t, err)
	assert.Equal(t, "https://stream.example/abc", link.URL)
}

func TestResolvePointerSwapsLink(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	store := &fakeLinkStore{}

	svc.EXPECT().AddMagnet(gomock.Any(), testMagnet).Return("tor1", nil)
	svc.EXPECT().TorrentInfo(gomock.Any(), "tor1").Return(&debrid.TorrentInfo{
		ID: "tor1", Status: debrid.StatusDownloaded,
		Links: []string{"https://rd.example/dl/abc"},
	}, nil)
	svc.EXPECT().Unrestrict(gomock.Any(), "https://rd.example/dl/abc").Return(&debrid.UnrestrictedLink{
		URL: "https://stream.example/abc", Filename: "movie.mkv", Filesize: 4 << 30,
	}, nil)

	r := newTestResolver(t, svc, store)
	p := &library.Pointer{ID: 42, SourceRef: testMagnet}
	link, err := r.ResolvePointer(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, []int64{42}, store.swapped)
	assert.Equal(t, link.URL, store.lastLink)
}

func TestResolvePointerError(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	store := &fakeLinkStore{}

	svc.EXPECT().AddMagnet(gomock.Any(), testMagnet).Return("", errors.New("boom"))

	r := newTestResolver(t, svc, store)
	_, err := r.ResolvePointer(context.Background(), &library.Pointer{ID: 7, SourceRef: testMagnet})
	require.Error(t, err)
	assert.Empty(t, store.swapped)
}
