package media

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/valkhart/grimoire-backend/internal/platform/envutil"
	"github.com/valkhart/grimoire-backend/internal/platform/logger"
)

const maxImageBytes = 10 << 20

// Store mirrors remote image assets onto local storage.
type Store interface {
	// Mirror downloads the remote image and returns the public local path.
	Mirror(ctx context.Context, remoteURL string) (string, error)
	// IsLocal reports whether a stored image path already points at the mirror.
	IsLocal(imagePath string) bool
}

type localStore struct {
	log          *logger.Logger
	dir          string
	publicPrefix string
	httpClient   *http.Client
	group        singleflight.Group
}

func NewLocalStore(log *logger.Logger) (Store, error) {
	dir := envutil.GetEnv("MEDIA_DIR", "storage/media", log)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	prefix := envutil.GetEnv("MEDIA_PUBLIC_PREFIX", "/media", log)
	return &localStore{
		log:          log.With("service", "MediaStore"),
		dir:          dir,
		publicPrefix: strings.TrimRight(prefix, "/"),
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (s *localStore) IsLocal(imagePath string) bool {
	return imagePath != "" && strings.HasPrefix(imagePath, s.publicPrefix+"/")
}

func (s *localStore) Mirror(ctx context.Context, remoteURL string) (string, error) {
	remoteURL = strings.TrimSpace(remoteURL)
	if remoteURL == "" {
		return "", fmt.Errorf("empty image url")
	}

	filename := fileNameFor(remoteURL)
	target := filepath.Join(s.dir, filename)
	publicPath := s.publicPrefix + "/" + filename

	if _, err := os.Stat(target); err == nil {
		return publicPath, nil
	}

	// Concurrent mirrors of the same URL collapse into one download.
	_, err, _ := s.group.Do(remoteURL, func() (interface{}, error) {
		return nil, s.download(ctx, remoteURL, target)
	})
	if err != nil {
		return "", err
	}
	return publicPath, nil
}

func (s *localStore) download(ctx context.Context, remoteURL, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, remoteURL, nil)
	if err != nil {
		return err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("image fetch: unexpected status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(s.dir, ".mirror-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, io.LimitReader(resp.Body, maxImageBytes)); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), target)
}

// fileNameFor keeps the remote extension but keys the file by URL hash so two
// assets with the same basename cannot clobber each other.
func fileNameFor(remoteURL string) string {
	sum := sha1.Sum([]byte(remoteURL))
	ext := strings.ToLower(path.Ext(path.Base(remoteURL)))
	if len(ext) > 5 || strings.ContainsAny(ext, "?&=") {
		ext = ""
	}
	if ext == "" {
		ext = ".png"
	}
	return hex.EncodeToString(sum[:]) + ext
}
