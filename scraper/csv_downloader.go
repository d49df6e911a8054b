// scraper/csv_downloader.go
package scraper

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gewnthar/flightlog/logger"
	"github.com/gewnthar/flightlog/models"
)

// DefaultMasterURL is the OurAirports airports.csv mirror.
const DefaultMasterURL = "https://davidmegginson.github.io/ourairports-data/airports.csv"

// MasterSourceName identifies the master table in the provenance store.
const MasterSourceName = "OURAIRPORTS_MASTER"

// ProvenanceRecorder is told about every successful master download.
type ProvenanceRecorder interface {
	RecordDataSourceVersion(ctx context.Context, v models.DataSourceVersion) error
}

// MasterFetcher keeps a local copy of the master airport table.
// It performs no retries and sets no timeout of its own; bound it with ctx.
type MasterFetcher struct {
	client   *http.Client
	recorder ProvenanceRecorder
	logger   *logger.Logger
}

// NewMasterFetcher uses http.DefaultClient when client is nil. recorder may be nil.
func NewMasterFetcher(client *http.Client, recorder ProvenanceRecorder, log *logger.Logger) *MasterFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &MasterFetcher{
		client:   client,
		recorder: recorder,
		logger:   log.Named("master"),
	}
}

// EnsureMaster returns the master table, downloading it only when the cache is
// absent or force is set. A failed download falls back to an existing cache
// with a warning; with no cache the *models.FetchError is returned.
func (f *MasterFetcher) EnsureMaster(ctx context.Context, cachePath, sourceURL string, force bool) ([]models.MasterAirport, error) {
	cached := fileExists(cachePath)
	if cached && !force {
		f.logger.Info("Using cached master airports", logger.String("path", cachePath))
		return readMasterCache(cachePath)
	}

	f.logger.Info("Downloading master airports",
		logger.String("url", sourceURL),
		logger.String("path", cachePath),
		logger.Bool("force", force))

	airports, err := f.download(ctx, cachePath, sourceURL)
	if err == nil {
		return airports, nil
	}
	if cached {
		f.logger.Warn("Master download failed, falling back to cached copy",
			logger.String("path", cachePath), logger.Error(err))
		return readMasterCache(cachePath)
	}
	return nil, err
}

// download streams the body next to cachePath, validates it and only then
// renames it over the cache, so a bad response never clobbers a good cache.
func (f *MasterFetcher) download(ctx context.Context, cachePath, sourceURL string) ([]models.MasterAirport, error) {
	fetchErr := func(err error) error { return &models.FetchError{URL: sourceURL, Err: err} }

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, fetchErr(fmt.Errorf("failed to build request: %w", err))
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fetchErr(fmt.Errorf("failed to make GET request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fetchErr(fmt.Errorf("received status code %d", resp.StatusCode))
	}

	dir := filepath.Dir(cachePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fetchErr(fmt.Errorf("failed to create directory %s: %w", dir, err))
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(cachePath)+".*.tmp")
	if err != nil {
		return nil, fetchErr(fmt.Errorf("failed to create temp file in %s: %w", dir, err))
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once renamed

	hash := sha256.New()
	n, err := io.Copy(io.MultiWriter(tmp, hash), resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, fetchErr(fmt.Errorf("failed to copy downloaded content: %w", err))
	}

	airports, err := readMasterFile(tmpPath)
	if err != nil {
		return nil, fetchErr(fmt.Errorf("response is not a master airport table: %w", err))
	}

	if err := os.Rename(tmpPath, cachePath); err != nil {
		return nil, fetchErr(fmt.Errorf("failed to move download into %s: %w", cachePath, err))
	}

	f.logger.Info("Master airports downloaded",
		logger.String("path", cachePath),
		logger.Int64("bytes", n),
		logger.Int("rows", len(airports)))

	if f.recorder != nil {
		v := models.DataSourceVersion{
			SourceName:       MasterSourceName,
			SourceURL:        sourceURL,
			CachePath:        cachePath,
			ByteCount:        n,
			DataHash:         hex.EncodeToString(hash.Sum(nil)),
			RowCount:         len(airports),
			LastDownloadedAt: time.Now().UTC(),
		}
		if err := f.recorder.RecordDataSourceVersion(ctx, v); err != nil {
			f.logger.Warn("Failed to record master download", logger.Error(err))
		}
	}
	return airports, nil
}

func readMasterCache(path string) ([]models.MasterAirport, error) {
	airports, err := readMasterFile(path)
	if err != nil {
		return nil, &models.LoadError{Kind: "master", Path: path, Err: err}
	}
	return airports, nil
}

func readMasterFile(path string) ([]models.MasterAirport, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ParseMasterAirportsCsv(file)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
