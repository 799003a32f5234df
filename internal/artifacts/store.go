package artifacts

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/klauspost/compress/zip"
)

// maxBundleSize bounds how much of a remote bundle is read into memory.
const maxBundleSize = 256 << 20

// Store indexes artifacts by contract name.
type Store struct {
	mu         sync.RWMutex
	artifacts  map[string]*Artifact
	httpClient *http.Client
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithHTTPClient sets the client used to fetch remote bundles.
func WithHTTPClient(c *http.Client) StoreOption {
	return func(s *Store) {
		if c != nil {
			s.httpClient = c
		}
	}
}

// NewStore creates an empty store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		artifacts:  make(map[string]*Artifact),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add registers an artifact, replacing any previous one with the same name.
func (s *Store) Add(a *Artifact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifacts[a.ContractName] = a
}

// Lookup returns the artifact for a contract name.
func (s *Store) Lookup(name string) (*Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.artifacts[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, name)
	}
	return a, nil
}

// Names returns the loaded contract names, sorted.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.artifacts))
	for name := range s.artifacts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadDir loads every artifact JSON file under dir, such as Truffle's
// build/contracts or Foundry's out/. Foundry build-info files are skipped.
// It returns the number of artifacts loaded.
func (s *Store) LoadDir(dir string) (int, error) {
	count := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "build-info" {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".json" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		ok, err := s.addFile(path, data)
		if err != nil {
			return err
		}
		if ok {
			count++
		}
		return nil
	})
	if err != nil {
		return count, fmt.Errorf("load artifacts from %s: %w", dir, err)
	}
	return count, nil
}

// LoadBundle loads artifacts from a zip archive at a local path or an
// http(s) URL. Remote bundles require a "sha256:<hex>" checksum; local ones
// are verified when a checksum is given. Verification happens before any
// entry is parsed.
func (s *Store) LoadBundle(ctx context.Context, source, checksum string) (int, error) {
	remote := strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
	if remote && checksum == "" {
		return 0, fmt.Errorf("refusing to load unverified bundle %s: checksum is required", source)
	}

	var (
		data []byte
		err  error
	)
	if remote {
		data, err = s.download(ctx, source)
	} else {
		data, err = os.ReadFile(source)
	}
	if err != nil {
		return 0, fmt.Errorf("fetch bundle: %w", err)
	}

	if checksum != "" {
		if err := VerifyChecksum(data, checksum); err != nil {
			return 0, fmt.Errorf("bundle %s: %w", source, err)
		}
	}

	return s.parseZip(data)
}

func (s *Store) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed with status %d from %s", resp.StatusCode, url)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBundleSize+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(data) > maxBundleSize {
		return nil, fmt.Errorf("bundle from %s exceeds %d bytes", url, maxBundleSize)
	}
	return data, nil
}

func (s *Store) parseZip(data []byte) (int, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("open zip: %w", err)
	}

	count := 0
	for _, f := range r.File {
		if f.FileInfo().IsDir() || filepath.Ext(f.Name) != ".json" {
			continue
		}
		if strings.Contains(f.Name, "build-info/") {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return count, fmt.Errorf("open %s: %w", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return count, fmt.Errorf("read %s: %w", f.Name, err)
		}

		ok, err := s.addFile(f.Name, content)
		if err != nil {
			return count, err
		}
		if ok {
			count++
		}
	}
	return count, nil
}

// addFile parses one JSON file and registers it if it looks like an artifact.
func (s *Store) addFile(path string, data []byte) (bool, error) {
	base := filepath.Base(path)
	a, err := Parse(data, strings.TrimSuffix(base, filepath.Ext(base)))
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", path, err)
	}
	if !a.HasABI() && a.Bytecode.Empty() {
		return false, nil
	}
	s.Add(a)
	return true, nil
}

// VerifyChecksum compares the SHA256 of data with a "sha256:<hex>" string.
func VerifyChecksum(data []byte, expected string) error {
	actual := Checksum(data)
	if !strings.EqualFold(actual, strings.TrimSpace(expected)) {
		return fmt.Errorf("%w: expected %s, got %s", ErrChecksumMismatch, expected, actual)
	}
	return nil
}

// Checksum returns the "sha256:<hex>" digest of data.
func Checksum(data []byte) string {
	return fmt.Sprintf("sha256:%x", sha256.Sum256(data))
}
