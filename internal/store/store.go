package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pweiskircher/profile-sync/internal/contracts"
	internalfs "github.com/pweiskircher/profile-sync/internal/fs"
	"github.com/pweiskircher/profile-sync/internal/profile"
	"github.com/pweiskircher/profile-sync/internal/profilerr"
)

const CacheSchemaVersionV1 = "1"

// Cache tracks per-profile sync state under .sync/cache.json.
type Cache struct {
	Version  string                `json:"version"`
	Profiles map[string]CacheEntry `json:"profiles"`
}

type CacheEntry struct {
	Path           string `json:"path,omitempty"`
	RemoteRevision string `json:"remote_revision,omitempty"`
	SyncedAt       string `json:"synced_at,omitempty"`
	LastRunID      string `json:"last_run_id,omitempty"`
}

// Store owns the profile files under one project root. All paths are resolved
// through a SafeFS so nothing escapes the root.
type Store struct {
	fs *internalfs.SafeFS
}

func New(root string) (*Store, error) {
	safe, err := internalfs.NewSafeFS(root)
	if err != nil {
		return nil, err
	}
	return &Store{fs: safe}, nil
}

func (s *Store) Root() string {
	if s == nil || s.fs == nil {
		return ""
	}
	return s.fs.Root()
}

func (s *Store) EnsureLayout() error {
	if s == nil || s.fs == nil {
		return fmt.Errorf("store is not initialized")
	}

	dirs := []string{
		contracts.DefaultProfilesDir,
		contracts.DefaultSyncDir,
		contracts.DefaultBackupsDir,
	}
	for _, dir := range dirs {
		if err := s.fs.EnsureDir(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

// ProfilePath returns the relative path of a named profile document.
func ProfilePath(name string) string {
	return filepath.Join(contracts.DefaultProfilesDir, sanitizeFileName(name)+contracts.ProfileFileExtension)
}

// ReadProfileRaw returns the stored bytes of a named profile.
func (s *Store) ReadProfileRaw(name string) ([]byte, error) {
	if s == nil || s.fs == nil {
		return nil, fmt.Errorf("store is not initialized")
	}

	data, err := s.fs.ReadFile(ProfilePath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, profilerr.NewUser(
				profilerr.CodeProfileNotFound,
				fmt.Sprintf("profile %q does not exist at %s", name, ProfilePath(name)),
				"run 'profile-sync pull' to fetch it, or check the profile name",
			)
		}
		return nil, err
	}
	return data, nil
}

// ReadProfile parses a named profile document from disk.
func (s *Store) ReadProfile(name string) (profile.Document, error) {
	data, err := s.ReadProfileRaw(name)
	if err != nil {
		return profile.Document{}, err
	}
	return profile.Parse(name, data)
}

// WriteProfile renders and atomically writes a profile document, returning
// the relative path written.
func (s *Store) WriteProfile(doc profile.Document) (string, error) {
	if err := s.EnsureLayout(); err != nil {
		return "", err
	}

	rendered, err := profile.Render(doc)
	if err != nil {
		return "", err
	}

	relativePath := ProfilePath(doc.Name)
	if err := s.fs.WriteFileAtomic(relativePath, rendered, 0o644); err != nil {
		return "", err
	}
	return relativePath, nil
}

// BackupProfile copies the current on-disk bytes of a named profile into the
// backups directory. The copy is byte-identical to the pre-merge document.
func (s *Store) BackupProfile(name string, stamp time.Time) (string, error) {
	if err := s.EnsureLayout(); err != nil {
		return "", err
	}

	data, err := s.ReadProfileRaw(name)
	if err != nil {
		return "", err
	}

	backupName := fmt.Sprintf("%s-%s%s", sanitizeFileName(name), stamp.UTC().Format("20060102T150405Z"), contracts.ProfileFileExtension)
	relativePath := filepath.Join(contracts.DefaultBackupsDir, backupName)
	if err := s.fs.WriteFileAtomic(relativePath, data, 0o644); err != nil {
		return "", err
	}
	return relativePath, nil
}

// ListProfiles returns the names of every stored profile document, sorted.
func (s *Store) ListProfiles() ([]string, error) {
	if s == nil || s.fs == nil {
		return nil, fmt.Errorf("store is not initialized")
	}

	files, err := s.fs.ListFiles(contracts.DefaultProfilesDir, contracts.ProfileFileExtension)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(files))
	for _, file := range files {
		names = append(names, strings.TrimSuffix(file, contracts.ProfileFileExtension))
	}
	return names, nil
}

func (s *Store) SaveCache(cache Cache) error {
	if err := s.EnsureLayout(); err != nil {
		return err
	}

	canonical := canonicalizeCache(cache)
	encoded, err := json.MarshalIndent(canonical, "", "  ")
	if err != nil {
		return err
	}
	encoded = append(encoded, '\n')

	return s.fs.WriteFileAtomic(contracts.DefaultCacheFilePath, encoded, 0o644)
}

func (s *Store) LoadCache() (Cache, error) {
	if s == nil || s.fs == nil {
		return Cache{}, fmt.Errorf("store is not initialized")
	}

	encoded, err := s.fs.ReadFile(contracts.DefaultCacheFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return canonicalizeCache(Cache{}), nil
		}
		return Cache{}, err
	}

	var cache Cache
	if err := json.Unmarshal(encoded, &cache); err != nil {
		return Cache{}, err
	}
	return canonicalizeCache(cache), nil
}

func (s *Store) ReadFile(relativePath string) ([]byte, error) {
	if s == nil || s.fs == nil {
		return nil, fmt.Errorf("store is not initialized")
	}
	return s.fs.ReadFile(relativePath)
}

// sanitizeFileName keeps profile file names portable: path separators and
// control characters are replaced, surrounding whitespace dropped.
func sanitizeFileName(name string) string {
	trimmed := strings.TrimSpace(name)
	var builder strings.Builder
	for _, r := range trimmed {
		switch {
		case r == '/' || r == '\\' || r == ':' || r < 0x20:
			builder.WriteRune('-')
		default:
			builder.WriteRune(r)
		}
	}
	if builder.Len() == 0 {
		return "unnamed"
	}
	return builder.String()
}

func canonicalizeCache(cache Cache) Cache {
	canonical := cache
	if strings.TrimSpace(canonical.Version) == "" {
		canonical.Version = CacheSchemaVersionV1
	}
	if canonical.Profiles == nil {
		canonical.Profiles = map[string]CacheEntry{}
	}
	return canonical
}
