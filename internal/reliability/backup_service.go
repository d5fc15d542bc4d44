// Package reliability provides database backups and maintenance jobs.
package reliability

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	archivePrefix     = "folio-backup-"
	archiveSuffix     = ".tar.gz"
	archiveTimeLayout = "2006-01-02-150405"
	metadataFile      = "backup-metadata.json"

	// Newest archives that survive rotation regardless of age
	minBackupsToKeep = 3
)

// Snapshotter writes a consistent copy of a database to a file
type Snapshotter interface {
	VacuumInto(ctx context.Context, dest string) error
}

// BackupMetadata is stored next to the databases inside each archive
type BackupMetadata struct {
	Timestamp time.Time          `json:"timestamp"`
	Version   string             `json:"version"`
	Databases []DatabaseMetadata `json:"databases"`
}

// DatabaseMetadata describes a single database in the archive
type DatabaseMetadata struct {
	Name      string `json:"name"`
	Filename  string `json:"filename"`
	SizeBytes int64  `json:"size_bytes"`
	Checksum  string `json:"checksum"`
}

// BackupInfo represents an archive found in the object store
type BackupInfo struct {
	Key       string    `json:"key"`
	Timestamp time.Time `json:"timestamp"`
	SizeBytes int64     `json:"size_bytes"`
	AgeHours  int64     `json:"age_hours"`
}

// BackupService snapshots the databases and ships them to an object store
type BackupService struct {
	databases     map[string]Snapshotter
	store         ObjectStore
	stagingDir    string
	prefix        string
	retentionDays int
	now           func() time.Time
	log           zerolog.Logger
}

// NewBackupService creates a backup service. stagingDir holds temporary
// snapshots and must be on a filesystem with room for all databases.
func NewBackupService(
	databases map[string]Snapshotter,
	store ObjectStore,
	stagingDir string,
	prefix string,
	retentionDays int,
	log zerolog.Logger,
) *BackupService {
	return &BackupService{
		databases:     databases,
		store:         store,
		stagingDir:    stagingDir,
		prefix:        strings.Trim(prefix, "/"),
		retentionDays: retentionDays,
		now:           time.Now,
		log:           log.With().Str("service", "backup").Logger(),
	}
}

// Run creates an archive, uploads it and rotates old archives.
// It returns the key of the uploaded archive.
func (s *BackupService) Run(ctx context.Context) (string, error) {
	key, err := s.CreateAndUpload(ctx)
	if err != nil {
		return "", err
	}
	if err := s.RotateOldBackups(ctx); err != nil {
		// The new archive is safe; rotation retries on the next run
		s.log.Warn().Err(err).Msg("Backup rotation failed")
	}
	return key, nil
}

// CreateAndUpload snapshots every database into a tar.gz archive and uploads it
func (s *BackupService) CreateAndUpload(ctx context.Context) (string, error) {
	s.log.Info().Msg("Starting backup")
	startTime := s.now()

	if err := os.MkdirAll(s.stagingDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create staging directory: %w", err)
	}
	workDir, err := os.MkdirTemp(s.stagingDir, "backup-")
	if err != nil {
		return "", fmt.Errorf("failed to create work directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	names := s.databaseNames()
	metadata := BackupMetadata{
		Timestamp: startTime.UTC(),
		Version:   "1",
		Databases: make([]DatabaseMetadata, 0, len(names)),
	}

	files := make([]string, 0, len(names)+1)
	for _, name := range names {
		filename := name + ".db"
		dest := filepath.Join(workDir, filename)

		if err := s.databases[name].VacuumInto(ctx, dest); err != nil {
			return "", fmt.Errorf("failed to snapshot %s: %w", name, err)
		}

		info, err := os.Stat(dest)
		if err != nil {
			return "", fmt.Errorf("failed to stat %s snapshot: %w", name, err)
		}
		checksum, err := fileChecksum(dest)
		if err != nil {
			return "", fmt.Errorf("failed to checksum %s: %w", name, err)
		}

		metadata.Databases = append(metadata.Databases, DatabaseMetadata{
			Name:      name,
			Filename:  filename,
			SizeBytes: info.Size(),
			Checksum:  checksum,
		})
		files = append(files, filename)
	}

	if err := writeMetadata(filepath.Join(workDir, metadataFile), metadata); err != nil {
		return "", fmt.Errorf("failed to write metadata: %w", err)
	}
	files = append(files, metadataFile)

	archiveName := archivePrefix + startTime.UTC().Format(archiveTimeLayout) + archiveSuffix
	archivePath := filepath.Join(workDir, archiveName)
	if err := createArchive(archivePath, workDir, files); err != nil {
		return "", fmt.Errorf("failed to create archive: %w", err)
	}

	archive, err := os.Open(archivePath)
	if err != nil {
		return "", fmt.Errorf("failed to open archive: %w", err)
	}
	defer archive.Close()

	key := s.key(archiveName)
	if err := s.store.Upload(ctx, key, archive); err != nil {
		return "", err
	}

	s.log.Info().
		Dur("duration_ms", s.now().Sub(startTime)).
		Str("key", key).
		Int("databases", len(names)).
		Msg("Backup completed")

	return key, nil
}

// ListBackups returns the archives in the store, newest first
func (s *BackupService) ListBackups(ctx context.Context) ([]BackupInfo, error) {
	objects, err := s.store.List(ctx, s.key(archivePrefix))
	if err != nil {
		return nil, err
	}

	now := s.now()
	backups := make([]BackupInfo, 0, len(objects))
	for _, obj := range objects {
		name := path.Base(obj.Key)
		if !strings.HasPrefix(name, archivePrefix) || !strings.HasSuffix(name, archiveSuffix) {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, archivePrefix), archiveSuffix)
		ts, err := time.Parse(archiveTimeLayout, stamp)
		if err != nil {
			s.log.Warn().Str("key", obj.Key).Msg("Failed to parse timestamp from archive name")
			continue
		}
		backups = append(backups, BackupInfo{
			Key:       obj.Key,
			Timestamp: ts,
			SizeBytes: obj.Size,
			AgeHours:  int64(now.Sub(ts).Hours()),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

// RotateOldBackups deletes archives older than the retention period.
// The newest minBackupsToKeep archives are always kept; retention 0 keeps all.
func (s *BackupService) RotateOldBackups(ctx context.Context) error {
	if s.retentionDays <= 0 {
		return nil
	}

	backups, err := s.ListBackups(ctx)
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) <= minBackupsToKeep {
		return nil
	}

	cutoff := s.now().AddDate(0, 0, -s.retentionDays)
	deleted := 0
	for _, backup := range backups[minBackupsToKeep:] {
		if !backup.Timestamp.Before(cutoff) {
			continue
		}
		if err := s.store.Delete(ctx, backup.Key); err != nil {
			s.log.Error().Err(err).Str("key", backup.Key).Msg("Failed to delete old backup")
			continue
		}
		deleted++
	}

	s.log.Info().
		Int("deleted", deleted).
		Int("remaining", len(backups)-deleted).
		Msg("Backup rotation completed")
	return nil
}

func (s *BackupService) databaseNames() []string {
	names := make([]string, 0, len(s.databases))
	for name := range s.databases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *BackupService) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

func fileChecksum(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return fmt.Sprintf("sha256:%x", hash.Sum(nil)), nil
}

func writeMetadata(filePath string, metadata BackupMetadata) error {
	file, err := os.Create(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(metadata)
}

func createArchive(archivePath, sourceDir string, files []string) (err error) {
	archiveFile, err := os.Create(archivePath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := archiveFile.Close(); err == nil {
			err = cerr
		}
	}()

	gzipWriter := gzip.NewWriter(archiveFile)
	tarWriter := tar.NewWriter(gzipWriter)

	for _, name := range files {
		if err := addFileToArchive(tarWriter, filepath.Join(sourceDir, name), name); err != nil {
			return fmt.Errorf("failed to add %s: %w", name, err)
		}
	}

	if err := tarWriter.Close(); err != nil {
		return err
	}
	return gzipWriter.Close()
}

func addFileToArchive(tarWriter *tar.Writer, filePath, nameInArchive string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	header := &tar.Header{
		Name:    nameInArchive,
		Size:    info.Size(),
		Mode:    int64(info.Mode().Perm()),
		ModTime: info.ModTime(),
	}
	if err := tarWriter.WriteHeader(header); err != nil {
		return err
	}
	_, err = io.Copy(tarWriter, file)
	return err
}
