// Package ingest drives the upload pipeline: extraction, platform
// validation, id allocation, content filtering and persistence of the
// project record plus its secondary indexes.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"telewarp/archive"
	"telewarp/filter"
	"telewarp/models"
	"telewarp/platforms"
	"telewarp/storage"
)

// MaxThumbnailSize caps an uploaded thumbnail.
const MaxThumbnailSize = 2 << 20

// Service is the ingestion orchestrator.
type Service struct {
	store     storage.Store
	registry  *platforms.Registry
	filter    *filter.Filter
	assetsDir string
	alloc     *Allocator
	recent    *Recent
	now       func() time.Time
}

// NewService creates the orchestrator and its asset directory.
func NewService(store storage.Store, registry *platforms.Registry, f *filter.Filter, assetsDir string) (*Service, error) {
	if err := os.MkdirAll(assetsDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create assets directory: %w", err)
	}
	return &Service{
		store:     store,
		registry:  registry,
		filter:    f,
		assetsDir: assetsDir,
		alloc:     NewAllocator(store),
		recent:    NewRecent(store),
		now:       time.Now,
	}, nil
}

// AssetsDir returns the flat directory assets are written to.
func (s *Service) AssetsDir() string {
	return s.assetsDir
}

// Upload is one received multipart submission. Paths point at the
// handler's temporary files; the handler removes them afterwards.
type Upload struct {
	ArchivePath   string
	ThumbnailPath string // empty when no thumbnail was supplied
	ThumbnailName string // original filename, for the extension
	ThumbnailSize int64
	Name          string
	Description   string
	LangID        string
	Author        string // empty when the request carried no session
}

// Ingest runs the pipeline and returns the persisted record. All
// failures are *Error with a taxonomy code; side effects before the
// failing step (allocated id, deduped assets) are not rolled back.
func (s *Service) Ingest(ctx context.Context, up Upload) (*models.Project, error) {
	if up.ArchivePath == "" {
		return nil, fail(CodeBadRequest, "No project file uploaded")
	}

	result, err := archive.Extract(up.ArchivePath)
	if err != nil {
		return nil, extractError(err)
	}

	var manifest models.Manifest
	// Manifest is known-valid JSON; the subset decode can still fail
	// on type mismatches, which just leaves the fields empty.
	if err := json.Unmarshal(result.Manifest, &manifest); err != nil {
		manifest = models.Manifest{}
	}

	langID := up.LangID
	if langID == "" {
		langID = manifest.LangID
	}
	if _, ok := s.registry.Lookup(langID); !ok {
		return nil, fail(CodeInvalidPlatform, "Invalid or missing platform ID")
	}

	id, err := s.alloc.Next(ctx)
	if err != nil {
		return nil, storageError(err)
	}

	name := up.Name
	if name == "" {
		name = manifest.Name
	}
	if name == "" {
		name = "Untitled"
	}
	if s.filter.Check(name) {
		return nil, fail(CodeInappropriateContent, "Project name contains inappropriate language")
	}

	description := up.Description
	if s.filter.Check(description) {
		description = ""
	}

	s.writeAssets(result.Assets)

	hasThumbnail := false
	if up.ThumbnailPath != "" {
		if up.ThumbnailSize > MaxThumbnailSize {
			return nil, fail(CodePayloadTooLarge, "Thumbnail exceeds 2MB limit")
		}
		thumbName := fmt.Sprintf("thumb_%s%s", id, filepath.Ext(up.ThumbnailName))
		if err := os.Rename(up.ThumbnailPath, filepath.Join(s.assetsDir, thumbName)); err != nil {
			return nil, storageError(fmt.Errorf("failed to store thumbnail: %w", err))
		}
		hasThumbnail = true
	}

	project := &models.Project{
		ID:          id,
		Author:      up.Author,
		Name:        name,
		Description: description,
		LangID:      langID,
		Metadata:    result.Manifest,
		Thumbnail:   hasThumbnail,
		CreatedAt:   s.now().UnixMilli(),
	}
	value, err := json.Marshal(project)
	if err != nil {
		return nil, storageError(err)
	}
	if err := s.store.Put(ctx, storage.ProjectPrefix+id, value); err != nil {
		return nil, storageError(err)
	}

	s.updateIndexes(ctx, project)

	log.Printf("Ingested project %s (%s) by %q", id, name, up.Author)
	return project, nil
}

// writeAssets persists extracted assets with create-if-absent
// semantics: an existing asset of the same name keeps its bytes, and
// individual write failures never abort the ingestion.
func (s *Service) writeAssets(assets []archive.Asset) {
	for _, asset := range assets {
		if err := writeIfAbsent(filepath.Join(s.assetsDir, asset.Name), asset.Data); err != nil {
			log.Printf("Skipping asset %s: %v", asset.Name, err)
		}
	}
}

func writeIfAbsent(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil
		}
		return err
	}
	_, werr := f.Write(data)
	cerr := f.Close()
	if werr != nil {
		return werr
	}
	return cerr
}

// updateIndexes appends to the recency list and the per-user index.
// The record is already persisted, so index failures are logged and
// swallowed rather than turning a successful ingestion into an error.
func (s *Service) updateIndexes(ctx context.Context, project *models.Project) {
	if err := s.recent.Append(ctx, project.ID); err != nil {
		log.Printf("Failed to update recency index for project %s: %v", project.ID, err)
	}

	if project.Author == "" {
		return
	}
	key := storage.UserProjectsPrefix + project.Author + ":" + project.ID
	value, err := json.Marshal(project.ID)
	if err == nil {
		err = s.store.Put(ctx, key, value)
	}
	if err != nil {
		log.Printf("Failed to update user index for project %s: %v", project.ID, err)
	}
}

func extractError(err error) *Error {
	var tooLarge *archive.TooLargeError
	switch {
	case errors.Is(err, archive.ErrMissingManifest):
		return &Error{Code: CodeMissingManifest, Message: "ZIP must contain project.json", Err: err}
	case errors.As(err, &tooLarge):
		return &Error{Code: CodePayloadTooLarge, Message: tooLarge.Error(), Err: err}
	}
	return &Error{Code: CodeBadRequest, Message: "Upload processing failed", Err: err}
}
