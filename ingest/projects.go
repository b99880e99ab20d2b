package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sort"

	"telewarp/models"
	"telewarp/storage"
)

// moderationLimit caps the moderation listing.
const moderationLimit = 50

// Get fetches one project record.
func (s *Service) Get(ctx context.Context, id string) (*models.Project, error) {
	raw, err := s.store.Get(ctx, storage.ProjectPrefix+id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fail(CodeNotFound, "Project not found")
	}
	if err != nil {
		return nil, storageError(err)
	}

	var project models.Project
	if err := json.Unmarshal(raw, &project); err != nil {
		return nil, storageError(err)
	}
	return &project, nil
}

// RecentProjects resolves the recency index to full records, newest
// first. Ids whose record has gone missing are skipped.
func (s *Service) RecentProjects(ctx context.Context) []models.Project {
	ids := s.recent.List(ctx)

	projects := make([]models.Project, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		project, err := s.Get(ctx, ids[i])
		if err != nil {
			log.Printf("Missing or failed project lookup for id %s", ids[i])
			continue
		}
		projects = append(projects, *project)
	}
	return projects
}

// AllProjects scans every project record for the moderation listing,
// newest first, capped at 50.
func (s *Service) AllProjects(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	err := s.store.Iterate(ctx, storage.ProjectPrefix, storage.PrefixEnd(storage.ProjectPrefix),
		func(key string, value []byte) error {
			var project models.Project
			if err := json.Unmarshal(value, &project); err != nil {
				log.Printf("Skipping undecodable project record %s: %v", key, err)
				return nil
			}
			projects = append(projects, project)
			return nil
		})
	if err != nil {
		return nil, storageError(err)
	}

	sort.Slice(projects, func(i, j int) bool {
		return projects[i].CreatedAt > projects[j].CreatedAt
	})
	if len(projects) > moderationLimit {
		projects = projects[:moderationLimit]
	}
	return projects, nil
}

// UserProjects returns the ids of one user's projects from the
// per-user index.
func (s *Service) UserProjects(ctx context.Context, username string) ([]string, error) {
	prefix := storage.UserProjectsPrefix + username + ":"
	ids := []string{}
	err := s.store.Iterate(ctx, prefix, storage.PrefixEnd(prefix),
		func(key string, value []byte) error {
			var id string
			if err := json.Unmarshal(value, &id); err != nil {
				return nil
			}
			ids = append(ids, id)
			return nil
		})
	if err != nil {
		return nil, storageError(err)
	}
	return ids, nil
}

// Flag marks a project for moderation review.
func (s *Service) Flag(ctx context.Context, id string) error {
	project, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	project.Flagged = true
	value, err := json.Marshal(project)
	if err != nil {
		return storageError(err)
	}
	if err := s.store.Put(ctx, storage.ProjectPrefix+id, value); err != nil {
		return storageError(err)
	}
	return nil
}

// Delete removes a project record. Asset files stay on disk since
// they may be shared with other projects.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, storage.ProjectPrefix+id); err != nil {
		return storageError(err)
	}
	return nil
}
