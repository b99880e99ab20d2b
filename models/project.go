package models

import "encoding/json"

// Project is the stored metadata for one uploaded project.
// Metadata holds the raw project.json exactly as extracted from the
// archive; it is never re-shaped on the way through.
type Project struct {
	ID          string          `json:"id"`
	Author      string          `json:"author,omitempty"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	LangID      string          `json:"lang_id"`
	Metadata    json.RawMessage `json:"metadata"`
	Thumbnail   bool            `json:"thumbnail"`
	CreatedAt   int64           `json:"created_at"`
	Flagged     bool            `json:"flagged"`
}

// Manifest is the subset of project.json the pipeline itself reads.
// Everything else passes through untouched inside Project.Metadata.
type Manifest struct {
	Name   string `json:"name"`
	LangID string `json:"lang_id"`
}

// UploadResponse is returned on successful ingestion.
type UploadResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}

// ProjectsResponse is the response format for project listings.
type ProjectsResponse struct {
	Projects []Project `json:"projects"`
}
