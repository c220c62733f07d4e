// Package model provides data transfer objects and domain models for the diff module.
package model

// UploadDiffRequest represents the request to upload a draft diff.
type UploadDiffRequest struct {
	// Path is the diff content itself.
	Path         string `json:"path"    binding:"required"`
	Basedir      string `json:"basedir"`
	BaseCommitID string `json:"base_commit_id"`
	Name         string `json:"name"`
}

// DiffSetResponse represents a diffset in API responses.
type DiffSetResponse struct {
	ID           uint64             `json:"id"`
	Revision     int                `json:"revision"`
	Name         string             `json:"name"`
	Basedir      string             `json:"basedir"`
	BaseCommitID string             `json:"base_commit_id,omitempty"`
	Files        []FileDiffResponse `json:"files"`
}

// FileDiffResponse represents a filediff in API responses.
type FileDiffResponse struct {
	ID             uint64 `json:"id"`
	SourceFile     string `json:"source_file"`
	DestFile       string `json:"dest_file"`
	SourceRevision string `json:"source_revision,omitempty"`
}

// NewDiffSetResponse builds a DiffSetResponse from a diffset entity.
func NewDiffSetResponse(ds *DiffSet) *DiffSetResponse {
	files := make([]FileDiffResponse, 0, len(ds.FileDiffs))
	for i := range ds.FileDiffs {
		fd := &ds.FileDiffs[i]
		files = append(files, FileDiffResponse{
			ID:             fd.ID,
			SourceFile:     fd.SourceFile,
			DestFile:       fd.DestFile,
			SourceRevision: fd.SourceRevision,
		})
	}
	return &DiffSetResponse{
		ID:           ds.ID,
		Revision:     ds.Revision,
		Name:         ds.Name,
		Basedir:      ds.Basedir,
		BaseCommitID: ds.BaseCommitID,
		Files:        files,
	}
}
