package artifact

import (
	"strings"
	"time"
)

// DefaultBlobSegment is the path segment between the project root and the commit
// hash in a hosted blob link (GitLab layout).
const DefaultBlobSegment = "-/blob"

// Record is one report row: a file modification attributed to a task.
type Record struct {
	Task        string     `json:"task"        yaml:"task"`
	HasTask     bool       `json:"-"           yaml:"-"`
	Change      ChangeType `json:"type"        yaml:"type"`
	Path        string     `json:"file"        yaml:"file"`
	CommittedAt time.Time  `json:"date"        yaml:"date"`
	BlobURL     string     `json:"blob_url"    yaml:"blob_url"`
	CommitHash  string     `json:"commit_hash" yaml:"commit_hash"`
}

// Key returns the deduplication key: the path followed by the task id.
func (r Record) Key() string {
	return r.Path + r.Task
}

// RecordBuilder composes records for modifications of a single project.
type RecordBuilder struct {
	// BaseURL is the resolved web root, e.g. https://gitlab.com/group/project.
	BaseURL string
	// BlobSegment defaults to DefaultBlobSegment when empty.
	BlobSegment string
}

// Build composes the record for one modification within its owning commit.
func (b RecordBuilder) Build(commit Commit, mod Modification) Record {
	task, hasTask := ExtractTask(commit.Message)
	path := mod.Path()

	return Record{
		Task:        task,
		HasTask:     hasTask,
		Change:      mod.Change,
		Path:        path,
		CommittedAt: commit.CommittedAt,
		BlobURL:     b.blobURL(commit.Hash, path),
		CommitHash:  commit.Hash,
	}
}

func (b RecordBuilder) blobURL(hash, path string) string {
	segment := b.BlobSegment
	if segment == "" {
		segment = DefaultBlobSegment
	}

	segment = strings.Trim(segment, "/")

	return b.BaseURL + "/" + segment + "/" + hash + "/" + path
}
