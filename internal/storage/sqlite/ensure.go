package sqlite

import "github.com/felixgeelhaar/lessonplay/internal/progress"

// Ensure SQLite stores implement the storage interfaces.
var (
	_ progress.Store         = (*ProgressStore)(nil)
	_ progress.CompletionLog = (*ProgressStore)(nil)
)
