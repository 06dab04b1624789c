package domain

// ProgressRecord is a learner's completed-chapter counts per lesson key.
// It is owned by the profile collaborator; the engine only reads it.
type ProgressRecord struct {
	LearnerID string         `json:"learner_id,omitempty"`
	Completed map[string]int `json:"completed"`
	Loaded    bool           `json:"is_loaded"`
	Empty     bool           `json:"is_empty"` // anonymous, no profile
}

// NewProgressRecord creates a loaded record for a learner
func NewProgressRecord(learnerID string) ProgressRecord {
	return ProgressRecord{
		LearnerID: learnerID,
		Completed: make(map[string]int),
		Loaded:    true,
		Empty:     learnerID == "",
	}
}

// AnonymousProgress returns the record used when no learner is signed in
func AnonymousProgress() ProgressRecord {
	return NewProgressRecord("")
}

// CompletedCount returns the completed chapter count for a lesson key.
// Absent keys, negative values and unloaded records all read as 0.
func (p ProgressRecord) CompletedCount(lessonKey string) int {
	if !p.Loaded || p.Completed == nil {
		return 0
	}
	return max(0, p.Completed[lessonKey])
}

// Meaningful reports whether progress should be shown to the learner
func (p ProgressRecord) Meaningful() bool {
	return p.Loaded && !p.Empty
}

// Advance raises the completed count for a lesson key to at least count.
// It never lowers a count and reports whether the record changed.
func (p *ProgressRecord) Advance(lessonKey string, count int) bool {
	if p.Completed == nil {
		p.Completed = make(map[string]int)
	}
	if count <= p.Completed[lessonKey] {
		return false
	}
	p.Completed[lessonKey] = count
	return true
}
