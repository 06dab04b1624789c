package progression

// Bounds tells the chapter view which navigation controls apply
type Bounds struct {
	IsLessThanOne      bool `json:"is_less_than_one"`      // no previous chapter
	IsGreaterThanTotal bool `json:"is_greater_than_total"` // at or past the last chapter
}

// IsLessThanOne reports whether index is at or before the first chapter
func IsLessThanOne(index int) bool {
	return index <= 0
}

// IsGreaterThanTotal reports whether index is at or past the last chapter.
// For total 0 every index qualifies.
func IsGreaterThanTotal(index, total int) bool {
	return index >= total-1
}

// ComputeBounds evaluates both guards for a chapter index
func ComputeBounds(index, total int) Bounds {
	return Bounds{
		IsLessThanOne:      IsLessThanOne(index),
		IsGreaterThanTotal: IsGreaterThanTotal(index, total),
	}
}

// Step is the input for the chapter step indicator
type Step struct {
	Current int `json:"current"` // 1-based
	Total   int `json:"total"`
}

// StepProgress returns the step indicator position for a chapter index,
// clamped into [1, total]. An empty lesson yields the zero Step.
func StepProgress(index, total int) Step {
	if total <= 0 {
		return Step{}
	}
	current := index + 1
	if current < 1 {
		current = 1
	}
	if current > total {
		current = total
	}
	return Step{Current: current, Total: total}
}
