package hierarchy

// PickFocus chooses the most relevant project for default selection: the one
// with the most active tasks, then the most tasks overall, then the first
// encountered. Returns nil for an empty input. The input slice is never
// reordered.
func PickFocus(projects []Project) *Project {
	if len(projects) == 0 {
		return nil
	}

	best := 0
	for i := 1; i < len(projects); i++ {
		switch {
		case projects[i].ActiveTaskCount > projects[best].ActiveTaskCount:
			best = i
		case projects[i].ActiveTaskCount == projects[best].ActiveTaskCount &&
			projects[i].TaskCount > projects[best].TaskCount:
			best = i
		}
	}
	return &projects[best]
}
