package hierarchy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPickFocus(t *testing.T) {
	tests := []struct {
		name     string
		projects []Project
		wantID   string
	}{
		{
			name:     "empty set yields no focus",
			projects: nil,
			wantID:   "",
		},
		{
			name: "single project wins even when idle",
			projects: []Project{
				{ID: "proj_1", ActiveTaskCount: 0, TaskCount: 3},
			},
			wantID: "proj_1",
		},
		{
			name: "higher active task count wins",
			projects: []Project{
				{ID: "proj_1", ActiveTaskCount: 1, TaskCount: 10},
				{ID: "proj_2", ActiveTaskCount: 3, TaskCount: 4},
			},
			wantID: "proj_2",
		},
		{
			name: "total task count breaks active ties",
			projects: []Project{
				{ID: "proj_1", ActiveTaskCount: 2, TaskCount: 5},
				{ID: "proj_2", ActiveTaskCount: 2, TaskCount: 9},
			},
			wantID: "proj_2",
		},
		{
			name: "full tie keeps the first encountered",
			projects: []Project{
				{ID: "proj_1", ActiveTaskCount: 2, TaskCount: 5},
				{ID: "proj_2", ActiveTaskCount: 2, TaskCount: 5},
				{ID: "proj_3", ActiveTaskCount: 2, TaskCount: 5},
			},
			wantID: "proj_1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PickFocus(tt.projects)
			if tt.wantID == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}
}

func TestPickFocus_DoesNotReorderInput(t *testing.T) {
	projects := []Project{
		{ID: "proj_1", ActiveTaskCount: 0},
		{ID: "proj_2", ActiveTaskCount: 5},
		{ID: "proj_3", ActiveTaskCount: 2},
	}

	got := PickFocus(projects)
	require.NotNil(t, got)
	assert.Equal(t, "proj_2", got.ID)
	assert.Equal(t, "proj_1", projects[0].ID)
	assert.Equal(t, "proj_3", projects[2].ID)
}
