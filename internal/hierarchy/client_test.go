package hierarchy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ccerrors "github.com/wherecode/command-console/internal/errors"
)

func setupTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient(server.URL, "test-token", 5*time.Second, zerolog.Nop())
	client.SetHTTPClient(server.Client())
	return client
}

func TestClient_AttachesTokenHeader(t *testing.T) {
	var gotToken string
	client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get(TokenHeader)
		json.NewEncoder(w).Encode([]Project{})
	})

	_, err := client.ListProjects(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "test-token", gotToken)
}

func TestClient_ListProjects(t *testing.T) {
	client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/projects", r.URL.Path)
		json.NewEncoder(w).Encode([]Project{
			{ID: "proj_1", Name: "wherecode-mobile", Status: ProjectActive, TaskCount: 3, ActiveTaskCount: 1},
			{ID: "proj_2", Name: "wherecode-web", Status: ProjectPaused},
		})
	})

	projects, err := client.ListProjects(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "proj_1", projects[0].ID)
	assert.Equal(t, ProjectPaused, projects[1].Status)
}

func TestClient_CreateProject_ValidationRejected(t *testing.T) {
	client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"detail": "name must not be empty"})
	})

	_, err := client.CreateProject(context.Background(), CreateProjectInput{Name: ""})
	require.Error(t, err)

	assert.Equal(t, http.StatusUnprocessableEntity, ccerrors.StatusOf(err))
	assert.Contains(t, err.Error(), "name must not be empty")
}

func TestClient_RequestError_UnparsableBody(t *testing.T) {
	client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>nope</html>"))
	})

	_, err := client.GetTask(context.Background(), "task_1")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, ccerrors.StatusOf(err))
	assert.Equal(t, "HTTP 502", err.Error())
}

func TestClient_AuthRejection(t *testing.T) {
	client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"detail": "invalid token"})
	})

	_, err := client.ListProjects(context.Background())
	require.Error(t, err)
	assert.True(t, ccerrors.IsAuth(err))
	assert.False(t, ccerrors.IsRetryable(err))
}

func TestClient_NetworkError(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "tok", 500*time.Millisecond, zerolog.Nop())

	_, err := client.ListProjects(context.Background())
	require.Error(t, err)
	assert.True(t, ccerrors.IsNetwork(err))
	assert.True(t, ccerrors.IsRetryable(err))
}

func TestClient_DecodeError(t *testing.T) {
	client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	})

	_, err := client.GetCommand(context.Background(), "cmd_1")
	require.Error(t, err)

	var de *ccerrors.DecodeError
	assert.ErrorAs(t, err, &de)
}

func TestClient_SubmitCommand_ReturnsEnvelope(t *testing.T) {
	client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/tasks/task_1/commands", r.URL.Path)

		var input CreateCommandInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&input))
		assert.Equal(t, "run the smoke tests", input.Text)
		assert.True(t, input.RequiresApproval)

		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(CommandAccepted{
			CommandID: "cmd_abc",
			TaskID:    "task_1",
			ProjectID: "proj_1",
			Status:    CommandWaitingApproval,
			PollURL:   "/commands/cmd_abc",
		})
	})

	accepted, err := client.SubmitCommand(context.Background(), "task_1", CreateCommandInput{
		Text:             "run the smoke tests",
		RequiresApproval: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "cmd_abc", accepted.CommandID)
	assert.Equal(t, CommandWaitingApproval, accepted.Status)
	assert.Equal(t, "/commands/cmd_abc", accepted.PollURL)
}

func TestClient_ListCommands_SortsBySequence(t *testing.T) {
	client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]Command{
			{ID: "cmd_3", Sequence: 3},
			{ID: "cmd_1", Sequence: 1},
			{ID: "cmd_2", Sequence: 2},
		})
	})

	commands, err := client.ListCommands(context.Background(), "task_1")
	require.NoError(t, err)
	require.Len(t, commands, 3)
	for i, cmd := range commands {
		assert.Equal(t, i+1, cmd.Sequence)
	}
}

func TestClient_ApproveCommand_ConflictSurfaced(t *testing.T) {
	client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/commands/cmd_1/approve", r.URL.Path)
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"detail": "command is not waiting approval"})
	})

	_, err := client.ApproveCommand(context.Background(), "cmd_1", "andy")
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, ccerrors.StatusOf(err))
}

func TestClient_GetProjectSnapshot(t *testing.T) {
	client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/projects/proj_1/snapshot", r.URL.Path)
		json.NewEncoder(w).Encode(ProjectDetail{
			Project: Project{ID: "proj_1", Name: "wherecode-mobile"},
			Tasks: []TaskDetail{
				{
					Task:     Task{ID: "task_1", ProjectID: "proj_1", Title: "login rework"},
					Commands: []Command{{ID: "cmd_1", Sequence: 1, Status: CommandSuccess}},
				},
			},
		})
	})

	detail, err := client.GetProjectSnapshot(context.Background(), "proj_1")
	require.NoError(t, err)
	require.Len(t, detail.Tasks, 1)
	assert.Equal(t, "task_1", detail.Tasks[0].ID)
	require.Len(t, detail.Tasks[0].Commands, 1)
}

func TestClient_SnapshotAll_FansOut(t *testing.T) {
	client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/projects":
			json.NewEncoder(w).Encode([]Project{{ID: "proj_1"}, {ID: "proj_2"}})
		case "/projects/proj_1/snapshot":
			json.NewEncoder(w).Encode(ProjectDetail{Project: Project{ID: "proj_1"}})
		case "/projects/proj_2/snapshot":
			json.NewEncoder(w).Encode(ProjectDetail{Project: Project{ID: "proj_2"}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	details, err := client.SnapshotAll(context.Background())
	require.NoError(t, err)
	require.Len(t, details, 2)
	// Project-list order survives the concurrent fetch.
	assert.Equal(t, "proj_1", details[0].ID)
	assert.Equal(t, "proj_2", details[1].ID)
}

func TestCommand_RoundTripPreservesAbsentFields(t *testing.T) {
	payload := []byte(`{
		"id": "cmd_1",
		"project_id": "proj_1",
		"task_id": "task_1",
		"sequence": 1,
		"text": "refactor login",
		"source": "user",
		"status": "queued",
		"requires_approval": false,
		"created_at": "2026-01-05T10:00:00Z",
		"updated_at": "2026-01-05T10:00:00Z",
		"metadata": {}
	}`)

	var cmd Command
	require.NoError(t, json.Unmarshal(payload, &cmd))
	assert.Nil(t, cmd.OutputSummary)
	assert.Nil(t, cmd.ErrorMessage)
	assert.Nil(t, cmd.ApprovedBy)
	assert.Nil(t, cmd.StartedAt)
	assert.Nil(t, cmd.FinishedAt)

	encoded, err := json.Marshal(cmd)
	require.NoError(t, err)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(encoded, &fields))
	assert.NotContains(t, fields, "output_summary")
	assert.NotContains(t, fields, "error_message")
	assert.NotContains(t, fields, "approved_by")
	assert.NotContains(t, fields, "started_at")
	assert.NotContains(t, fields, "finished_at")
	assert.Contains(t, fields, "requires_approval")
}

func TestCommand_RoundTripPreservesPresentFields(t *testing.T) {
	summary := "mock execution completed"
	approved := "andy"
	cmd := Command{
		ID:            "cmd_1",
		ProjectID:     "proj_1",
		TaskID:        "task_1",
		Sequence:      4,
		Text:          "deploy staging",
		Source:        SourceUser,
		Status:        CommandSuccess,
		OutputSummary: &summary,
		ApprovedBy:    &approved,
	}

	encoded, err := json.Marshal(cmd)
	require.NoError(t, err)

	var decoded Command
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	require.NotNil(t, decoded.OutputSummary)
	assert.Equal(t, summary, *decoded.OutputSummary)
	require.NotNil(t, decoded.ApprovedBy)
	assert.Equal(t, approved, *decoded.ApprovedBy)
	assert.Nil(t, decoded.ErrorMessage)
}

func TestCommand_Body(t *testing.T) {
	out := "all tests passed"
	errMsg := "compile failed"

	assert.Equal(t, "run tests", Command{Text: "run tests"}.Body())
	assert.Equal(t, out, Command{Text: "run tests", OutputSummary: &out}.Body())
	assert.Equal(t, errMsg, Command{Text: "run tests", ErrorMessage: &errMsg}.Body())
	assert.Equal(t, out, Command{Text: "run tests", OutputSummary: &out, ErrorMessage: &errMsg}.Body())
}

func TestClient_Healthz(t *testing.T) {
	client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/healthz", r.URL.Path)
		json.NewEncoder(w).Encode(HealthPayload{Status: "ok", Transport: "http-async"})
	})

	payload, err := client.Healthz(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", payload.Status)
}
