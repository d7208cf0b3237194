package mcp

import (
	"context"
	"encoding/base64"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/chemostats/workbench/internal/domain/analysis"
	"github.com/chemostats/workbench/internal/domain/workspace"
)

const testCSV = `SampleID,Group,DATA,Glucose,Lactate,Alanine
S1,1,,5.2,1.1,0.43
S2,1,,5.4,1.0,0.45
S3,1,,5.1,1.2,0.44
S4,2,,7.9,2.1,0.91
S5,2,,8.2,2.0,0.88
S6,2,,8.0,2.2,0.90
`

type testHarness struct {
	store   *workspace.Store
	session *sdkmcp.ClientSession
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()
	ctx := context.Background()

	store := workspace.NewStore(nil)
	srv := NewServer(Config{
		Store: store,
		Anova: analysis.NewAnovaAnalyzer(0, nil),
		PCA:   analysis.NewPCAAnalyzer(nil),
	})

	serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()

	serverSession, err := srv.MCP().Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)
	clientSession, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = clientSession.Close() })

	return &testHarness{store: store, session: clientSession}
}

func (h *testHarness) call(t *testing.T, name string, args map[string]any) *sdkmcp.CallToolResult {
	t.Helper()
	result, err := h.session.CallTool(context.Background(), &sdkmcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	require.NoError(t, err, "CallTool %s failed", name)
	require.False(t, result.IsError, "tool %s returned error: %v", name, result.Content)
	return result
}

func structured(t *testing.T, result *sdkmcp.CallToolResult) map[string]any {
	t.Helper()
	out, ok := result.StructuredContent.(map[string]any)
	require.True(t, ok, "expected structured content, got %T", result.StructuredContent)
	return out
}

func TestServer_ListTools(t *testing.T) {
	h := newTestHarness(t)

	tools, err := h.session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, tool := range tools.Tools {
		names[tool.Name] = true
	}
	for _, expected := range []string{
		"create_project", "delete_project", "rename_item",
		"create_folder", "delete_folder",
		"upload_table", "delete_table",
		"set_active_project", "set_active_folder", "set_active_table",
		"get_workspace",
		"preview_table", "run_anova", "run_pca", "export_anova",
		"chat", "get_chat_history", "clear_chat_context",
	} {
		require.True(t, names[expected], "missing tool %s", expected)
	}
}

func TestServer_ProjectLifecycle(t *testing.T) {
	h := newTestHarness(t)

	result := h.call(t, "create_project", map[string]any{"name": "Metabolomics"})
	projectID, _ := structured(t, result)["project_id"].(string)
	require.NotEmpty(t, projectID)

	snap := h.store.Snapshot()
	require.Len(t, snap.Projects, 1)
	require.Equal(t, projectID, snap.ActiveProjectID)

	h.call(t, "rename_item", map[string]any{"project_id": projectID, "name": "Plasma study"})
	require.Equal(t, "Plasma study", h.store.Snapshot().Projects[0].Name)

	h.call(t, "delete_project", map[string]any{"project_id": projectID})
	snap = h.store.Snapshot()
	require.Empty(t, snap.Projects)
	require.Empty(t, snap.ActiveProjectID)
}

func TestServer_UploadAndAnalyze(t *testing.T) {
	h := newTestHarness(t)

	result := h.call(t, "create_project", map[string]any{"name": "Study"})
	projectID, _ := structured(t, result)["project_id"].(string)

	result = h.call(t, "upload_table", map[string]any{
		"project_id":     projectID,
		"name":           "plasma",
		"filename":       "plasma.csv",
		"content_base64": base64.StdEncoding.EncodeToString([]byte(testCSV)),
	})
	out := structured(t, result)
	tableID, _ := out["table_id"].(string)
	require.NotEmpty(t, tableID)
	require.NotNil(t, out["preview"])

	table, ok := h.store.FindTable(projectID, tableID)
	require.True(t, ok)
	require.NotNil(t, table.Preview)
	require.True(t, table.Preview.TriggerFound)
	require.Equal(t, []string{"Glucose", "Lactate", "Alanine"}, table.Preview.VariableNames)

	h.call(t, "run_anova", map[string]any{
		"project_id":   projectID,
		"table_id":     tableID,
		"class_column": "Group",
	})

	table, _ = h.store.FindTable(projectID, tableID)
	require.NotNil(t, table.Analysis)
	require.Equal(t, workspace.StatusComplete, table.Analysis.Status)
	require.NotNil(t, table.Analysis.Anova)
	require.Equal(t, 3, table.Analysis.Anova.Summary.TotalVariables)

	result = h.call(t, "export_anova", map[string]any{
		"project_id": projectID,
		"table_id":   tableID,
	})
	content, _ := structured(t, result)["content_base64"].(string)
	require.NotEmpty(t, content)
	workbook, err := base64.StdEncoding.DecodeString(content)
	require.NoError(t, err)
	require.NotEmpty(t, workbook)
}

func TestServer_RunPCA(t *testing.T) {
	h := newTestHarness(t)

	result := h.call(t, "create_project", map[string]any{"name": "Study"})
	projectID, _ := structured(t, result)["project_id"].(string)

	result = h.call(t, "upload_table", map[string]any{
		"project_id":     projectID,
		"name":           "plasma",
		"filename":       "plasma.csv",
		"content_base64": base64.StdEncoding.EncodeToString([]byte(testCSV)),
	})
	tableID, _ := structured(t, result)["table_id"].(string)

	h.call(t, "run_pca", map[string]any{
		"project_id": projectID,
		"table_id":   tableID,
		"num_pcs":    2,
	})

	table, _ := h.store.FindTable(projectID, tableID)
	require.Equal(t, workspace.StatusComplete, table.Analysis.Status)
	require.NotNil(t, table.Analysis.PCA)
	require.Equal(t, 2, table.Analysis.PCA.Summary.NumComponents)
}

func TestServer_AnalysisErrorRecorded(t *testing.T) {
	h := newTestHarness(t)

	result := h.call(t, "create_project", map[string]any{"name": "Study"})
	projectID, _ := structured(t, result)["project_id"].(string)

	// Single group: ANOVA cannot run.
	badCSV := "Group,VarA,VarB\n1,1.0,2.0\n1,1.1,2.1\n1,1.2,2.2\n"
	result = h.call(t, "upload_table", map[string]any{
		"project_id":     projectID,
		"name":           "bad",
		"filename":       "bad.csv",
		"content_base64": base64.StdEncoding.EncodeToString([]byte(badCSV)),
	})
	tableID, _ := structured(t, result)["table_id"].(string)

	callResult, err := h.session.CallTool(context.Background(), &sdkmcp.CallToolParams{
		Name: "run_anova",
		Arguments: map[string]any{
			"project_id":   projectID,
			"table_id":     tableID,
			"class_column": "Group",
		},
	})
	require.NoError(t, err)
	require.True(t, callResult.IsError)

	table, _ := h.store.FindTable(projectID, tableID)
	require.Equal(t, workspace.StatusError, table.Analysis.Status)
	require.NotEmpty(t, table.Analysis.Error)
}

func TestServer_FolderSubtreeDeletion(t *testing.T) {
	h := newTestHarness(t)

	result := h.call(t, "create_project", map[string]any{"name": "Study"})
	projectID, _ := structured(t, result)["project_id"].(string)

	result = h.call(t, "create_folder", map[string]any{"project_id": projectID, "name": "outer"})
	outerID, _ := structured(t, result)["folder_id"].(string)
	require.NotEmpty(t, outerID)

	result = h.call(t, "create_folder", map[string]any{
		"project_id": projectID, "name": "inner", "parent_folder_id": outerID,
	})
	innerID, _ := structured(t, result)["folder_id"].(string)
	require.NotEmpty(t, innerID)

	result = h.call(t, "upload_table", map[string]any{
		"project_id":     projectID,
		"name":           "nested",
		"filename":       "nested.csv",
		"content_base64": base64.StdEncoding.EncodeToString([]byte(testCSV)),
		"folder_id":      innerID,
	})
	tableID, _ := structured(t, result)["table_id"].(string)
	require.NotEmpty(t, tableID)

	h.call(t, "delete_folder", map[string]any{"project_id": projectID, "folder_id": outerID})

	_, ok := h.store.FindTable(projectID, tableID)
	require.False(t, ok)
	require.Empty(t, h.store.Snapshot().Projects[0].Folders)
}

func TestServer_ChatNotConfigured(t *testing.T) {
	h := newTestHarness(t)

	result, err := h.session.CallTool(context.Background(), &sdkmcp.CallToolParams{
		Name:      "chat",
		Arguments: map[string]any{"message": "hello"},
	})
	require.NoError(t, err)
	require.True(t, result.IsError)
}
