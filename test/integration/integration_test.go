package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/chemostats/workbench/internal/domain/analysis"
	"github.com/chemostats/workbench/internal/testserver"
)

const plasmaCSV = `SampleID,Group,DATA,Glucose,Lactate,Alanine,Citrate
S1,1,,5.2,1.1,0.43,0.12
S2,1,,5.4,1.0,0.45,0.11
S3,1,,5.1,1.2,0.44,0.13
S4,1,,5.3,1.1,0.46,0.12
S5,2,,7.9,2.1,0.91,0.25
S6,2,,8.2,2.0,0.88,0.24
S7,2,,8.0,2.2,0.90,0.26
S8,2,,8.1,2.1,0.89,0.25
`

// echoModel answers every chat with a fixed reply.
type echoModel struct{ reply string }

func (m *echoModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.reply}}}, nil
}

func (m *echoModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return m.reply, nil
}

func uploadRequest(t *testing.T, url string, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "plasma.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(plasmaCSV))
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())

	req, err := http.NewRequest(http.MethodPost, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestIntegration_PreviewAnalyzeExport(t *testing.T) {
	ts := testserver.New(t, nil)

	// Preview
	resp, err := http.DefaultClient.Do(uploadRequest(t, ts.Server.URL+"/api/preview", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var preview struct {
		TriggerFound bool `json:"trigger_found"`
		NumVariables int  `json:"num_variables"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&preview))
	require.True(t, preview.TriggerFound)
	require.Equal(t, 4, preview.NumVariables)

	// ANOVA
	resp, err = http.DefaultClient.Do(uploadRequest(t, ts.Server.URL+"/api/analyze/anova", map[string]string{
		"class_column": "Group",
	}))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result analysis.AnovaResult
	payload := new(bytes.Buffer)
	require.NoError(t, json.NewDecoder(io.TeeReader(resp.Body, payload)).Decode(&result))
	require.Equal(t, 4, result.Summary.TotalVariables)
	require.Equal(t, 2, result.Summary.NumGroups)
	require.Greater(t, result.Summary.BenjaminiSignificant, 0)

	// Export the same payload back
	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+"/api/export/anova", payload)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", resp.Header.Get("Content-Type"))
}

func TestIntegration_ChatFlow(t *testing.T) {
	ts := testserver.New(t, &echoModel{reply: "Glucose separates the two groups."})
	ctx := context.Background()

	// Run ANOVA and store its summary as assistant context.
	resp, err := http.DefaultClient.Do(uploadRequest(t, ts.Server.URL+"/api/analyze/anova", map[string]string{
		"class_column": "Group",
	}))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result analysis.AnovaResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	require.NoError(t, ts.Assistant.StoreAnovaContext(ctx, "file-1", &result))

	// Chat about it.
	chatPayload := []byte(`{"file_id":"file-1","message":"what separates the groups?","file_name":"plasma.csv"}`)
	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+"/api/chat", bytes.NewReader(chatPayload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var chat struct {
		Response string `json:"response"`
		FileID   string `json:"file_id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&chat))
	require.Equal(t, "Glucose separates the two groups.", chat.Response)

	// History now has both turns and the stored context.
	resp, err = http.Get(ts.Server.URL + "/api/chat/history/file-1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var history struct {
		History     []map[string]any `json:"history"`
		HasContext  bool             `json:"has_context"`
		ContextType string           `json:"context_type"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&history))
	require.Len(t, history.History, 2)
	require.True(t, history.HasContext)
	require.Equal(t, "anova", history.ContextType)

	// Clear and verify.
	req, err = http.NewRequest(http.MethodDelete, ts.Server.URL+"/api/chat/context/file-1", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	stored, err := ts.Memory.GetContext(ctx, "file-1")
	require.NoError(t, err)
	require.Nil(t, stored)
}

func TestIntegration_PCA(t *testing.T) {
	ts := testserver.New(t, nil)

	resp, err := http.DefaultClient.Do(uploadRequest(t, ts.Server.URL+"/api/analyze/pca", map[string]string{
		"num_pcs":        "2",
		"scaling_method": "pareto",
	}))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result analysis.PCAResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	require.Equal(t, 2, result.Summary.NumComponents)
	require.Equal(t, "pareto", result.Summary.ScalingMethod)
	require.Len(t, result.Scores, 8)
	require.Len(t, result.Loadings, 4)
}

func TestIntegration_WorkspaceState(t *testing.T) {
	ts := testserver.New(t, nil)

	projectID := ts.Store.CreateProject("Plasma study")
	tableID := ts.Store.CreateTable(projectID, "plasma", "plasma.csv", []byte(plasmaCSV), "")

	resp, err := http.Get(ts.Server.URL + "/api/workspace")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snap struct {
		Projects []struct {
			ID     string `json:"id"`
			Tables []struct {
				ID string `json:"id"`
			} `json:"tables"`
		} `json:"projects"`
		ActiveProjectID string `json:"active_project_id"`
		ActiveTableID   string `json:"active_table_id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	require.Len(t, snap.Projects, 1)
	require.Equal(t, projectID, snap.ActiveProjectID)
	require.Equal(t, tableID, snap.ActiveTableID)
	require.Len(t, snap.Projects[0].Tables, 1)
}
