package workspace

import (
	"time"

	"github.com/chemostats/workbench/internal/dataset"
	"github.com/chemostats/workbench/internal/domain/analysis"
)

// Project is a top-level container for tables and folders.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	Tables    []Table   `json:"tables"`
	Folders   []Folder  `json:"folders"`
}

// Folder groups tables inside a project. Folders nest arbitrarily deep.
// ParentID is informational only; containment is defined by the tree.
type Folder struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ParentID  *string   `json:"parent_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Tables    []Table   `json:"tables"`
	Folders   []Folder  `json:"folders"`
}

// Table is an uploaded dataset. File holds the raw payload for the
// lifetime of the session only; it is never persisted.
type Table struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Filename  string           `json:"filename"`
	CreatedAt time.Time        `json:"created_at"`
	File      []byte           `json:"-"`
	Preview   *dataset.Preview `json:"preview,omitempty"`
	Analysis  *AnalysisState   `json:"analysis,omitempty"`
}

// AnalysisStatus tracks the lifecycle of an analysis run.
type AnalysisStatus string

const (
	StatusIdle     AnalysisStatus = "idle"
	StatusRunning  AnalysisStatus = "running"
	StatusComplete AnalysisStatus = "complete"
	StatusError    AnalysisStatus = "error"
)

// AnalysisState is the per-table analysis record. Results are non-nil
// only when Status is StatusComplete; Error is non-empty only when
// Status is StatusError. The state is replaced wholesale on every run.
type AnalysisState struct {
	Status AnalysisStatus        `json:"status"`
	Method analysis.Method       `json:"method,omitempty"`
	Anova  *analysis.AnovaResult `json:"anova,omitempty"`
	PCA    *analysis.PCAResult   `json:"pca,omitempty"`
	Error  string                `json:"error,omitempty"`
}

// HasResults reports whether the state carries a completed payload.
func (a *AnalysisState) HasResults() bool {
	if a == nil || a.Status != StatusComplete {
		return false
	}
	return a.Anova != nil || a.PCA != nil
}

// ChatRole identifies the author of a chat message.
type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatMessage is one entry in the side chat log. Messages are never
// mutated after creation, only cleared in bulk.
type ChatMessage struct {
	ID         string      `json:"id"`
	Role       ChatRole    `json:"role"`
	Content    string      `json:"content"`
	Attachment *Attachment `json:"attachment,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// Attachment is a rendered chart image handed from one UI surface to
// the chat input.
type Attachment struct {
	Kind     string `json:"kind"`
	Filename string `json:"filename"`
	Data     []byte `json:"data"`
}

// Sidebar width bounds in pixels.
const (
	MinAISidebarWidth = 280
	MaxAISidebarWidth = 600
)

// UIState holds layout preferences.
type UIState struct {
	LeftSidebarOpen  bool `json:"left_sidebar_open"`
	RightSidebarOpen bool `json:"right_sidebar_open"`
	AISidebarWidth   int  `json:"ai_sidebar_width"`
}

// State is one immutable snapshot of the whole workspace. A snapshot is
// replaced wholesale on every mutation; readers never see a partial
// update.
type State struct {
	Projects        []Project     `json:"projects"`
	ActiveProjectID string        `json:"active_project_id,omitempty"`
	ActiveFolderID  string        `json:"active_folder_id,omitempty"`
	ActiveTableID   string        `json:"active_table_id,omitempty"`
	Chat            []ChatMessage `json:"chat"`
	ChatLoading     bool          `json:"chat_loading"`
	UI              UIState       `json:"ui"`
}
