package workspace

import (
	"log/slog"
	"sync"
	"time"

	"github.com/chemostats/workbench/internal/dataset"
)

// Store owns the project tree, the active selections, the chat log, and
// the UI preferences. All mutations are synchronous and atomic: each
// one replaces the published snapshot wholesale, so concurrent readers
// always observe a fully-formed prior or next state.
//
// Every id-addressed mutation on a missing target is a silent no-op.
// Ids can go stale between a render and the user action that follows
// it; surfacing that as an error would only push the race to callers.
type Store struct {
	mu     sync.RWMutex
	logger *slog.Logger

	order    []string
	projects map[string]*projectEntry

	activeProject string
	activeFolder  string
	activeTable   string

	chat        []ChatMessage
	chatLoading bool
	pending     *Attachment

	ui UIState

	snap *State // cached projection, nil after a mutation
}

type projectEntry struct {
	id        string
	name      string
	createdAt time.Time
	tree      *tree
}

// NewStore creates an empty workspace store.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		logger:   logger,
		projects: make(map[string]*projectEntry),
		ui: UIState{
			LeftSidebarOpen:  true,
			RightSidebarOpen: true,
			AISidebarWidth:   400,
		},
	}
}

// CreateProject adds an empty project, makes it active, and clears the
// active table and folder selections.
func (s *Store) CreateProject(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := newID()
	s.projects[id] = &projectEntry{
		id:        id,
		name:      name,
		createdAt: time.Now(),
		tree:      newTree(),
	}
	s.order = append(s.order, id)
	s.activeProject = id
	s.activeTable = ""
	s.activeFolder = ""
	s.dirty()

	s.logger.Debug("project created", "project_id", id, "name", name)
	return id
}

// DeleteProject removes the project. Selections pointing into it are
// cleared.
func (s *Store) DeleteProject(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[id]; !ok {
		return
	}
	delete(s.projects, id)
	s.order = removeID(s.order, id)
	if s.activeProject == id {
		s.activeProject = ""
		s.activeTable = ""
		s.activeFolder = ""
	}
	s.dirty()

	s.logger.Debug("project deleted", "project_id", id)
}

// RenameProject replaces the project name. Validation is the caller's
// concern.
func (s *Store) RenameProject(id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.projects[id]
	if !ok {
		return
	}
	entry.name = name
	s.dirty()
}

// SetActiveProject selects a project (empty id clears the selection)
// and drops the active table and folder, which belonged to the previous
// project.
func (s *Store) SetActiveProject(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.activeProject = id
	s.activeTable = ""
	s.activeFolder = ""
	s.dirty()
}

// CreateFolder inserts an empty folder under parentFolderID (empty for
// the project root) and returns its id. Returns "" when the project or
// parent folder does not exist.
func (s *Store) CreateFolder(projectID, name, parentFolderID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.projects[projectID]
	if !ok {
		return ""
	}

	f := Folder{
		ID:        newID(),
		Name:      name,
		CreatedAt: time.Now(),
	}
	if parentFolderID != "" {
		parent := parentFolderID
		f.ParentID = &parent
	}
	if !entry.tree.addFolder(parentFolderID, f) {
		return ""
	}
	s.dirty()

	s.logger.Debug("folder created", "project_id", projectID, "folder_id", f.ID, "parent_id", parentFolderID)
	return f.ID
}

// DeleteFolder removes the folder and its entire subtree. The active
// folder selection is cleared unconditionally.
func (s *Store) DeleteFolder(projectID, folderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.projects[projectID]
	if !ok {
		return
	}
	if entry.tree.removeFolder(folderID) {
		s.activeFolder = ""
		s.dirty()
		s.logger.Debug("folder deleted", "project_id", projectID, "folder_id", folderID)
	}
}

// RenameFolder replaces the folder name.
func (s *Store) RenameFolder(projectID, folderID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.projects[projectID]
	if !ok {
		return
	}
	if entry.tree.updateFolder(folderID, func(f *Folder) { f.Name = name }) {
		s.dirty()
	}
}

// SetActiveFolder selects a folder (empty id clears the selection).
func (s *Store) SetActiveFolder(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.activeFolder = id
	s.dirty()
}

// CreateTable inserts a table referencing the uploaded file payload
// under folderID (empty for the project root), makes it the active
// table, and returns its id. Returns "" when the project or folder does
// not exist.
func (s *Store) CreateTable(projectID, name, filename string, file []byte, folderID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.projects[projectID]
	if !ok {
		return ""
	}

	tbl := Table{
		ID:        newID(),
		Name:      name,
		Filename:  filename,
		CreatedAt: time.Now(),
		File:      file,
	}
	if !entry.tree.addTable(folderID, tbl) {
		return ""
	}
	s.activeTable = tbl.ID
	s.dirty()

	s.logger.Debug("table created", "project_id", projectID, "table_id", tbl.ID, "folder_id", folderID)
	return tbl.ID
}

// DeleteTable removes the table wherever it lives in the project. The
// active table selection is cleared if it pointed at the removed table.
func (s *Store) DeleteTable(projectID, tableID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.projects[projectID]
	if !ok {
		return
	}
	if entry.tree.removeTable(tableID) {
		if s.activeTable == tableID {
			s.activeTable = ""
		}
		s.dirty()
		s.logger.Debug("table deleted", "project_id", projectID, "table_id", tableID)
	}
}

// RenameTable replaces the table name.
func (s *Store) RenameTable(projectID, tableID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.projects[projectID]
	if !ok {
		return
	}
	if entry.tree.updateTable(tableID, func(t *Table) { t.Name = name }) {
		s.dirty()
	}
}

// UpdateTablePreview attaches the parse preview to the table, replacing
// any previous one.
func (s *Store) UpdateTablePreview(projectID, tableID string, preview *dataset.Preview) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.projects[projectID]
	if !ok {
		return
	}
	if entry.tree.updateTable(tableID, func(t *Table) { t.Preview = preview }) {
		s.dirty()
	}
}

// UpdateTableAnalysis replaces the table's analysis state wholesale.
// The store is id-addressed on purpose: a response that arrives after
// the user switched tables is still written to the table it was
// requested for.
func (s *Store) UpdateTableAnalysis(projectID, tableID string, state AnalysisState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.projects[projectID]
	if !ok {
		return
	}
	if entry.tree.updateTable(tableID, func(t *Table) { t.Analysis = &state }) {
		s.dirty()
	}
}

// SetActiveTable selects a table (empty id clears the selection).
func (s *Store) SetActiveTable(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.activeTable = id
	s.dirty()
}

// FindTable locates a table by project and table id without touching
// the active selections.
func (s *Store) FindTable(projectID, tableID string) (Table, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.projects[projectID]
	if !ok {
		return Table{}, false
	}
	return entry.tree.table(tableID)
}

// AddChatMessage assigns an id and timestamp to the message and appends
// it to the chat log, returning the id.
func (s *Store) AddChatMessage(msg ChatMessage) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg.ID = newID()
	msg.CreatedAt = time.Now()
	s.chat = append(s.chat, msg)
	s.dirty()
	return msg.ID
}

// SetChatLoading flags a pending assistant reply.
func (s *Store) SetChatLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.chatLoading = loading
	s.dirty()
}

// ClearChat drops the entire chat log.
func (s *Store) ClearChat() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.chat = nil
	s.chatLoading = false
	s.dirty()
}

// SetPendingAttachment stages an attachment for the chat input. Passing
// nil clears the slot.
func (s *Store) SetPendingAttachment(att *Attachment) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = att
}

// TakePendingAttachment consumes the one-shot attachment slot.
func (s *Store) TakePendingAttachment() *Attachment {
	s.mu.Lock()
	defer s.mu.Unlock()

	att := s.pending
	s.pending = nil
	return att
}

// ToggleLeftSidebar flips the left sidebar visibility.
func (s *Store) ToggleLeftSidebar() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ui.LeftSidebarOpen = !s.ui.LeftSidebarOpen
	s.dirty()
}

// ToggleRightSidebar flips the right sidebar visibility.
func (s *Store) ToggleRightSidebar() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ui.RightSidebarOpen = !s.ui.RightSidebarOpen
	s.dirty()
}

// SetAISidebarWidth stores the sidebar width clamped to the allowed
// range. Out-of-range input is corrected silently.
func (s *Store) SetAISidebarWidth(px int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if px < MinAISidebarWidth {
		px = MinAISidebarWidth
	}
	if px > MaxAISidebarWidth {
		px = MaxAISidebarWidth
	}
	s.ui.AISidebarWidth = px
	s.dirty()
}

// Snapshot returns the current immutable state. Snapshots are cached
// between mutations, so repeated reads are cheap.
func (s *Store) Snapshot() *State {
	s.mu.RLock()
	if snap := s.snap; snap != nil {
		s.mu.RUnlock()
		return snap
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap == nil {
		s.snap = s.materialize()
	}
	return s.snap
}

func (s *Store) dirty() {
	s.snap = nil
}

func (s *Store) materialize() *State {
	projects := make([]Project, 0, len(s.order))
	for _, id := range s.order {
		entry := s.projects[id]
		tables, folders := entry.tree.materialize()
		projects = append(projects, Project{
			ID:        entry.id,
			Name:      entry.name,
			CreatedAt: entry.createdAt,
			Tables:    tables,
			Folders:   folders,
		})
	}

	chat := make([]ChatMessage, len(s.chat))
	copy(chat, s.chat)

	return &State{
		Projects:        projects,
		ActiveProjectID: s.activeProject,
		ActiveFolderID:  s.activeFolder,
		ActiveTableID:   s.activeTable,
		Chat:            chat,
		ChatLoading:     s.chatLoading,
		UI:              s.ui,
	}
}
