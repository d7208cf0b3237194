package workspace

import "github.com/chemostats/workbench/internal/domain/analysis"

// Selection resolvers project the active entities out of a snapshot.
// They tolerate stale selections: an id that no longer resolves yields
// nil rather than an error.

// ActiveProject returns the active project, or nil when none is
// selected or the selection is stale.
func (s *State) ActiveProject() *Project {
	if s.ActiveProjectID == "" {
		return nil
	}
	for i := range s.Projects {
		if s.Projects[i].ID == s.ActiveProjectID {
			return &s.Projects[i]
		}
	}
	return nil
}

// ActiveTable resolves the active table inside the active project,
// searching the root tables first and then every folder depth-first.
// There is at most one match: table ids are unique within a project.
func (s *State) ActiveTable() *Table {
	if s.ActiveTableID == "" {
		return nil
	}
	proj := s.ActiveProject()
	if proj == nil {
		return nil
	}
	for i := range proj.Tables {
		if proj.Tables[i].ID == s.ActiveTableID {
			return &proj.Tables[i]
		}
	}
	return findTableInFolders(proj.Folders, s.ActiveTableID)
}

func findTableInFolders(folders []Folder, id string) *Table {
	for i := range folders {
		for j := range folders[i].Tables {
			if folders[i].Tables[j].ID == id {
				return &folders[i].Tables[j]
			}
		}
		if tbl := findTableInFolders(folders[i].Folders, id); tbl != nil {
			return tbl
		}
	}
	return nil
}

// AnalysisContext is the derived view of the active table's completed
// analysis, used to drive result panes and the assistant context.
type AnalysisContext struct {
	Method   analysis.Method       `json:"method"`
	Anova    *analysis.AnovaResult `json:"anova,omitempty"`
	PCA      *analysis.PCAResult   `json:"pca,omitempty"`
	Filename string                `json:"filename"`
}

// AnalysisContext returns the active table's analysis context, or nil
// unless the table has completed results.
func (s *State) AnalysisContext() *AnalysisContext {
	tbl := s.ActiveTable()
	if tbl == nil || !tbl.Analysis.HasResults() {
		return nil
	}
	return &AnalysisContext{
		Method:   tbl.Analysis.Method,
		Anova:    tbl.Analysis.Anova,
		PCA:      tbl.Analysis.PCA,
		Filename: tbl.Filename,
	}
}
