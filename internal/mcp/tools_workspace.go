package mcp

import (
	"context"
	"encoding/base64"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/chemostats/workbench/internal/dataset"
	"github.com/chemostats/workbench/internal/domain/workspace"
)

type createProjectInput struct {
	Name string `json:"name" jsonschema:"required,Project display name"`
}

type createProjectOutput struct {
	ProjectID string `json:"project_id" jsonschema:"ID of the created project"`
}

type projectRefInput struct {
	ProjectID string `json:"project_id" jsonschema:"required,Project ID"`
}

type renameInput struct {
	ProjectID string `json:"project_id" jsonschema:"required,Project ID"`
	TargetID  string `json:"target_id,omitempty" jsonschema:"Folder or table ID (omit to rename the project itself)"`
	Name      string `json:"name" jsonschema:"required,New display name"`
}

type createFolderInput struct {
	ProjectID      string `json:"project_id" jsonschema:"required,Project ID"`
	Name           string `json:"name" jsonschema:"required,Folder display name"`
	ParentFolderID string `json:"parent_folder_id,omitempty" jsonschema:"Parent folder ID (omit for project root)"`
}

type createFolderOutput struct {
	FolderID string `json:"folder_id" jsonschema:"ID of the created folder (empty when the target location no longer exists)"`
}

type folderRefInput struct {
	ProjectID string `json:"project_id" jsonschema:"required,Project ID"`
	FolderID  string `json:"folder_id" jsonschema:"required,Folder ID"`
}

type uploadTableInput struct {
	ProjectID     string `json:"project_id" jsonschema:"required,Project ID"`
	Name          string `json:"name" jsonschema:"required,Table display name"`
	Filename      string `json:"filename" jsonschema:"required,Original filename, must end in .csv"`
	ContentBase64 string `json:"content_base64" jsonschema:"required,Base64-encoded file contents"`
	FolderID      string `json:"folder_id,omitempty" jsonschema:"Destination folder ID (omit for project root)"`
}

type uploadTableOutput struct {
	TableID string           `json:"table_id" jsonschema:"ID of the created table (empty when the target location no longer exists)"`
	Preview *dataset.Preview `json:"preview,omitempty" jsonschema:"Parsed dataset preview"`
}

type tableRefInput struct {
	ProjectID string `json:"project_id" jsonschema:"required,Project ID"`
	TableID   string `json:"table_id" jsonschema:"required,Table ID"`
}

type selectionInput struct {
	ID string `json:"id" jsonschema:"required,ID of the project, folder, or table to select"`
}

type emptyInput struct{}

type workspaceOutput struct {
	State *workspace.State `json:"state" jsonschema:"Current workspace snapshot"`
}

func (s *Server) registerWorkspaceTools() {
	sdkmcp.AddTool(s.mcp, &sdkmcp.Tool{
		Name:        "create_project",
		Description: "Create a new project. The new project becomes the active one.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, args createProjectInput) (*sdkmcp.CallToolResult, createProjectOutput, error) {
		if args.Name == "" {
			return nil, createProjectOutput{}, fmt.Errorf("name is required")
		}
		id := s.store.CreateProject(args.Name)
		return textResult("Created project %q (%s).", args.Name, id), createProjectOutput{ProjectID: id}, nil
	})

	sdkmcp.AddTool(s.mcp, &sdkmcp.Tool{
		Name:        "delete_project",
		Description: "Delete a project and everything inside it. Deleting an unknown ID is a no-op.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, args projectRefInput) (*sdkmcp.CallToolResult, workspaceOutput, error) {
		s.store.DeleteProject(args.ProjectID)
		return textResult("Deleted project %s.", args.ProjectID), workspaceOutput{State: s.store.Snapshot()}, nil
	})

	sdkmcp.AddTool(s.mcp, &sdkmcp.Tool{
		Name:        "rename_item",
		Description: "Rename a project, folder, or table. Pass target_id for a folder or table; omit it to rename the project.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, args renameInput) (*sdkmcp.CallToolResult, workspaceOutput, error) {
		if args.Name == "" {
			return nil, workspaceOutput{}, fmt.Errorf("name is required")
		}
		switch {
		case args.TargetID == "":
			s.store.RenameProject(args.ProjectID, args.Name)
		default:
			// Try both kinds; a miss on either is a silent no-op.
			s.store.RenameFolder(args.ProjectID, args.TargetID, args.Name)
			s.store.RenameTable(args.ProjectID, args.TargetID, args.Name)
		}
		return textResult("Renamed to %q.", args.Name), workspaceOutput{State: s.store.Snapshot()}, nil
	})

	sdkmcp.AddTool(s.mcp, &sdkmcp.Tool{
		Name:        "create_folder",
		Description: "Create a folder at the project root or inside another folder.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, args createFolderInput) (*sdkmcp.CallToolResult, createFolderOutput, error) {
		if args.Name == "" {
			return nil, createFolderOutput{}, fmt.Errorf("name is required")
		}
		id := s.store.CreateFolder(args.ProjectID, args.Name, args.ParentFolderID)
		if id == "" {
			return textResult("Target location no longer exists; nothing created."), createFolderOutput{}, nil
		}
		return textResult("Created folder %q (%s).", args.Name, id), createFolderOutput{FolderID: id}, nil
	})

	sdkmcp.AddTool(s.mcp, &sdkmcp.Tool{
		Name:        "delete_folder",
		Description: "Delete a folder and its whole subtree of folders and tables.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, args folderRefInput) (*sdkmcp.CallToolResult, workspaceOutput, error) {
		s.store.DeleteFolder(args.ProjectID, args.FolderID)
		return textResult("Deleted folder %s.", args.FolderID), workspaceOutput{State: s.store.Snapshot()}, nil
	})

	sdkmcp.AddTool(s.mcp, &sdkmcp.Tool{
		Name:        "upload_table",
		Description: "Upload a CSV dataset as a new table. The file is parsed immediately and the preview is attached to the table. The new table becomes the active one.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, args uploadTableInput) (*sdkmcp.CallToolResult, uploadTableOutput, error) {
		if args.Name == "" || args.Filename == "" {
			return nil, uploadTableOutput{}, fmt.Errorf("name and filename are required")
		}
		contents, err := base64.StdEncoding.DecodeString(args.ContentBase64)
		if err != nil {
			return nil, uploadTableOutput{}, fmt.Errorf("decoding content: %w", err)
		}

		id := s.store.CreateTable(args.ProjectID, args.Name, args.Filename, contents, args.FolderID)
		if id == "" {
			return textResult("Target location no longer exists; nothing created."), uploadTableOutput{}, nil
		}

		preview, err := dataset.PreviewFile(contents, args.Filename)
		if err != nil {
			s.logger.Warn("preview failed on upload", "table_id", id, "error", err)
			return textResult("Created table %s; preview unavailable: %v.", id, err), uploadTableOutput{TableID: id}, nil
		}
		s.store.UpdateTablePreview(args.ProjectID, id, preview)

		return textResult("Created table %q (%s) with %d samples and %d variables.",
			args.Name, id, preview.NumSamples, preview.NumVariables), uploadTableOutput{TableID: id, Preview: preview}, nil
	})

	sdkmcp.AddTool(s.mcp, &sdkmcp.Tool{
		Name:        "delete_table",
		Description: "Delete a table. Deleting an unknown ID is a no-op.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, args tableRefInput) (*sdkmcp.CallToolResult, workspaceOutput, error) {
		s.store.DeleteTable(args.ProjectID, args.TableID)
		return textResult("Deleted table %s.", args.TableID), workspaceOutput{State: s.store.Snapshot()}, nil
	})

	sdkmcp.AddTool(s.mcp, &sdkmcp.Tool{
		Name:        "set_active_project",
		Description: "Make a project the active one. Clears the active folder and table selections.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, args selectionInput) (*sdkmcp.CallToolResult, workspaceOutput, error) {
		s.store.SetActiveProject(args.ID)
		return textResult("Active project is now %s.", args.ID), workspaceOutput{State: s.store.Snapshot()}, nil
	})

	sdkmcp.AddTool(s.mcp, &sdkmcp.Tool{
		Name:        "set_active_folder",
		Description: "Make a folder the current one for new uploads.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, args selectionInput) (*sdkmcp.CallToolResult, workspaceOutput, error) {
		s.store.SetActiveFolder(args.ID)
		return textResult("Active folder is now %s.", args.ID), workspaceOutput{State: s.store.Snapshot()}, nil
	})

	sdkmcp.AddTool(s.mcp, &sdkmcp.Tool{
		Name:        "set_active_table",
		Description: "Select a table for viewing and analysis.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, args selectionInput) (*sdkmcp.CallToolResult, workspaceOutput, error) {
		s.store.SetActiveTable(args.ID)
		return textResult("Active table is now %s.", args.ID), workspaceOutput{State: s.store.Snapshot()}, nil
	})

	sdkmcp.AddTool(s.mcp, &sdkmcp.Tool{
		Name:        "get_workspace",
		Description: "Get the full workspace snapshot: projects, folders, tables, selections, chat log, and layout state.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, args emptyInput) (*sdkmcp.CallToolResult, workspaceOutput, error) {
		snap := s.store.Snapshot()
		return textResult("Workspace has %d projects.", len(snap.Projects)), workspaceOutput{State: snap}, nil
	})
}

func textResult(format string, args ...any) *sdkmcp.CallToolResult {
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{
			&sdkmcp.TextContent{Text: fmt.Sprintf(format, args...)},
		},
	}
}
