package mcp

import (
	"context"
	"errors"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/chemostats/workbench/internal/domain/assistant"
	"github.com/chemostats/workbench/internal/domain/workspace"
)

type chatInput struct {
	TableID string `json:"table_id,omitempty" jsonschema:"Table whose analysis context the assistant should use (defaults to the active table)"`
	Message string `json:"message" jsonschema:"required,User question for the assistant"`
}

type chatOutput struct {
	Reply string `json:"reply" jsonschema:"Assistant reply"`
}

type chatHistoryInput struct {
	TableID string `json:"table_id" jsonschema:"required,Table whose chat history to fetch"`
	Limit   int    `json:"limit,omitempty" jsonschema:"Maximum turns to return (default 10)"`
}

type chatHistoryOutput struct {
	Messages []assistant.Message `json:"messages" jsonschema:"Chat turns, oldest first"`
}

type clearChatContextInput struct {
	TableID string `json:"table_id" jsonschema:"required,Table whose stored context and history to drop"`
}

func (s *Server) registerChatTools() {
	sdkmcp.AddTool(s.mcp, &sdkmcp.Tool{
		Name:        "chat",
		Description: "Ask the assistant about analysis results. The assistant sees the stored analysis summary for the table plus recent chat history.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, args chatInput) (*sdkmcp.CallToolResult, chatOutput, error) {
		if s.assistant == nil || !s.assistant.Enabled() {
			return nil, chatOutput{}, assistant.ErrNotConfigured
		}

		tableID := args.TableID
		var fileName string
		snap := s.store.Snapshot()
		if tableID == "" {
			tableID = snap.ActiveTableID
		}
		if tableID == "" {
			return nil, chatOutput{}, fmt.Errorf("no table selected: pass table_id or set an active table")
		}
		if table := findTableByID(snap, tableID); table != nil {
			fileName = table.Filename
		}

		s.store.SetChatLoading(true)
		defer s.store.SetChatLoading(false)

		s.store.AddChatMessage(workspace.ChatMessage{
			Role:       workspace.RoleUser,
			Content:    args.Message,
			Attachment: s.store.TakePendingAttachment(),
		})

		reply, err := s.assistant.Chat(ctx, tableID, args.Message, fileName)
		if err != nil {
			if errors.Is(err, assistant.ErrEmptyMessage) {
				return nil, chatOutput{}, err
			}
			return nil, chatOutput{}, fmt.Errorf("assistant chat: %w", err)
		}

		s.store.AddChatMessage(workspace.ChatMessage{
			Role:    workspace.RoleAssistant,
			Content: reply,
		})

		return textResult("%s", reply), chatOutput{Reply: reply}, nil
	})

	sdkmcp.AddTool(s.mcp, &sdkmcp.Tool{
		Name:        "get_chat_history",
		Description: "Fetch the stored assistant chat history for a table.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, args chatHistoryInput) (*sdkmcp.CallToolResult, chatHistoryOutput, error) {
		if s.assistant == nil {
			return nil, chatHistoryOutput{}, assistant.ErrNotConfigured
		}
		messages, err := s.assistant.History(ctx, args.TableID, args.Limit)
		if err != nil {
			return nil, chatHistoryOutput{}, fmt.Errorf("loading history: %w", err)
		}
		return textResult("%d chat turns stored.", len(messages)), chatHistoryOutput{Messages: messages}, nil
	})

	sdkmcp.AddTool(s.mcp, &sdkmcp.Tool{
		Name:        "clear_chat_context",
		Description: "Drop the stored analysis context and chat history for a table, and clear the visible chat log.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, args clearChatContextInput) (*sdkmcp.CallToolResult, workspaceOutput, error) {
		if s.assistant != nil {
			if err := s.assistant.ClearContext(ctx, args.TableID); err != nil {
				return nil, workspaceOutput{}, err
			}
		}
		s.store.ClearChat()
		return textResult("Cleared chat context for table %s.", args.TableID), workspaceOutput{State: s.store.Snapshot()}, nil
	})
}

func findTableByID(snap *workspace.State, id string) *workspace.Table {
	for p := range snap.Projects {
		if table := tableInProject(&snap.Projects[p], id); table != nil {
			return table
		}
	}
	return nil
}

func tableInProject(project *workspace.Project, id string) *workspace.Table {
	for i := range project.Tables {
		if project.Tables[i].ID == id {
			return &project.Tables[i]
		}
	}
	return tableInFolders(project.Folders, id)
}

func tableInFolders(folders []workspace.Folder, id string) *workspace.Table {
	for i := range folders {
		for j := range folders[i].Tables {
			if folders[i].Tables[j].ID == id {
				return &folders[i].Tables[j]
			}
		}
		if table := tableInFolders(folders[i].Folders, id); table != nil {
			return table
		}
	}
	return nil
}
