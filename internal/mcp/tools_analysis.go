package mcp

import (
	"context"
	"encoding/base64"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/chemostats/workbench/internal/dataset"
	"github.com/chemostats/workbench/internal/domain/analysis"
	"github.com/chemostats/workbench/internal/domain/workspace"
	"github.com/chemostats/workbench/internal/export"
)

type previewTableInput struct {
	ProjectID string `json:"project_id" jsonschema:"required,Project ID"`
	TableID   string `json:"table_id" jsonschema:"required,Table ID"`
}

type previewTableOutput struct {
	Preview *dataset.Preview `json:"preview" jsonschema:"Structural summary of the dataset"`
}

type runAnovaInput struct {
	ProjectID    string  `json:"project_id" jsonschema:"required,Project ID"`
	TableID      string  `json:"table_id" jsonschema:"required,Table ID"`
	ClassColumn  string  `json:"class_column,omitempty" jsonschema:"Name of the group column (auto-detected when omitted)"`
	FDRThreshold float64 `json:"fdr_threshold,omitempty" jsonschema:"False discovery rate threshold (default 0.05)"`
	DesignLabel  string  `json:"design_label,omitempty" jsonschema:"Free-text label for the experimental design"`
	PlotOption   int     `json:"plot_option,omitempty" jsonschema:"Which variables get boxplots: 0 none 1 nominal 2 Bonferroni 3 Benjamini 4 all"`
}

type runAnovaOutput struct {
	Result *analysis.AnovaResult `json:"result" jsonschema:"Full ANOVA payload"`
}

type runPCAInput struct {
	ProjectID   string `json:"project_id" jsonschema:"required,Project ID"`
	TableID     string `json:"table_id" jsonschema:"required,Table ID"`
	NumPCs      int    `json:"num_pcs,omitempty" jsonschema:"Number of principal components (default 3)"`
	Scaling     string `json:"scaling_method,omitempty" jsonschema:"Scaling method: auto mean or pareto (default auto)"`
	DesignLabel string `json:"design_label,omitempty" jsonschema:"Free-text label for the experimental design"`
	ClassColumn string `json:"class_column,omitempty" jsonschema:"Name of the group column (auto-detected when omitted)"`
}

type runPCAOutput struct {
	Result *analysis.PCAResult `json:"result" jsonschema:"Full PCA payload"`
}

type exportAnovaInput struct {
	ProjectID string `json:"project_id" jsonschema:"required,Project ID"`
	TableID   string `json:"table_id" jsonschema:"required,Table ID with completed ANOVA results"`
}

type exportAnovaOutput struct {
	Filename      string `json:"filename" jsonschema:"Suggested download filename"`
	ContentBase64 string `json:"content_base64" jsonschema:"Base64-encoded xlsx workbook"`
}

func (s *Server) registerAnalysisTools() {
	sdkmcp.AddTool(s.mcp, &sdkmcp.Tool{
		Name:        "preview_table",
		Description: "Inspect an uploaded table: detected variables, metadata columns, and sample rows. No analysis runs.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, args previewTableInput) (*sdkmcp.CallToolResult, previewTableOutput, error) {
		table, ok := s.store.FindTable(args.ProjectID, args.TableID)
		if !ok {
			return nil, previewTableOutput{}, fmt.Errorf("table %s not found", args.TableID)
		}
		if table.Preview != nil {
			return textResult("Preview for %q: %d samples, %d variables.",
				table.Name, table.Preview.NumSamples, table.Preview.NumVariables), previewTableOutput{Preview: table.Preview}, nil
		}

		preview, err := dataset.PreviewFile(table.File, table.Filename)
		if err != nil {
			return nil, previewTableOutput{}, fmt.Errorf("previewing %s: %w", table.Filename, err)
		}
		s.store.UpdateTablePreview(args.ProjectID, args.TableID, preview)
		return textResult("Preview for %q: %d samples, %d variables.",
			table.Name, preview.NumSamples, preview.NumVariables), previewTableOutput{Preview: preview}, nil
	})

	sdkmcp.AddTool(s.mcp, &sdkmcp.Tool{
		Name:        "run_anova",
		Description: "Run one-way ANOVA with Benjamini-Hochberg and Bonferroni corrections on a table. Results are stored on the table and summarized for the assistant.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, args runAnovaInput) (*sdkmcp.CallToolResult, runAnovaOutput, error) {
		table, ok := s.store.FindTable(args.ProjectID, args.TableID)
		if !ok {
			return nil, runAnovaOutput{}, fmt.Errorf("table %s not found", args.TableID)
		}

		s.store.UpdateTableAnalysis(args.ProjectID, args.TableID, workspace.AnalysisState{
			Status: workspace.StatusRunning,
			Method: analysis.MethodAnova,
		})

		opts := analysis.AnovaOptions{
			ClassColumn:  args.ClassColumn,
			FDRThreshold: args.FDRThreshold,
			DesignLabel:  args.DesignLabel,
			PlotOption:   args.PlotOption,
		}
		result, err := s.analyzeAnova(table, opts)
		if err != nil {
			s.store.UpdateTableAnalysis(args.ProjectID, args.TableID, workspace.AnalysisState{
				Status: workspace.StatusError,
				Method: analysis.MethodAnova,
				Error:  err.Error(),
			})
			return nil, runAnovaOutput{}, err
		}

		s.store.UpdateTableAnalysis(args.ProjectID, args.TableID, workspace.AnalysisState{
			Status: workspace.StatusComplete,
			Method: analysis.MethodAnova,
			Anova:  result,
		})
		s.storeAssistantContext(ctx, args.TableID, result, nil)

		return textResult("ANOVA complete: %d of %d variables significant after FDR correction.",
			result.Summary.BenjaminiSignificant, result.Summary.TotalVariables), runAnovaOutput{Result: result}, nil
	})

	sdkmcp.AddTool(s.mcp, &sdkmcp.Tool{
		Name:        "run_pca",
		Description: "Run principal component analysis on a table. Results are stored on the table and summarized for the assistant.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, args runPCAInput) (*sdkmcp.CallToolResult, runPCAOutput, error) {
		table, ok := s.store.FindTable(args.ProjectID, args.TableID)
		if !ok {
			return nil, runPCAOutput{}, fmt.Errorf("table %s not found", args.TableID)
		}

		s.store.UpdateTableAnalysis(args.ProjectID, args.TableID, workspace.AnalysisState{
			Status: workspace.StatusRunning,
			Method: analysis.MethodPCA,
		})

		data, classes, varNames, err := dataset.Parse(table.File, table.Filename, args.ClassColumn)
		if err == nil {
			var result *analysis.PCAResult
			result, err = s.pca.Analyze(data, classes, varNames, analysis.PCAOptions{
				NumPCs:      args.NumPCs,
				Scaling:     args.Scaling,
				DesignLabel: args.DesignLabel,
			})
			if err == nil {
				s.store.UpdateTableAnalysis(args.ProjectID, args.TableID, workspace.AnalysisState{
					Status: workspace.StatusComplete,
					Method: analysis.MethodPCA,
					PCA:    result,
				})
				s.storeAssistantContext(ctx, args.TableID, nil, result)
				return textResult("PCA complete: %d components explain %.1f%% of variance.",
					result.Summary.NumComponents, result.Summary.VarianceExplained), runPCAOutput{Result: result}, nil
			}
		}

		s.store.UpdateTableAnalysis(args.ProjectID, args.TableID, workspace.AnalysisState{
			Status: workspace.StatusError,
			Method: analysis.MethodPCA,
			Error:  err.Error(),
		})
		return nil, runPCAOutput{}, err
	})

	sdkmcp.AddTool(s.mcp, &sdkmcp.Tool{
		Name:        "export_anova",
		Description: "Export the stored ANOVA results of a table as a five-sheet Excel workbook.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, args exportAnovaInput) (*sdkmcp.CallToolResult, exportAnovaOutput, error) {
		table, ok := s.store.FindTable(args.ProjectID, args.TableID)
		if !ok {
			return nil, exportAnovaOutput{}, fmt.Errorf("table %s not found", args.TableID)
		}
		if !table.Analysis.HasResults() || table.Analysis.Anova == nil {
			return nil, exportAnovaOutput{}, fmt.Errorf("table %s has no completed ANOVA results", args.TableID)
		}

		workbook, err := export.BuildAnovaWorkbook(table.Analysis.Anova)
		if err != nil {
			return nil, exportAnovaOutput{}, fmt.Errorf("building workbook: %w", err)
		}

		filename := fmt.Sprintf("anova_results_%s.xlsx", table.Name)
		return textResult("Exported ANOVA workbook %q (%d bytes).", filename, len(workbook)), exportAnovaOutput{
			Filename:      filename,
			ContentBase64: base64.StdEncoding.EncodeToString(workbook),
		}, nil
	})
}

func (s *Server) analyzeAnova(table workspace.Table, opts analysis.AnovaOptions) (*analysis.AnovaResult, error) {
	data, classes, varNames, err := dataset.Parse(table.File, table.Filename, opts.ClassColumn)
	if err != nil {
		return nil, err
	}
	return s.anova.Analyze(data, classes, varNames, opts)
}

// storeAssistantContext is best effort. Analysis results stand on
// their own even when the memory store is unavailable.
func (s *Server) storeAssistantContext(ctx context.Context, tableID string, anova *analysis.AnovaResult, pca *analysis.PCAResult) {
	if s.assistant == nil {
		return
	}
	var err error
	switch {
	case anova != nil:
		err = s.assistant.StoreAnovaContext(ctx, tableID, anova)
	case pca != nil:
		err = s.assistant.StorePCAContext(ctx, tableID, pca)
	}
	if err != nil {
		s.logger.Warn("storing assistant context failed", "table_id", tableID, "error", err)
	}
}
