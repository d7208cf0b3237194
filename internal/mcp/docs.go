package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `chemostats-workbench manages tabular datasets as Projects → Folders → Tables and runs statistical analysis on them.

Core concepts:
- Project: top-level container. Creating one makes it active.
- Folder: nests arbitrarily deep inside a project. Deleting one removes its whole subtree.
- Table: an uploaded CSV dataset. Each table carries its parsed preview and, after a run, its analysis results.
- Selections: one active project, folder, and table at a time. Operations on IDs that no longer exist are silent no-ops.

Default workflow:
1) Orient: call get_workspace to see projects, selections, and analysis status.
2) Organize: create_project / create_folder / upload_table. Uploads are parsed immediately; check the returned preview for detected variables and metadata columns.
3) Analyze: run_anova or run_pca on a table. Results replace the table's previous analysis state wholesale.
4) Interpret: call chat to ask about the most recent results; the assistant sees a summary of the table's analysis.
5) Export: export_anova returns the five-sheet Excel workbook as base64.

Data format notes:
- CSV files may mark the data block with a DATA trigger cell; columns left of it are metadata.
- Without a trigger the group column is auto-detected; pass class_column to override.
- Decimal commas are accepted.

Docs:
- chemostats://docs/dataset-format (expected CSV layout)
- chemostats://docs/analysis (method reference)
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "chemostats://docs/dataset-format",
		Name:        "dataset_format",
		Title:       "Expected dataset layout",
		Description: "How uploaded CSV files are interpreted: the DATA trigger, metadata columns, and group detection.",
		Content: `# Dataset layout

Uploads are CSV files holding one sample per row and one variable per column.

## Trigger layout

When a cell in the first rows contains the word DATA, the row below it is the
header row and everything right of the trigger column is numeric data. Columns
left of the trigger are sample metadata (IDs, group labels, covariates).

    PatientID  Group  DATA  Glucose  Lactate  Alanine
    P-001      1            5.2      1.1      0.43
    P-002      2            6.0      0.9      0.51

## Fallback layout

Without a trigger, the first row is the header. The group column is picked by
name (group, class, treatment, label, category, type, condition) or, failing
that, by shape: a column with 2 to 10 distinct values over fewer than half the
rows. Pass class_column to override the guess.

## Values

Decimal commas are accepted (5,2 reads as 5.2). Unparseable cells become
missing values and are excluded per variable; rows missing every variable are
dropped.

## Minimums

At least 3 samples, 2 numeric variables, and 2 groups.
`,
	},
	{
		URI:         "chemostats://docs/analysis",
		Name:        "analysis_reference",
		Title:       "Analysis method reference",
		Description: "What run_anova and run_pca compute and how to read the results.",
		Content: `# Analysis reference

## One-way ANOVA (run_anova)

Per variable: F-statistic and nominal p-value across groups, eta-squared
effect size in percent, Bonferroni-adjusted p, and a Benjamini-Hochberg FDR
flag at the configured threshold (default 0.05). Pairwise group differences
use pooled two-sample t-tests, FDR-corrected within each variable.

The result also carries descriptive statistics (RSD, STD, MEAN, RANGE, MIN,
MAX) globally and per group, boxplot five-number summaries for the top
significant variables, and the sorted p-value overview.

plot_option selects which variables count as significant for the boxplot
panel: 0 none, 1 nominal p < 0.05, 2 Bonferroni, 3 Benjamini (default), 4 all.

## PCA (run_pca)

Missing values are imputed with the column mean, then columns are centered
and scaled (auto = unit variance, mean = centering only, pareto = square root
of the standard deviation). Scores, loadings, and explained variance per
component come from the singular value decomposition. num_pcs defaults to 3
and is capped at min(samples, variables).
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		doc := doc

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
