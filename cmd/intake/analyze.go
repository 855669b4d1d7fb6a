package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/legal-intake/internal/pipeline"
	"github.com/joseph-ayodele/legal-intake/internal/retrieval"
	"github.com/joseph-ayodele/legal-intake/internal/risk"
)

var (
	analyzeRag     []string
	analyzeXLSX    string
	analyzeCompany string
	analyzeSummary string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>...",
	Short: "Extract and risk-analyze case files",
	Long: `Extracts every file, builds retrieval documents and runs the risk analysis.
Files passed with --rag are extracted and offered as grounding context.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringSliceVar(&analyzeRag, "rag", nil, "context documents for retrieval")
	analyzeCmd.Flags().StringVar(&analyzeXLSX, "xlsx", "", "write the risk report workbook to this path")
	analyzeCmd.Flags().StringVar(&analyzeCompany, "company", "", "client company name")
	analyzeCmd.Flags().StringVar(&analyzeSummary, "summary", "", "short matter summary")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	atts, err := loadAttachments(args)
	if err != nil {
		return err
	}
	ragDocs, err := loadDocuments(cmd, analyzeRag)
	if err != nil {
		return err
	}

	batch, err := components.Processor.ProcessAll(ctx, pipeline.Request{
		MatterID:    "cli",
		Matter:      risk.Matter{Company: analyzeCompany, Summary: analyzeSummary, SourceType: "cli"},
		Attachments: atts,
		Context:     ragDocs,
	})
	if err != nil {
		return err
	}
	for _, a := range batch.Attachments {
		if a.Skipped != "" {
			cmd.PrintErrf("skipped %s: %s\n", a.Name, a.Skipped)
		} else if a.Warning != "" {
			cmd.PrintErrf("%s: %s (%s)\n", a.Name, a.Warning, a.Method)
		}
	}

	if analyzeXLSX != "" {
		b, err := components.Export.RiskReportXLSX(ctx, filepath.Base(args[0]), batch.Analysis)
		if err != nil {
			return err
		}
		if err := os.WriteFile(analyzeXLSX, b, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", analyzeXLSX, err)
		}
		cmd.PrintErrf("report written to %s\n", analyzeXLSX)
	}

	out, err := json.MarshalIndent(batch.Analysis, "", "  ")
	if err != nil {
		return err
	}
	cmd.Println(string(out))
	return nil
}

func loadAttachments(paths []string) ([]pipeline.Attachment, error) {
	atts := make([]pipeline.Attachment, 0, len(paths))
	for i, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		atts = append(atts, pipeline.Attachment{
			Attachment: retrieval.Attachment{
				ID:        fmt.Sprint(i + 1),
				Name:      filepath.Base(p),
				SizeBytes: int64(len(data)),
			},
			Data: data,
		})
	}
	return atts, nil
}

// loadDocuments extracts each file into retrieval documents.
func loadDocuments(cmd *cobra.Command, paths []string) ([]retrieval.Document, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	atts, err := loadAttachments(paths)
	if err != nil {
		return nil, err
	}
	results, err := components.Processor.Extract.Run(cmd.Context(), atts)
	if err != nil {
		return nil, err
	}
	var docs []retrieval.Document
	for i, r := range results {
		if r.Skipped != "" {
			cmd.PrintErrf("skipped %s: %s\n", r.Name, r.Skipped)
			continue
		}
		docs = append(docs, retrieval.AttachmentDocuments(atts[i].Attachment, r.Text, r.Method)...)
	}
	return docs, nil
}
