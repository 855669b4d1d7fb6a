package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/legal-intake/internal/audit"
	repo "github.com/joseph-ayodele/legal-intake/internal/repository"
)

var (
	auditOut   string
	auditLimit int
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Export the persisted audit trail as a workbook",
	Long: `Reads audit events from the store at STORE_PATH and writes them,
newest first, into an XLSX workbook.`,
	Args: cobra.NoArgs,
	RunE: runAudit,
}

func init() {
	auditCmd.Flags().StringVarP(&auditOut, "out", "o", "audit.xlsx", "workbook output path")
	auditCmd.Flags().IntVar(&auditLimit, "limit", 0, "maximum number of events (0 = all)")
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, _ []string) error {
	cfg := components.Config
	if cfg.Store.Path == "" {
		return errors.New("STORE_PATH is not set")
	}
	ctx := cmd.Context()
	logger := components.Logger

	db, err := repo.Open(ctx, repo.Config{Path: cfg.Store.Path}, logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer repo.Close(db, logger)

	trail := audit.NewTrail(logger, audit.WithStore(repo.NewAuditRepository(db, logger)))
	if err := trail.Restore(ctx); err != nil {
		return fmt.Errorf("failed to load audit events: %w", err)
	}
	events := trail.List(auditLimit)

	b, err := components.Export.AuditXLSX(ctx, events)
	if err != nil {
		return err
	}
	if err := os.WriteFile(auditOut, b, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", auditOut, err)
	}
	cmd.Printf("Exported %d audit events to %s\n", len(events), auditOut)
	return nil
}
