package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/legal-intake/internal/audit"
	"github.com/joseph-ayodele/legal-intake/internal/core/textclean"
	"github.com/joseph-ayodele/legal-intake/internal/risk"
)

const (
	SheetSummary  = "Summary"
	SheetRisks    = "Risks"
	SheetTimeline = "Timeline"
	SheetActions  = "Actions"
	SheetAudit    = "Audit"
)

// Service renders analyses and audit events as XLSX workbooks.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// RiskReportXLSX returns a workbook with Summary, Risks, Timeline and Actions sheets.
func (s *Service) RiskReportXLSX(ctx context.Context, title string, a risk.Analysis) ([]byte, error) {
	start := time.Now()
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, err
	}
	for _, name := range []string{SheetRisks, SheetTimeline, SheetActions} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	summary := [][2]any{
		{"Материал", title},
		{"Оценка риска", a.RiskScore},
		{"Срочность", string(a.Urgency)},
		{"Уверенность", a.Confidence},
		{"Движок", a.Engine},
		{"Теги", strings.Join(a.Tags, ", ")},
		{"Обязательства", strings.Join(a.Obligations, "\n")},
		{"Источники", strings.Join(a.LegalReferences, "\n")},
	}
	for i, kv := range summary {
		writeRow(f, SheetSummary, i+1, kv[0], kv[1])
	}
	_ = f.SetCellStyle(SheetSummary, "A1", fmt.Sprintf("A%d", len(summary)), bold)
	_ = f.SetColWidth(SheetSummary, "A", "A", 18)
	_ = f.SetColWidth(SheetSummary, "B", "B", 80)

	header(f, SheetRisks, bold, "#", "Severity", "Category", "Marker", "Excerpt")
	for i, r := range a.Risks {
		writeRow(f, SheetRisks, i+2, i+1, string(r.Severity), string(r.Category), r.Marker, textclean.Truncate(r.Excerpt, 500))
	}
	_ = f.SetColWidth(SheetRisks, "B", "D", 18)
	_ = f.SetColWidth(SheetRisks, "E", "E", 90)

	header(f, SheetTimeline, bold, "Line", "Event")
	for i, ev := range a.Timeline {
		writeRow(f, SheetTimeline, i+2, ev.Order, ev.Event)
	}
	_ = f.SetColWidth(SheetTimeline, "B", "B", 90)

	header(f, SheetActions, bold, "#", "Action")
	for i, act := range a.Actions {
		writeRow(f, SheetActions, i+2, i+1, act)
	}
	_ = f.SetColWidth(SheetActions, "B", "B", 110)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	s.logger.Info("export.risk_xlsx.ok",
		"risks", len(a.Risks),
		"timeline", len(a.Timeline),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// AuditXLSX returns a single-sheet workbook of audit events in the given order.
func (s *Service) AuditXLSX(ctx context.Context, events []audit.Event) ([]byte, error) {
	start := time.Now()
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetAudit); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	header(f, SheetAudit, bold, "Time (UTC)", "Action", "Actor", "Meta", "ID")
	for i, ev := range events {
		meta := ""
		if len(ev.Meta) > 0 {
			b, err := json.Marshal(ev.Meta)
			if err != nil {
				return nil, fmt.Errorf("encode meta %s: %w", ev.ID, err)
			}
			meta = string(b)
		}
		writeRow(f, SheetAudit, i+2, ev.At.UTC().Format(time.DateTime), ev.Action, ev.ActorID, meta, ev.ID)
	}
	_ = f.SetColWidth(SheetAudit, "A", "A", 20)
	_ = f.SetColWidth(SheetAudit, "B", "C", 24)
	_ = f.SetColWidth(SheetAudit, "D", "D", 80)
	_ = f.SetColWidth(SheetAudit, "E", "E", 38)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	s.logger.Info("export.audit_xlsx.ok", "rows", len(events), "elapsed_ms", time.Since(start).Milliseconds())
	return buf.Bytes(), nil
}

func header(f *excelize.File, sheet string, style int, cols ...any) {
	writeRow(f, sheet, 1, cols...)
	last, _ := excelize.CoordinatesToCellName(len(cols), 1)
	_ = f.SetCellStyle(sheet, "A1", last, style)
}

func writeRow(f *excelize.File, sheet string, row int, vals ...any) {
	for i, v := range vals {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}
