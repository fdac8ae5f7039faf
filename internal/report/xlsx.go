// Package report renders completed task results as an XLSX workbook.
package report

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/ramay1243/docscan/internal/core/domain"
)

const (
	summarySheet = "Summary"
	filesSheet   = "Files"
	risksSheet   = "Risks"
)

type RendererConfig struct {
	// MaxRiskRows bounds the Risks sheet. Zero keeps the default.
	MaxRiskRows int
}

type Renderer struct {
	maxRiskRows int
}

func NewRenderer(cfg RendererConfig) *Renderer {
	maxRiskRows := cfg.MaxRiskRows
	if maxRiskRows <= 0 {
		maxRiskRows = 500
	}
	return &Renderer{maxRiskRows: maxRiskRows}
}

func (r *Renderer) Render(task *domain.Task, files []domain.FileItem, rep *domain.TaskReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", summarySheet)
	if _, err := f.NewSheet(filesSheet); err != nil {
		return nil, fmt.Errorf("create files sheet: %w", err)
	}
	if _, err := f.NewSheet(risksSheet); err != nil {
		return nil, fmt.Errorf("create risks sheet: %w", err)
	}

	if err := r.writeSummary(f, task, rep); err != nil {
		return nil, err
	}
	if err := r.writeFiles(f, files); err != nil {
		return nil, err
	}
	if err := r.writeRisks(f, files); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) writeSummary(f *excelize.File, task *domain.Task, rep *domain.TaskReport) error {
	rows := [][]any{
		{"Task", task.ID},
		{"Owner", task.OwnerID},
		{"Status", string(task.Status)},
		{"Total files", task.TotalFiles},
		{"Processed", task.ProcessedFiles},
		{"Failed", task.FailedFiles},
	}
	if rep != nil {
		rows = append(rows, []any{"", ""}, []any{"By document type", ""})
		for _, name := range sortedKeys(rep.ByDocumentType) {
			rows = append(rows, []any{name, rep.ByDocumentType[name]})
		}
		rows = append(rows, []any{"", ""}, []any{"By risk level", ""})
		for _, level := range riskLevelOrder {
			if count, ok := rep.ByRiskLevel[level]; ok {
				rows = append(rows, []any{level, count})
			}
		}
	}
	return writeRows(f, summarySheet, 1, rows)
}

func (r *Renderer) writeFiles(f *excelize.File, files []domain.FileItem) error {
	rows := [][]any{{"Filename", "Status", "Document type", "Overall risk", "AI used", "Error"}}
	for _, file := range files {
		docType, overall, aiUsed := "", "", ""
		if file.Result != nil {
			docType = file.Result.DocumentTypeName
			overall = string(file.Result.Summary.OverallRisk)
			aiUsed = fmt.Sprintf("%t", file.Result.AIUsed)
		}
		rows = append(rows, []any{file.Filename, string(file.Status), docType, overall, aiUsed, file.Error})
	}
	return writeRows(f, filesSheet, 1, rows)
}

func (r *Renderer) writeRisks(f *excelize.File, files []domain.FileItem) error {
	rows := [][]any{{"Filename", "Level", "Title", "Description"}}
	for _, file := range files {
		if file.Result == nil {
			continue
		}
		for _, risk := range file.Result.Risks {
			if len(rows) > r.maxRiskRows {
				break
			}
			rows = append(rows, []any{file.Filename, string(risk.Level), risk.Title, risk.Description})
		}
	}
	return writeRows(f, risksSheet, 1, rows)
}

var riskLevelOrder = []string{"CRITICAL", "HIGH", "MEDIUM", "LOW", "INFO"}

func writeRows(f *excelize.File, sheet string, startRow int, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, startRow+i)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d on %s: %w", startRow+i, sheet, err)
		}
	}
	return nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Filename is the suggested download name for a task report.
func Filename(taskID string) string {
	return fmt.Sprintf("task-%s-report.xlsx", taskID)
}
