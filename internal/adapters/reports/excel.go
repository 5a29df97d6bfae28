package reports

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"github.com/viralforge/mesh/services/integrations/M75-support-analytics-service/internal/application"
	"github.com/viralforge/mesh/services/integrations/M75-support-analytics-service/internal/domain"
)

// BuildWorkbook renders a KPI report as an xlsx workbook with one sheet per
// report section. The caller owns the returned file and must Close it.
func BuildWorkbook(report application.KPIReport) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := writeOverviewSheet(f, report); err != nil {
		return nil, err
	}
	if err := writeVolumeSheet(f, report.ChatVolume); err != nil {
		return nil, err
	}
	if err := writeSLASheet(f, report.SLA); err != nil {
		return nil, err
	}
	if err := writeRefundsSheet(f, report.Refunds); err != nil {
		return nil, err
	}

	f.DeleteSheet("Sheet1")
	return f, nil
}

func writeOverviewSheet(f *excelize.File, report application.KPIReport) error {
	const sheet = "Overview"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	rows := [][]any{
		{"Window From", report.Window.From.UTC().Format(time.RFC3339)},
		{"Window To", report.Window.To.UTC().Format(time.RFC3339)},
		{"Attribution", string(report.Mode)},
		{"Generated At", report.GeneratedAt.UTC().Format(time.RFC3339)},
		{},
		{"Message FRT Samples", report.MessageFRT.Count},
		{"Message FRT Mean (min)", floatCell(report.MessageFRT.MeanMinutes)},
		{"Message FRT P50 (min)", floatCell(report.MessageFRT.P50Minutes)},
		{"Message FRT P90 (min)", floatCell(report.MessageFRT.P90Minutes)},
		{"Issue FRT Samples", report.IssueFRT.Count},
		{"Issue FRT Mean (min)", floatCell(report.IssueFRT.MeanMinutes)},
		{"FCR Rate", report.FCR.Rate},
		{"Long Running %", report.LongRunning.Pct},
		{"Abandonment %", report.Abandonment.RatePct},
		{"Satisfaction %", floatCell(report.Satisfaction.OverallPct)},
		{"Satisfaction Samples", report.Satisfaction.Samples},
	}
	return writeRows(f, sheet, rows)
}

func writeVolumeSheet(f *excelize.File, volume []application.AgentChatVolume) error {
	const sheet = "Chat Volume"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	rows := [][]any{{"Agent", "Cases"}}
	for _, v := range volume {
		rows = append(rows, []any{v.AgentID, v.Cases})
	}
	return writeRows(f, sheet, rows)
}

func writeSLASheet(f *excelize.File, sla []application.AgentSLAStats) error {
	const sheet = "SLA"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	rows := [][]any{{"Agent", "Closed", "Slow", "Avg Duration (min)", "Slow Rate %"}}
	for _, s := range sla {
		rows = append(rows, []any{s.AgentID, s.TotalClosed, s.SlowCount, s.AvgDurationMinutes, s.SlowRatePct})
	}
	return writeRows(f, sheet, rows)
}

func writeRefundsSheet(f *excelize.File, refunds application.RefundReport) error {
	const sheet = "Refunds"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	rows := [][]any{
		{"Manual Refunds", refunds.ManualCount},
		{"Auto Refunds", refunds.AutoCount},
		{"Manual Amount", refunds.ManualAmount},
		{},
		{"Agent", "Manual", "Manual Amount", "Auto"},
	}
	for _, a := range refunds.Agents {
		rows = append(rows, []any{a.AgentID, a.ManualCount, a.ManualAmount, a.AutoCount})
	}
	rows = append(rows, []any{}, machineHeader())
	for _, m := range refunds.Machines {
		row := []any{m.MachineID, m.MachineName, m.Total, m.Active, m.ManualRefunds, m.AutoRefunds, m.ManualRefundAmount}
		for _, t := range domain.IssueTypes() {
			row = append(row, m.TypeCounts[t])
		}
		rows = append(rows, row)
	}
	return writeRows(f, sheet, rows)
}

func machineHeader() []any {
	header := []any{"Machine", "Name", "Total", "Active", "Manual", "Auto", "Manual Amount"}
	for _, t := range domain.IssueTypes() {
		header = append(header, string(t))
	}
	return header
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	return nil
}

func floatCell(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}
