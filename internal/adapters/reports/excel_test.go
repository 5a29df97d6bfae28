package reports

import (
	"testing"
	"time"

	"github.com/viralforge/mesh/services/integrations/M75-support-analytics-service/internal/application"
	"github.com/viralforge/mesh/services/integrations/M75-support-analytics-service/internal/domain"
)

func TestBuildWorkbookRendersAllSheets(t *testing.T) {
	t.Parallel()

	mean := 12.5
	report := application.KPIReport{
		Window: application.Window{
			From: time.Date(2025, 6, 14, 22, 30, 0, 0, time.UTC),
			To:   time.Date(2025, 6, 15, 22, 30, 0, 0, time.UTC),
		},
		Mode: application.AttributionOpened,
		ChatVolume: []application.AgentChatVolume{
			{AgentID: "agent-a", Cases: 12},
			{AgentID: "agent-b", Cases: 4},
		},
		MessageFRT: application.FRTStats{Count: 3, MeanMinutes: &mean, P50Minutes: &mean, P90Minutes: &mean},
		SLA: []application.AgentSLAStats{
			{AgentID: "agent-a", TotalClosed: 5, SlowCount: 1, AvgDurationMinutes: 90, SlowRatePct: 20},
		},
		Refunds: application.RefundReport{
			ManualCount:  2,
			AutoCount:    3,
			ManualAmount: 15000,
			Agents:       []application.RefundAgentStats{{AgentID: "agent-a", ManualCount: 2, ManualAmount: 15000, AutoCount: 1}},
			Machines: []application.MachineIssueStats{{
				MachineID:  "vm-1",
				Total:      5,
				TypeCounts: map[domain.IssueType]int{domain.IssueTypeRefund: 5},
			}},
		},
		GeneratedAt: time.Date(2025, 6, 15, 22, 30, 0, 0, time.UTC),
	}

	f, err := BuildWorkbook(report)
	if err != nil {
		t.Fatalf("build workbook: %v", err)
	}
	defer f.Close()

	for _, sheet := range []string{"Overview", "Chat Volume", "SLA", "Refunds"} {
		if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
			t.Fatalf("expected sheet %q, got index %d err %v", sheet, idx, err)
		}
	}

	value, err := f.GetCellValue("Chat Volume", "A2")
	if err != nil {
		t.Fatalf("read cell: %v", err)
	}
	if value != "agent-a" {
		t.Fatalf("expected agent-a in first data row, got %q", value)
	}
}
