package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func setupExportTest() (ExportService, *testRepos) {
	repos := newTestRepos()
	svc := NewExportService(repos.toRepository(), zap.NewNop())
	return svc, repos
}

func TestExportXLSX(t *testing.T) {
	svc, repos := setupExportTest()
	s := mkShift("s1", "r1", "user-1", "2026-03-02", "09:00", "17:00")
	s.Position = strp("Bar")
	seedDraftRoster(repos, "r1", s)

	buf, filename, err := svc.ExportXLSX(context.Background(), "r1")
	if err != nil {
		t.Fatalf("导出失败: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("导出内容为空")
	}
	if filename != "排班表_2026-03-02_v1.xlsx" {
		t.Fatalf("文件名不符: %q", filename)
	}
	// xlsx 即 zip，魔数 PK
	if head := buf.Bytes()[:2]; head[0] != 'P' || head[1] != 'K' {
		t.Fatalf("非 xlsx 容器格式: % x", head)
	}
}

func TestExportICS(t *testing.T) {
	svc, repos := setupExportTest()
	s := mkShift("s1", "r1", "", "2026-03-02", "09:00", "17:00")
	s.OriginalName = strp("Alice")
	s.Position = strp("Bar")
	s.Notes = "带钥匙"
	seedDraftRoster(repos, "r1", s)

	buf, filename, err := svc.ExportICS(context.Background(), "r1")
	if err != nil {
		t.Fatalf("导出失败: %v", err)
	}
	if filename != "排班表_2026-03-02_v1.ics" {
		t.Fatalf("文件名不符: %q", filename)
	}

	out := buf.String()
	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"END:VCALENDAR",
		"UID:s1",
		"SUMMARY:Alice · Bar",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("ICS 输出缺少 %q:\n%s", want, out)
		}
	}
}

func TestExportICS_UnassignedShiftIncluded(t *testing.T) {
	svc, repos := setupExportTest()
	seedDraftRoster(repos, "r1", mkShift("s1", "r1", "", "2026-03-02", "09:00", "17:00"))

	buf, _, err := svc.ExportICS(context.Background(), "r1")
	if err != nil {
		t.Fatalf("导出失败: %v", err)
	}
	if !strings.Contains(buf.String(), "未分配") {
		t.Fatal("未分配班次应以占位摘要导出")
	}
}

func TestExportICS_UnparseableShiftSkipped(t *testing.T) {
	svc, repos := setupExportTest()
	seedDraftRoster(repos, "r1",
		mkShift("bad", "r1", "user-1", "not-a-date", "09:00", "17:00"),
		mkShift("good", "r1", "user-1", "2026-03-02", "09:00", "17:00"),
	)

	buf, _, err := svc.ExportICS(context.Background(), "r1")
	if err != nil {
		t.Fatalf("导出失败: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "UID:bad") {
		t.Fatal("时间无法解析的班次应跳过")
	}
	if !strings.Contains(out, "UID:good") {
		t.Fatal("正常班次应保留")
	}
}

func TestExport_RosterNotFound(t *testing.T) {
	svc, _ := setupExportTest()

	if _, _, err := svc.ExportXLSX(context.Background(), "missing"); !errors.Is(err, ErrExportNoRoster) {
		t.Fatalf("期望 ErrExportNoRoster，实际 %v", err)
	}
}

func TestExport_EmptyRosterRejected(t *testing.T) {
	svc, repos := setupExportTest()
	seedDraftRoster(repos, "r1")

	if _, _, err := svc.ExportXLSX(context.Background(), "r1"); !errors.Is(err, ErrExportNoShifts) {
		t.Fatalf("期望 ErrExportNoShifts，实际 %v", err)
	}
	if _, _, err := svc.ExportICS(context.Background(), "r1"); !errors.Is(err, ErrExportNoShifts) {
		t.Fatalf("期望 ErrExportNoShifts，实际 %v", err)
	}
}
