package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"staff-roster/internal/model"
	"staff-roster/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoRoster     = errors.New("排班表不存在")
	ErrExportNoShifts     = errors.New("排班表中无班次")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - Excel 面向场馆管理员打印张贴；ICS 面向员工订阅个人日历
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
//   - 导出只读当前班次集合，不产生 revision、历史或快照
type ExportService interface {
	// ExportXLSX 导出排班表为 Excel
	ExportXLSX(ctx context.Context, rosterID string) (*bytes.Buffer, string, error)
	// ExportICS 导出排班表为 iCalendar
	ExportICS(ctx context.Context, rosterID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

func (s *exportService) loadForExport(ctx context.Context, rosterID string) (*model.Roster, []model.Shift, error) {
	roster, err := s.repo.Roster.GetByID(ctx, rosterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrExportNoRoster
		}
		s.logger.Error("查询排班表失败", zap.Error(err))
		return nil, nil, err
	}

	shifts, err := s.repo.Shift.ListByRoster(ctx, rosterID)
	if err != nil {
		s.logger.Error("查询班次失败", zap.Error(err))
		return nil, nil, err
	}
	if len(shifts) == 0 {
		return nil, nil, ErrExportNoShifts
	}
	return roster, shifts, nil
}

// ═══════════════════════════════════════════════════════════
// ExportXLSX — 导出排班表为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 单 Sheet，标题行含日期区间与版本号
//   - 列：日期 | 星期 | 开始 | 结束 | 休息(分) | 员工 | 岗位 | 备注 | 冲突
//   - 行按仓储返回顺序（date, start_time 升序）

func (s *exportService) ExportXLSX(ctx context.Context, rosterID string) (*bytes.Buffer, string, error) {
	roster, shifts, err := s.loadForExport(ctx, rosterID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "排班表"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	// 列宽
	widths := []float64{12, 6, 8, 8, 9, 16, 14, 24, 14}
	for i, w := range widths {
		col := colName(i)
		f.SetColWidth(sheetName, col, col, w)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("排班表 %s ~ %s（第 %d 版）", roster.StartDate, roster.EndDate, roster.VersionNumber))
	f.MergeCell(sheetName, "A1", cell(colName(len(widths)-1), 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	headers := []string{"日期", "星期", "开始", "结束", "休息(分)", "员工", "岗位", "备注", "冲突"}
	row := 2
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(colName(i), row), h)
	}
	f.SetCellStyle(sheetName, cell("A", row), cell(colName(len(headers)-1), row), headerStyle)

	// 数据行
	row = 3
	for i := range shifts {
		sh := &shifts[i]
		f.SetCellValue(sheetName, cell("A", row), sh.Date)
		f.SetCellValue(sheetName, cell("B", row), weekdayLabel(sh.Date))
		f.SetCellValue(sheetName, cell("C", row), sh.StartTime)
		f.SetCellValue(sheetName, cell("D", row), sh.EndTime)
		f.SetCellValue(sheetName, cell("E", row), sh.BreakMinutes)
		f.SetCellValue(sheetName, cell("F", row), assigneeLabel(sh))
		if sh.Position != nil {
			f.SetCellValue(sheetName, cell("G", row), *sh.Position)
		}
		f.SetCellValue(sheetName, cell("H", row), sh.Notes)
		if sh.HasConflict && sh.ConflictType != nil {
			f.SetCellValue(sheetName, cell("I", row), conflictLabel(*sh.ConflictType))
		}
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("排班表_%s_v%d.xlsx", roster.StartDate, roster.VersionNumber)
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ExportICS — 导出排班表为 iCalendar
// ═══════════════════════════════════════════════════════════
//
// 每条班次一个 VEVENT，UID 复用 shift_id 保证重复导入幂等。
// 未分配班次同样导出（摘要标注"未分配"），便于管理员发现缺口。

func (s *exportService) ExportICS(ctx context.Context, rosterID string) (*bytes.Buffer, string, error) {
	roster, shifts, err := s.loadForExport(ctx, rosterID)
	if err != nil {
		return nil, "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//staff-roster//roster-export//ZH")

	now := time.Now()
	for i := range shifts {
		sh := &shifts[i]

		start, err := time.ParseInLocation("2006-01-02 15:04", sh.Date+" "+sh.StartTime, time.Local)
		if err != nil {
			s.logger.Warn("班次时间无法解析，跳过导出",
				zap.String("shift_id", sh.ShiftID),
				zap.Error(err),
			)
			continue
		}
		end, err := time.ParseInLocation("2006-01-02 15:04", sh.Date+" "+sh.EndTime, time.Local)
		if err != nil {
			continue
		}

		event := cal.AddEvent(sh.ShiftID)
		event.SetCreatedTime(now)
		event.SetDtStampTime(now)
		event.SetStartAt(start)
		event.SetEndAt(end)

		summary := assigneeLabel(sh)
		if sh.Position != nil && *sh.Position != "" {
			summary += " · " + *sh.Position
		}
		event.SetSummary(summary)
		if sh.Notes != "" {
			event.SetDescription(sh.Notes)
		}
	}

	buf := bytes.NewBufferString(cal.Serialize())
	filename := fmt.Sprintf("排班表_%s_v%d.ics", roster.StartDate, roster.VersionNumber)
	return buf, filename, nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func assigneeLabel(sh *model.Shift) string {
	if sh.User != nil && sh.User.Name != "" {
		return sh.User.Name
	}
	if sh.OriginalName != nil && *sh.OriginalName != "" {
		return *sh.OriginalName
	}
	return "未分配"
}

func weekdayLabel(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return ""
	}
	labels := []string{"周日", "周一", "周二", "周三", "周四", "周五", "周六"}
	return labels[int(t.Weekday())]
}

func conflictLabel(ct model.ConflictType) string {
	switch ct {
	case model.ConflictTimeOff:
		return "休假冲突"
	case model.ConflictDoubleBooked:
		return "重复排班"
	case model.ConflictAvailability:
		return "不在可用时段"
	}
	return string(ct)
}
