/*
export.go - Weekly roster export to Excel

PURPOSE:
  Renders one company week as an .xlsx workbook managers can print or
  forward. The roster is rebuilt from shifts and approved absences on
  every request; nothing is stored.

LAYOUT:
  Sheet "Roster":
    row 1    title (company, week, publication status)
    row 2    Department | Time | Mon dd/mm ... Sun dd/mm
    row 3..  one row per (department, time window), sorted;
             cells list the assigned employees, "UNCOVERED" for a shift
             nobody holds, "-" when there is no shift that day
  Sheet "Absences":
    approved absences overlapping the week

SEE ALSO:
  - server.go: GET /api/companies/{companyID}/weeks/{weekStart}/roster.xlsx
*/
package api

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/GiuseppeRudi/BizSync-sub002/generic"
	"github.com/GiuseppeRudi/BizSync-sub002/scheduling"
)

const (
	rosterSheet   = "Roster"
	absencesSheet = "Absences"
	uncoveredText = "UNCOVERED"
)

// ExportRoster streams the roster workbook of one week.
func (h *Handler) ExportRoster(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	companyID := companyParam(r)
	weekStart, ok := weekParam(w, r)
	if !ok {
		return
	}
	weekEnd := weekStart.AddDays(6)

	shifts, err := h.Store.ShiftsInRange(ctx, companyID, weekStart, weekEnd)
	if err != nil {
		writeDomainError(w, "Failed to load shifts", err)
		return
	}
	absences, err := h.Store.AbsencesInRange(ctx, companyID, weekStart, weekEnd)
	if err != nil {
		writeDomainError(w, "Failed to load absences", err)
		return
	}
	latest, err := h.Store.LatestWeeklyShift(ctx, companyID, weekStart)
	if err != nil {
		writeDomainError(w, "Failed to load week", err)
		return
	}

	buf, err := BuildRoster(companyID, weekStart, scheduling.StatusOf(latest), shifts, absences)
	if err != nil {
		h.logger().Error("failed to build roster workbook", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to build roster", err)
		return
	}

	filename := RosterFilename(companyID, weekStart)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(filename))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func RosterFilename(companyID scheduling.CompanyID, weekStart generic.TimePoint) string {
	return fmt.Sprintf("roster_%s_%s.xlsx", companyID, weekStart)
}

type rosterRow struct {
	department string
	window     generic.TimeRange
}

// BuildRoster renders the workbook. Only approved absences are listed.
func BuildRoster(
	companyID scheduling.CompanyID,
	weekStart generic.TimePoint,
	status scheduling.PublicationStatus,
	shifts []scheduling.Shift,
	absences []scheduling.Absence,
) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(rosterSheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}
	uncoveredStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#C00000"},
	})
	if err != nil {
		return nil, err
	}

	// (department, window) -> day offset -> cell text
	cells := make(map[rosterRow]map[int][]string)
	for _, s := range shifts {
		day := generic.DaysBetween(weekStart, s.Date)
		if day < 0 || day > 6 {
			continue
		}
		key := rosterRow{department: s.Department, window: s.Window}
		if cells[key] == nil {
			cells[key] = make(map[int][]string)
		}
		text := uncoveredText
		if len(s.Employees) > 0 {
			names := make([]string, len(s.Employees))
			for i, e := range s.Employees {
				names[i] = string(e)
			}
			text = strings.Join(names, ", ")
		}
		cells[key][day] = append(cells[key][day], text)
	}

	rows := make([]rosterRow, 0, len(cells))
	for k := range cells {
		rows = append(rows, k)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].department != rows[j].department {
			return rows[i].department < rows[j].department
		}
		if rows[i].window.Start != rows[j].window.Start {
			return rows[i].window.Start < rows[j].window.Start
		}
		return rows[i].window.End < rows[j].window.End
	})

	f.SetColWidth(rosterSheet, "A", "A", 18)
	f.SetColWidth(rosterSheet, "B", "B", 14)
	f.SetColWidth(rosterSheet, "C", "I", 22)

	title := fmt.Sprintf("%s - week of %s (%s)", companyID, weekStart, status)
	f.SetCellValue(rosterSheet, "A1", title)
	f.MergeCell(rosterSheet, "A1", "I1")
	f.SetCellStyle(rosterSheet, "A1", "A1", headerStyle)

	f.SetCellValue(rosterSheet, "A2", "Department")
	f.SetCellValue(rosterSheet, "B2", "Time")
	for d := 0; d < 7; d++ {
		date := weekStart.AddDays(d)
		f.SetCellValue(rosterSheet, cellName(3+d, 2),
			fmt.Sprintf("%s %02d/%02d", date.Weekday().String()[:3], date.Day(), int(date.Month())))
	}
	f.SetCellStyle(rosterSheet, "A2", "I2", headerStyle)

	deptStyles := make(map[string]int)
	for i, row := range rows {
		n := 3 + i
		f.SetCellValue(rosterSheet, cellName(1, n), row.department)
		f.SetCellValue(rosterSheet, cellName(2, n), row.window.String())

		style, ok := deptStyles[row.department]
		if !ok {
			style, err = f.NewStyle(&excelize.Style{
				Fill: excelize.Fill{Type: "pattern", Color: []string{DepartmentColor(row.department)}, Pattern: 1},
				Font: &excelize.Font{Bold: true},
			})
			if err != nil {
				return nil, err
			}
			deptStyles[row.department] = style
		}
		f.SetCellStyle(rosterSheet, cellName(1, n), cellName(1, n), style)

		for d := 0; d < 7; d++ {
			texts, ok := cells[row][d]
			if !ok {
				f.SetCellValue(rosterSheet, cellName(3+d, n), "-")
				continue
			}
			value := strings.Join(texts, " / ")
			f.SetCellValue(rosterSheet, cellName(3+d, n), value)
			if strings.Contains(value, uncoveredText) {
				f.SetCellStyle(rosterSheet, cellName(3+d, n), cellName(3+d, n), uncoveredStyle)
			}
		}
	}

	if err := writeAbsenceSheet(f, headerStyle, absences); err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func writeAbsenceSheet(f *excelize.File, headerStyle int, absences []scheduling.Absence) error {
	if _, err := f.NewSheet(absencesSheet); err != nil {
		return err
	}
	headers := []string{"Employee", "Type", "From", "To", "Window", "Days", "Hours"}
	for i, h := range headers {
		f.SetCellValue(absencesSheet, cellName(1+i, 1), h)
	}
	f.SetCellStyle(absencesSheet, "A1", cellName(len(headers), 1), headerStyle)
	f.SetColWidth(absencesSheet, "A", "G", 16)

	row := 2
	for _, a := range absences {
		if a.Status != scheduling.AbsenceApproved {
			continue
		}
		window := "full day"
		if a.Window != nil {
			window = a.Window.String()
		}
		values := []any{
			string(a.EmployeeID),
			string(a.Type),
			a.Period.Start.String(),
			a.Period.End.String(),
			window,
			a.TotalDays.Value.String(),
			a.TotalHours.Value.String(),
		}
		for i, v := range values {
			f.SetCellValue(absencesSheet, cellName(1+i, row), v)
		}
		row++
	}
	return nil
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
