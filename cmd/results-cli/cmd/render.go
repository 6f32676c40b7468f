package cmd

import (
	"io"
	"jntuh-results-backend/internal/portal"
	"slices"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

func renderDetails(out io.Writer, details portal.StudentDetails) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendRows([]table.Row{
		{"Roll No", details.RollNo},
		{"Name", details.Name},
		{"Father Name", details.FatherName},
		{"College Code", details.CollegeCode},
	})
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func renderSubjects(out io.Writer, title string, subjects map[string]portal.Subject) {
	codes := make([]string, 0, len(subjects))
	for code := range subjects {
		codes = append(codes, code)
	}
	slices.Sort(codes)

	t := table.NewWriter()
	t.SetOutputMirror(out)
	if title != "" {
		t.SetTitle(title)
	}
	t.AppendHeader(table.Row{"Code", "Subject", "Internal", "External", "Total", "Grade", "Credits", "Revised"})
	for _, code := range codes {
		s := subjects[code]
		revised := ""
		if s.Rcrv {
			revised = "yes"
		}
		t.AppendRow(table.Row{s.Code, s.Name, s.Internal, s.External, s.Total, s.Grade, s.Credits, revised})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func renderCodes(out io.Writer, rows []table.Row) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"Degree", "Regulation", "Semester", "Exam codes"})
	t.AppendRows(rows)
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func joinCodes(codes []string) string {
	if len(codes) == 0 {
		return "-"
	}
	return strings.Join(codes, ", ")
}
