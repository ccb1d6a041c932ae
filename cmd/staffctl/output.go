package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/JonMunkholm/staffdir/internal/core"
	"github.com/olekukonko/tablewriter"
)

var employeeHeader = []string{"ID", "NAME", "EMAIL", "DEPARTMENT", "ROLE", "STATUS", "START DATE"}

func (cl *commandline) printEmployees(w io.Writer, employees []core.Employee) error {
	if cl.jsonOutput() {
		return printJSON(w, employees)
	}
	if len(employees) == 0 {
		fmt.Fprintln(w, "no employees")
		return nil
	}

	table := newTable(w, employeeHeader)
	for _, e := range employees {
		table.Append(employeeRow(e))
	}
	table.Render()
	return nil
}

func (cl *commandline) printEmployee(w io.Writer, e core.Employee) error {
	if cl.jsonOutput() {
		return printJSON(w, e)
	}
	table := newTable(w, employeeHeader)
	table.Append(employeeRow(e))
	table.Render()
	return nil
}

func (cl *commandline) printStats(w io.Writer, s core.DirectoryStats) error {
	if cl.jsonOutput() {
		return printJSON(w, s)
	}

	fmt.Fprintf(w, "Total: %d  Active: %d  Departments: %d\n", s.Total, s.Active, s.Departments)
	if largest, ok := s.Largest(); ok {
		fmt.Fprintf(w, "Largest: %s (%d)\n", largest.Department, largest.Count)
	}
	if len(s.ByDepartment) == 0 {
		return nil
	}

	table := newTable(w, []string{"DEPARTMENT", "COUNT"})
	for _, d := range s.ByDepartment {
		table.Append([]string{d.Department, strconv.Itoa(d.Count)})
	}
	table.Render()
	return nil
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	return table
}

func employeeRow(e core.Employee) []string {
	return []string{e.ID, e.Name, e.Email, e.Department, e.Role, string(e.Status), e.StartDate}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
