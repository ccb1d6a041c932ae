package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/staffdir/internal/core"
	"github.com/spf13/cobra"
)

func (cl *commandline) list(cmd *cobra.Command) {
	ccmd := &cobra.Command{
		Use:     "list",
		Short:   "List employees, optionally filtered and sorted",
		Aliases: []string{"ls"},
		Example: "staffctl list --department Engineering --sort startDate --dir desc",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cl.context(cmd)
			defer cancel()

			flags := cmd.Flags()
			criteria := core.DefaultCriteria()
			criteria.Query, _ = flags.GetString("query")
			criteria.Department, _ = flags.GetString("department")
			criteria.Role, _ = flags.GetString("role")
			criteria.Status, _ = flags.GetString("status")
			criteria.SortKey, _ = flags.GetString("sort")

			dir, _ := flags.GetString("dir")
			d, err := core.ParseSortDirection(dir)
			if err != nil {
				return err
			}
			criteria.SortDirection = d

			if err := cl.cache.Refresh(ctx); err != nil {
				return err
			}
			return cl.printEmployees(cmd.OutOrStdout(), cl.cache.View(criteria))
		},
	}
	ccmd.Flags().StringP("query", "q", "", "case-insensitive search over name, email, department and role")
	ccmd.Flags().String("department", core.FilterAll, "exact department filter")
	ccmd.Flags().String("role", core.FilterAll, "exact role filter")
	ccmd.Flags().String("status", core.FilterAll, "exact status filter (Active or Inactive)")
	ccmd.Flags().String("sort", "name", "sort key: "+strings.Join(core.SortKeys, ", "))
	ccmd.Flags().String("dir", "asc", "sort direction: asc or desc")
	cmd.AddCommand(ccmd)
}

func (cl *commandline) create(cmd *cobra.Command) {
	ccmd := &cobra.Command{
		Use:     "create",
		Short:   "Add an employee",
		Example: `staffctl create --name "Dana Scully" --email dana@example.com --department Engineering`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cl.context(cmd)
			defer cancel()

			flags := cmd.Flags()
			var in core.NewEmployeeInput
			in.Name, _ = flags.GetString("name")
			in.Email, _ = flags.GetString("email")
			in.Department, _ = flags.GetString("department")
			in.Role, _ = flags.GetString("role")
			in.StartDate, _ = flags.GetString("start-date")
			status, _ := flags.GetString("status")
			in.Status = core.Status(status)

			emp, err := cl.cache.Create(ctx, in)
			if err != nil {
				return err
			}
			return cl.printEmployee(cmd.OutOrStdout(), emp)
		},
	}
	employeeFlags(ccmd)
	_ = ccmd.MarkFlagRequired("name")
	_ = ccmd.MarkFlagRequired("email")
	cmd.AddCommand(ccmd)
}

func (cl *commandline) update(cmd *cobra.Command) {
	ccmd := &cobra.Command{
		Use:     "update <id>",
		Short:   "Change fields of an employee",
		Long:    "Change fields of an employee. Only the flags given on the command line are sent.",
		Example: "staffctl update 3f2c... --role Manager --status Inactive",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cl.context(cmd)
			defer cancel()

			patch := patchFromFlags(cmd)
			if patch.Empty() {
				return fmt.Errorf("nothing to update: pass at least one field flag")
			}

			emp, err := cl.cache.Update(ctx, args[0], patch)
			if err != nil {
				return err
			}
			return cl.printEmployee(cmd.OutOrStdout(), emp)
		},
	}
	employeeFlags(ccmd)
	cmd.AddCommand(ccmd)
}

func (cl *commandline) remove(cmd *cobra.Command) {
	ccmd := &cobra.Command{
		Use:     "delete <id>",
		Short:   "Remove an employee",
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cl.context(cmd)
			defer cancel()

			if err := cl.cache.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
	cmd.AddCommand(ccmd)
}

func (cl *commandline) importFile(cmd *cobra.Command) {
	ccmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Bulk load employees from a CSV or JSON file",
		Long: `Bulk load employees from a CSV or JSON file. Use "-" to read standard input.

The format follows the file extension unless --format is given.`,
		Example: "staffctl import employees.csv",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cl.context(cmd)
			defer cancel()

			format, _ := cmd.Flags().GetString("format")
			kind, err := importKind(args[0], format)
			if err != nil {
				return err
			}

			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}

			result, err := cl.cache.Import(ctx, r, kind)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d employees\n", result.Count)
			return nil
		},
	}
	ccmd.Flags().String("format", "", "payload format: csv or json (default from the file extension)")
	cmd.AddCommand(ccmd)
}

func (cl *commandline) export(cmd *cobra.Command) {
	ccmd := &cobra.Command{
		Use:     "export",
		Short:   "Download the whole directory",
		Example: "staffctl export --format csv --file employees.csv",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cl.context(cmd)
			defer cancel()

			name, _ := cmd.Flags().GetString("format")
			format, err := core.ParseExportFormat(name)
			if err != nil {
				return err
			}

			fn, _ := cmd.Flags().GetString("file")
			if fn == "" || fn == "-" {
				return cl.api.Export(ctx, cmd.OutOrStdout(), format)
			}

			f, err := os.Create(fn)
			if err != nil {
				return err
			}
			if err := cl.api.Export(ctx, f, format); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", fn)
			return nil
		},
	}
	ccmd.Flags().String("format", string(core.FormatJSON), "export format: json or csv")
	ccmd.Flags().StringP("file", "f", "", "destination file (default standard output)")
	cmd.AddCommand(ccmd)
}

func (cl *commandline) stats(cmd *cobra.Command) {
	ccmd := &cobra.Command{
		Use:   "stats",
		Short: "Show headcount figures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cl.context(cmd)
			defer cancel()

			stats, err := cl.api.Stats(ctx)
			if err != nil {
				return err
			}
			return cl.printStats(cmd.OutOrStdout(), stats)
		},
	}
	cmd.AddCommand(ccmd)
}

func employeeFlags(cmd *cobra.Command) {
	cmd.Flags().String("name", "", "full name")
	cmd.Flags().String("email", "", "email address")
	cmd.Flags().String("department", "", "department")
	cmd.Flags().String("role", "", "job title")
	cmd.Flags().String("status", "", "Active or Inactive")
	cmd.Flags().String("start-date", "", "start date, YYYY-MM-DD")
}

// patchFromFlags sets only the fields whose flags were given.
func patchFromFlags(cmd *cobra.Command) core.EmployeePatch {
	flags := cmd.Flags()
	str := func(name string) *string {
		if !flags.Changed(name) {
			return nil
		}
		v, _ := flags.GetString(name)
		return &v
	}

	patch := core.EmployeePatch{
		Name:       str("name"),
		Email:      str("email"),
		Department: str("department"),
		Role:       str("role"),
		StartDate:  str("start-date"),
	}
	if s := str("status"); s != nil {
		status := core.Status(*s)
		patch.Status = &status
	}
	return patch
}

func importKind(path, format string) (core.ContentKind, error) {
	switch strings.ToLower(format) {
	case "csv":
		return core.KindCSV, nil
	case "json":
		return core.KindJSON, nil
	case "":
	default:
		return 0, fmt.Errorf("unknown import format %q", format)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return core.KindJSON, nil
	}
	return core.KindCSV, nil
}
