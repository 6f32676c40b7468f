package cmd

import (
	"errors"
	"fmt"
	"jntuh-results-backend/internal/curriculum"
	"jntuh-results-backend/internal/examcodes"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	codesCmd.AddCommand(codesListCmd)
	codesCmd.AddCommand(codesRefreshCmd)
	rootCmd.AddCommand(codesCmd)
}

var codesCmd = &cobra.Command{
	Use:   "codes",
	Short: "Inspects and maintains the exam code directory.",
}

func directoryRows(dir examcodes.Directory, only curriculum.Degree) []table.Row {
	var rows []table.Row
	for _, degree := range curriculum.Degrees {
		if only != "" && degree != only {
			continue
		}
		for _, reg := range curriculum.Regulations(degree) {
			for _, sem := range curriculum.Semesters {
				rows = append(rows, table.Row{
					degree, reg, sem,
					joinCodes(dir.Codes(degree, reg, sem)),
				})
			}
		}
	}
	return rows
}

var codesListCmd = &cobra.Command{
	Use:   "list [btech|bpharmacy]",
	Short: "Lists the exam codes of every degree, regulation and semester.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res := app.Service.ExamCodes(cmd.Context())
		if res.Error != "" {
			return errors.New(res.Error)
		}
		if asJSON {
			return printJSON(res.Data)
		}

		var only curriculum.Degree
		if len(args) > 0 {
			only = curriculum.Degree(args[0])
		}
		renderCodes(os.Stdout, directoryRows(res.Data, only))
		return nil
	},
}

var codesRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Scrapes the portal home page and rewrites the snapshot regardless of its age.",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := app.ExamCodes.Refresh(cmd.Context())
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(dir)
		}
		fmt.Printf("refreshed the directory, %d exam codes\n", dir.Count())
		return nil
	},
}
