package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(academicCmd)
}

var academicCmd = &cobra.Command{
	Use:   "academic <htno>",
	Short: "Prints every semester result of a student.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res := app.Service.AcademicResult(cmd.Context(), args[0])
		if asJSON {
			return printJSON(res)
		}
		if res.Error != "" {
			return errors.New(res.Error)
		}

		renderDetails(os.Stdout, res.Details)
		for _, entry := range res.Results {
			renderSubjects(os.Stdout, entry.Semester, entry.Result)
		}
		return nil
	},
}
