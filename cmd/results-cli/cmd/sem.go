package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(semCmd)
}

var semCmd = &cobra.Command{
	Use:   "sem <htno> <semester>",
	Short: "Prints the result of a student for one semester, e.g. `sem 20E51A0501 3-1`.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		res := app.Service.SemesterResult(cmd.Context(), args[0], args[1])
		if asJSON {
			return printJSON(res)
		}
		if res.Error != "" && len(res.Result) == 0 && res.Details.Empty() {
			return errors.New(res.Error)
		}

		renderDetails(os.Stdout, res.Details)
		renderSubjects(os.Stdout, args[1], res.Result)
		return nil
	},
}
