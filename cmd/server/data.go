package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Replace all records with the first sheet of an .xlsx or .csv file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, service, err := setup()
			if err != nil {
				return err
			}

			result, err := service.ReplaceFromFile(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("import %s: %w", args[0], err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "imported %d records (%d columns)\n", result.Records, len(result.Columns))
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	var pretty bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print all records as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, service, err := setup()
			if err != nil {
				return err
			}

			records, err := service.List(cmd.Context())
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			if pretty {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(records)
		},
	}
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")

	return cmd
}
