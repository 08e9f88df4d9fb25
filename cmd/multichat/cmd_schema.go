package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/janhq/multichat/pkg/codegen"
)

var schemaCmd = &cobra.Command{
	Use:   "schema [name]",
	Short: "Print JSON Schemas of the wire format",
	Long: `Print the JSON Schema of a wire type (stream-request, frame or catalog).
With --output every schema is written to that directory instead.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: codegen.Names(),
	RunE:      runSchema,
}

func init() {
	schemaCmd.Flags().StringP("output", "o", "", "Write all schemas into this directory")
}

func runSchema(cmd *cobra.Command, args []string) error {
	outputDir, _ := cmd.Flags().GetString("output")
	out := cmd.OutOrStdout()

	if outputDir != "" {
		paths, err := codegen.GenerateJSONSchema(outputDir)
		if err != nil {
			return fmt.Errorf("generate JSON schema: %w", err)
		}
		for _, path := range paths {
			fmt.Fprintf(out, "✓ Generated %s\n", path)
		}
		return nil
	}

	names := codegen.Names()
	if len(args) == 1 {
		names = []string{args[0]}
	}
	for _, name := range names {
		data, err := codegen.Marshal(name)
		if err != nil {
			return err
		}
		if _, err := out.Write(data); err != nil {
			return err
		}
	}
	return nil
}
