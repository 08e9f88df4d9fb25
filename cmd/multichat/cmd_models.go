package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/janhq/multichat/pkg/multichat"
	"github.com/janhq/multichat/pkg/protocol"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models the server offers",
	Long:  `Fetch the model catalogue from the server. The ids are what --model accepts.`,
	Args:  cobra.NoArgs,
	RunE:  runModels,
}

func init() {
	modelsCmd.Flags().Bool("json", false, "Print the raw catalogue as JSON")
}

func runModels(cmd *cobra.Command, _ []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	models, err := newClient(cmd).ListModels(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(protocol.CatalogResponse{Object: "list", Data: models})
	}
	return writeModelTable(out, models)
}

func writeModelTable(out io.Writer, models []protocol.CatalogModel) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, headerStyle.Render("ID")+"\t"+headerStyle.Render("NAME")+"\t"+headerStyle.Render("PROVIDER")+"\t"+headerStyle.Render("MODEL"))
	for _, m := range models {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.ID, m.Name, m.Provider, m.ModelID)
	}
	return tw.Flush()
}

// selectModels resolves --model ids against the catalogue. No ids selects
// every model.
func selectModels(ctx context.Context, client *multichat.Client, ids []string) ([]protocol.CatalogModel, error) {
	catalog, err := client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch model catalogue: %w", err)
	}
	if len(ids) == 0 {
		return catalog, nil
	}

	byID := make(map[string]protocol.CatalogModel, len(catalog))
	for _, m := range catalog {
		byID[m.ID] = m
	}
	selected := make([]protocol.CatalogModel, 0, len(ids))
	var unknown []string
	for _, id := range ids {
		m, ok := byID[id]
		if !ok {
			unknown = append(unknown, id)
			continue
		}
		selected = append(selected, m)
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown model id(s): %s (see `multichat models`)", strings.Join(unknown, ", "))
	}
	return selected, nil
}
