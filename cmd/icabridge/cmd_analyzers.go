package main

import (
	"fmt"

	"icabridge/internal/csvdecode"
	"icabridge/internal/render"

	"github.com/spf13/cobra"
)

// analyzersCmd lists the built-in analyzers
var analyzersCmd = &cobra.Command{
	Use:   "analyzers",
	Short: "List the built-in analyzers",
	Args:  cobra.NoArgs,
	RunE:  listAnalyzers,
}

func listAnalyzers(cmd *cobra.Command, args []string) error {
	listing := &csvdecode.Result{
		Headers: []csvdecode.Header{
			{Original: "Name", ID: "name"},
			{Original: "Category", ID: "category"},
			{Original: "Description", ID: "description"},
		},
	}
	for _, a := range registry.All() {
		listing.Rows = append(listing.Rows, csvdecode.Record{
			"name":        a.Name,
			"category":    string(a.Category),
			"description": a.Description,
		})
	}

	_, err := fmt.Fprint(cmd.OutOrStdout(), render.Table(listing, render.DefaultStyles()))
	return err
}
