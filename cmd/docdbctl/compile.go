package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jsonbstore/docdb/internal/query"
)

func newCompileCmd() *cobra.Command {
	var table, jsonField string

	cmd := &cobra.Command{
		Use:   "compile <query.json>",
		Short: "Compile a MongoDB-shaped query document to SQL, without touching a database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readJSONArg(args[0])
			if err != nil {
				return err
			}

			var q map[string]any
			if err := json.Unmarshal(raw, &q); err != nil {
				return fmt.Errorf("decode query document: %w", err)
			}

			sqlText, params, err := query.BuildSelect(table, q, query.BuildOptions{JSONField: jsonField})
			if err != nil {
				return err
			}

			fmt.Println(sqlText)
			for i, p := range params {
				fmt.Printf("$%d = %v\n", i+1, p)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&table, "table", "documents", "table name to SELECT from")
	cmd.Flags().StringVar(&jsonField, "json-field", "data", "JSONB column name")
	return cmd
}
