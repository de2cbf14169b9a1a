package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adfharrison1/go-blobdb/pkg/domain"
)

func newRecordsCmd() *cobra.Command {
	recordsCmd := &cobra.Command{
		Use:   "records",
		Short: "Read and change records directly against the configured backend",
	}

	getAllCmd := &cobra.Command{
		Use:   "get-all <collection>",
		Short: "Print every record of a collection",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			records, err := a.provider.GetAll(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, records)
		}),
	}

	getCmd := &cobra.Command{
		Use:   "get <collection> <id>",
		Short: "Print a single record",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			record, err := a.provider.Get(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd, record)
		}),
	}

	createCmd := &cobra.Command{
		Use:   "create <collection> <json>",
		Short: "Create a record; an _id is generated if the record has none",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			record, err := parseRecord(args[1])
			if err != nil {
				return err
			}
			created, err := a.provider.Create(cmd.Context(), args[0], record)
			if err != nil {
				return err
			}
			return printJSON(cmd, created)
		}),
	}

	updateCmd := &cobra.Command{
		Use:   "update <collection> <id> <json>",
		Short: "Merge fields into a record",
		Args:  cobra.ExactArgs(3),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			upsert, _ := cmd.Flags().GetBool("upsert")
			patch, err := parseRecord(args[2])
			if err != nil {
				return err
			}
			updated, err := a.provider.Update(cmd.Context(), args[0], args[1], patch, upsert)
			if err != nil {
				return err
			}
			return printJSON(cmd, updated)
		}),
	}
	updateCmd.Flags().Bool("upsert", false, "Create the record if it does not exist")

	deleteCmd := &cobra.Command{
		Use:   "delete <collection> <id>",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			deleted, err := a.provider.Delete(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]bool{"deleted": deleted})
		}),
	}

	recordsCmd.AddCommand(getAllCmd, getCmd, createCmd, updateCmd, deleteCmd)
	return recordsCmd
}

// withApp builds the app for the command and closes it when fn returns
func withApp(fn func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd, a, args)
	}
}

func parseRecord(data string) (domain.Record, error) {
	var record domain.Record
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, fmt.Errorf("invalid record JSON: %w", err)
	}
	if record == nil {
		return nil, fmt.Errorf("invalid record JSON: expected an object")
	}
	return record, nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
