package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/arnavshah/intervention-scheduler-api/pkg/auth"
	"github.com/arnavshah/intervention-scheduler-api/pkg/models"
	"github.com/arnavshah/intervention-scheduler-api/pkg/scheduler"
)

// errInvalid makes the process exit non-zero after the result has been printed
var errInvalid = errors.New("schedule is not valid")

func readState(path string, stdin io.Reader) (*scheduler.ScheduleState, error) {
	var input models.ScheduleInput
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return scheduler.FromInput(input)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <schedule.json|->",
		Short: "Validate a schedule and print its execution order and export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := readState(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			export, result := scheduler.Export(state)

			out := map[string]any{
				"result": result,
				"order":  scheduler.DeriveExecutionOrder(state),
			}
			if export != nil {
				out["export"] = export
			}
			if err := printJSON(cmd.OutOrStdout(), out); err != nil {
				return err
			}
			if !result.OK {
				return errInvalid
			}
			return nil
		},
	}
}

func optionsCmd() *cobra.Command {
	var interventionID string
	cmd := &cobra.Command{
		Use:   "options <schedule.json|->",
		Short: "List the feasible start days and their latest end for one intervention",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := readState(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for day := range scheduler.CandidateStartOptions(state.Window) {
				latest, ok := scheduler.LatestAllowedEnd(state, interventionID, day)
				if !ok {
					fmt.Fprintf(w, "%s\t-\n", day)
					continue
				}
				fmt.Fprintf(w, "%s\t%s\n", day, latest)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&interventionID, "intervention", "i", "", "intervention to compute options for")
	_ = cmd.MarkFlagRequired("intervention")
	return cmd
}

func keygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen <name>",
		Short: "Print an HMAC API key signed with API_MASTER_SECRET",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := os.Getenv("API_MASTER_SECRET")
			if secret == "" {
				return errors.New("API_MASTER_SECRET not set")
			}
			key := auth.New("", secret).GenerateHMACKey(args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "Generated Key for %s:\n%s\n", args[0], key)
			return nil
		},
	}
}
