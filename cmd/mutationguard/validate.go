package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/GarciaKevinFab/SISTEMA-ACADEMICO-sub002/internal/gate"
	"github.com/GarciaKevinFab/SISTEMA-ACADEMICO-sub002/internal/mongosafe"
)

type validateFlags struct {
	operators bool
}

func newValidateCmd() *cobra.Command {
	f := &validateFlags{}

	cmd := &cobra.Command{
		Use:   "validate [extended-json]",
		Short: "Check that an update document uses update operators",
		Long: `Validate an update document written as MongoDB extended JSON, given as
an argument or on stdin. Exits 1 when the document would be rejected.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.operators {
				return listOperators(cmd.OutOrStdout())
			}
			var input []byte
			if len(args) == 1 {
				input = []byte(args[0])
			} else {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return exitError(exitConfig, "failed to read stdin: %v", err)
				}
				input = data
			}
			return runValidate(input, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&f.operators, "operators", false, "List the accepted update operators and modifiers")
	return cmd
}

func runValidate(input []byte, out io.Writer) error {
	input = bytes.TrimSpace(input)
	if len(input) == 0 {
		return exitError(exitConfig, "no document given")
	}

	var doc any
	if input[0] == '[' {
		// pipeline-style updates are arrays; let the validator reject them
		doc = bson.A{}
	} else {
		var d bson.D
		if err := bson.UnmarshalExtJSON(input, false, &d); err != nil {
			return exitError(exitConfig, "cannot parse document: %v", err)
		}
		doc = d
	}

	if err := mongosafe.Validate(doc); err != nil {
		var ve *mongosafe.ValidationError
		if errors.As(err, &ve) {
			return exitError(gate.ExitBlocked, "%s", ve.Error())
		}
		return exitError(exitConfig, "%v", err)
	}

	d := doc.(bson.D)
	keys := make([]string, len(d))
	for i, e := range d {
		keys[i] = e.Key
	}
	fmt.Fprintf(out, "valid update document: %s\n", strings.Join(keys, ", "))
	return nil
}

func listOperators(out io.Writer) error {
	fmt.Fprintf(out, "operators: %s\n", strings.Join(mongosafe.Operators(), " "))
	fmt.Fprintf(out, "modifiers: %s\n", strings.Join(mongosafe.Modifiers(), " "))
	return nil
}
