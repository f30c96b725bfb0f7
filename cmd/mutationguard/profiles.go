package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/GarciaKevinFab/SISTEMA-ACADEMICO-sub002/internal/config"
)

func newProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles [name]",
		Short: "List builtin profiles, or print one as YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return showProfile(args[0], cmd.OutOrStdout())
			}
			return listProfiles(cmd.OutOrStdout())
		},
	}
}

func listProfiles(out io.Writer) error {
	names, err := config.List()
	if err != nil {
		return exitError(exitConfig, "failed to list profiles: %v", err)
	}
	for _, n := range names {
		c, err := config.LoadBuiltin(n)
		if err != nil {
			return exitError(exitConfig, "%v", err)
		}
		fmt.Fprintf(out, "%-14s %s\n", n, c.Description)
	}
	return nil
}

func showProfile(name string, out io.Writer) error {
	c, err := config.LoadBuiltin(name)
	if err != nil {
		return exitError(exitConfig, "%v", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return exitError(exitConfig, "failed to encode profile: %v", err)
	}
	_, err = out.Write(data)
	return err
}
