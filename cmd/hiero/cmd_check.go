package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dhamidi/hiero/decoder"
	"github.com/dhamidi/hiero/vocab"
)

func newCheckCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "check",
		Short:         "Validate a config file and load its grammars and models",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := decoder.LoadConfig(configPath)
			if err != nil {
				return err
			}

			v := vocab.New()
			grammars, err := decoder.LoadGrammars(cfg, v)
			if err != nil {
				return err
			}
			features, err := decoder.BuildFeatures(cfg, v)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, g := range grammars {
				fmt.Fprintf(out, "grammar %s: %d rules\n", g.Owner(), g.NumRules())
			}
			for _, f := range features {
				fmt.Fprintf(out, "feature %s\n", f.Name())
			}
			fmt.Fprintf(out, "vocabulary: %d symbols\n", v.Size())
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	cmd.MarkFlagRequired("config")

	return cmd
}
