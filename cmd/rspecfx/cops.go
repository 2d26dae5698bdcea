package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/oxhq/rspecfx/config"
	"github.com/oxhq/rspecfx/cops"
)

func newCopsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cops",
		Short: "Print every cop with its effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.opts.configPath)
			if err != nil {
				return wrap(ErrInvalidConfig, "failed to load configuration", err)
			}
			if err := cfg.CheckCops(cops.Names()); err != nil {
				return wrap(ErrUnknownCop, "invalid configuration", err)
			}

			doc := make(map[string]config.CopConfig)
			for _, e := range cops.Registry() {
				cc := cfg.Cop(e.Name, e.Defaults)
				cc.Description = e.Description
				cc.Enabled = config.Bool(cc.IsEnabled())
				doc[e.Name] = cc
			}

			data, err := yaml.Marshal(doc)
			if err != nil {
				return wrap(ErrIO, "failed to render cops", err)
			}
			fmt.Fprint(a.stdout, string(data))
			return nil
		},
	}
}
