package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/smithy-lang/smithy-model-core/internal/build"
	"github.com/smithy-lang/smithy-model-core/internal/loader"
)

func newBuildCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Run the build pipeline against a smithy-build.json config",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return err
			}
			cfg, err := build.LoadConfig(data)
			if err != nil {
				return err
			}
			var sources []loader.Source
			for _, s := range cfg.Sources {
				files, err := expandPaths([]string{s})
				if err != nil {
					return err
				}
				for _, f := range files {
					content, err := os.ReadFile(f)
					if err != nil {
						return err
					}
					sources = append(sources, loader.Source{File: f, Data: content})
				}
			}
			plugins := build.NewPluginRegistry()
			registerBuiltinPlugins(plugins)
			runner := build.NewRunner(cfg, sources, plugins)
			runner.Log = log

			result, err := runner.Run()
			if err != nil {
				return err
			}
			for _, e := range result.Events {
				fmt.Fprintln(os.Stderr, e.String())
			}
			if !result.Success {
				return fmt.Errorf("build failed")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "smithy-build.json", "path to the build config")
	return cmd
}

// registerBuiltinPlugins registers the ast/idl output plugins; each writes
// the projected model back out through the FileManifest.
func registerBuiltinPlugins(r *build.PluginRegistry) {
	r.Register("model", astPlugin)
	r.Register("idl", idlPlugin)
}
