package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/smithy-lang/smithy-model-core/internal/diag"
	"github.com/smithy-lang/smithy-model-core/internal/loader"
	"github.com/smithy-lang/smithy-model-core/internal/node"
	"github.com/smithy-lang/smithy-model-core/internal/selector"
	"github.com/smithy-lang/smithy-model-core/internal/shape"
	"github.com/smithy-lang/smithy-model-core/internal/shapeid"
	"github.com/smithy-lang/smithy-model-core/internal/unparse"
	"github.com/smithy-lang/smithy-model-core/internal/validate"
)

func shapeMap(result loader.Result) map[shapeid.ID]*shape.Shape {
	out := make(map[shapeid.ID]*shape.Shape)
	for _, s := range result.Model.Shapes() {
		out[s.ID] = s
	}
	return out
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file|dir>...",
		Short: "Load and validate one or more Smithy models",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := assembleFromPaths(args)
			if err != nil {
				return err
			}
			printEvents(result.Events)
			if result.Model == nil {
				return fmt.Errorf("model failed to assemble")
			}
			events := validate.Default().Run(result.Model)
			events = validate.ApplySuppressions(events, validate.MetadataSuppressions(result.Model), result.Model)
			printEvents(events)
			log.Infof("loaded %d shapes", result.Model.Len())
			for _, e := range events {
				if e.Severity == diag.Error {
					return fmt.Errorf("model failed validation")
				}
			}
			return nil
		},
	}
}

// newASTCmd dumps the assembled model as JSON AST.
func newASTCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "ast <file|dir>...",
		Short: "Print the assembled model as JSON AST",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := assembleFromPaths(args)
			if err != nil {
				return err
			}
			printEvents(result.Events)
			if result.Model == nil {
				return fmt.Errorf("model failed to assemble")
			}
			encoded := loader.EncodeModelJSON("2.0", node.NewObject(), shapeMap(result))
			text, err := node.Serialize(encoded)
			if err != nil {
				return err
			}
			return writeOut(out, text)
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (defaults to stdout)")
	return cmd
}

// newIDLCmd regenerates Smithy IDL text for one namespace of the
// assembled model, via internal/unparse.
func newIDLCmd() *cobra.Command {
	var out string
	var namespace string
	cmd := &cobra.Command{
		Use:   "idl <file|dir>...",
		Short: "Regenerate Smithy IDL text for a namespace of the assembled model",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := assembleFromPaths(args)
			if err != nil {
				return err
			}
			printEvents(result.Events)
			if result.Model == nil {
				return fmt.Errorf("model failed to assemble")
			}
			ns := namespace
			if ns == "" {
				namespaces := unparse.Namespaces(result.Model)
				if len(namespaces) == 0 {
					return fmt.Errorf("no non-prelude namespace found; pass --namespace")
				}
				ns = namespaces[0]
			}
			return writeOut(out, unparse.IDL(result.Model, ns))
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (defaults to stdout)")
	cmd.Flags().StringVarP(&namespace, "namespace", "n", "", "namespace to render (defaults to the first non-prelude namespace found)")
	return cmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <file|dir>...",
		Short: "Print the list of shape names in the assembled model",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := assembleFromPaths(args)
			if err != nil {
				return err
			}
			if result.Model == nil {
				printEvents(result.Events)
				return fmt.Errorf("model failed to assemble")
			}
			for _, s := range result.Model.Shapes() {
				fmt.Println(s.ID.String())
			}
			return nil
		},
	}
}

func newSelectCmd() *cobra.Command {
	var modelPaths []string
	cmd := &cobra.Command{
		Use:   "select <selector-expression>",
		Short: "Evaluate a selector expression against an assembled model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := assembleFromPaths(modelPaths)
			if err != nil {
				return err
			}
			if result.Model == nil {
				printEvents(result.Events)
				return fmt.Errorf("model failed to assemble")
			}
			sel, err := selector.Compile(args[0])
			if err != nil {
				return err
			}
			for _, id := range sel.Select(result.Model) {
				fmt.Println(id.String())
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&modelPaths, "model", "m", nil, "model file or directory (repeatable)")
	cmd.MarkFlagRequired("model")
	return cmd
}

func writeOut(path, text string) error {
	if path == "" {
		fmt.Println(text)
		return nil
	}
	return os.WriteFile(path, []byte(text+"\n"), 0o644)
}
