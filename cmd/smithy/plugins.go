package main

import (
	"encoding/json"

	"github.com/smithy-lang/smithy-model-core/internal/build"
	"github.com/smithy-lang/smithy-model-core/internal/loader"
	"github.com/smithy-lang/smithy-model-core/internal/model"
	"github.com/smithy-lang/smithy-model-core/internal/node"
	"github.com/smithy-lang/smithy-model-core/internal/shape"
	"github.com/smithy-lang/smithy-model-core/internal/shapeid"
	"github.com/smithy-lang/smithy-model-core/internal/unparse"
)

// astPlugin writes the projection's model out as JSON AST, one model.json
// per projection.
func astPlugin(m *model.Model, settings json.RawMessage, manifest *build.FileManifest) error {
	out := make(map[shapeid.ID]*shape.Shape)
	for _, s := range m.Shapes() {
		out[s.ID] = s
	}
	encoded := loader.EncodeModelJSON("2.0", node.NewObject(), out)
	text, err := node.Serialize(encoded)
	if err != nil {
		return err
	}
	return manifest.WriteFile("model", "model.json", []byte(text+"\n"))
}

// idlPlugin writes one .smithy file per non-prelude namespace in the
// projection's model, via internal/unparse.
func idlPlugin(m *model.Model, settings json.RawMessage, manifest *build.FileManifest) error {
	for _, ns := range unparse.Namespaces(m) {
		text := unparse.IDL(m, ns)
		if err := manifest.WriteFile("idl", ns+".smithy", []byte(text)); err != nil {
			return err
		}
	}
	return nil
}
