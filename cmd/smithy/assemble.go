package main

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/smithy-lang/smithy-model-core/internal/loader"
	"github.com/smithy-lang/smithy-model-core/internal/prelude"
)

// importFileExtensions lists the file types expandPaths recurses into.
var importFileExtensions = map[string]bool{".smithy": true, ".json": true}

// expandPaths walks directory arguments down to individual model files,
// returning an error wrapped with context on the first failure.
func expandPaths(paths []string) ([]string, error) {
	var result []string
	for _, path := range paths {
		ext := filepath.Ext(path)
		if importFileExtensions[ext] {
			result = append(result, path)
			continue
		}
		fi, err := os.Stat(path)
		if err != nil {
			return nil, errors.Wrapf(err, "stat %s", path)
		}
		if !fi.IsDir() {
			continue
		}
		err = filepath.Walk(path, func(wpath string, info os.FileInfo, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if importFileExtensions[filepath.Ext(wpath)] {
				result = append(result, wpath)
			}
			return nil
		})
		if err != nil {
			return nil, errors.Wrapf(err, "walking %s", path)
		}
	}
	return result, nil
}

// assembleFromPaths loads every file reachable from paths into a single
// Model, returning the loader.Result (with its accumulated diagnostics)
// rather than raising on the first malformed shape.
func assembleFromPaths(paths []string) (loader.Result, error) {
	files, err := expandPaths(paths)
	if err != nil {
		return loader.Result{}, err
	}
	asm := loader.New(prelude.NewRegistry())
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return loader.Result{}, errors.Wrapf(err, "reading %s", f)
		}
		asm.AddSource(f, data)
	}
	return asm.Assemble(), nil
}

