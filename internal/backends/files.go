package backends

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"apifp/internal/errors"
)

// skipDirs are never descended into when collecting inputs
var skipDirs = map[string]bool{
	".git": true, ".apifp": true, "bin": true, "obj": true, "node_modules": true,
}

// InputFiles lists the files under path that b claims, in lexical order.
// A file path is returned as is when b claims it.
func InputFiles(ctx context.Context, b Backend, path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.New(errors.InputInvalid, "cannot read input "+path, err)
	}
	if !info.IsDir() {
		if !Claims(b, path) {
			return nil, errors.Newf(errors.InputInvalid, "%s backend does not handle %s", b.ID(), path)
		}
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if p != path && (skipDirs[d.Name()] || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if Claims(b, p) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.New(errors.InputInvalid, "cannot walk "+path, err)
	}
	sort.Strings(files)
	return files, nil
}
