// Command check_boundaries enforces the import rules between bounded contexts
// and between the layers of a single context.
//
//	go run ./scripts/check_boundaries.go [-root contexts]
package main

import (
	"flag"
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const modulePath = "ballotbox"

type violation struct {
	File   string
	Line   int
	Import string
	Rule   string
}

// layerRules lists, per layer, the module-local prefixes a file may import
// in addition to the standard library. Prefixes starting with "/" are
// relative to the owning context.
var layerRules = map[string][]string{
	"domain":      {"/domain"},
	"ports":       {"/domain", "/ports", modulePath + "/contracts"},
	"application": {"/application", "/domain", "/ports", modulePath + "/contracts"},
}

func main() {
	root := flag.String("root", "contexts", "directory holding the bounded contexts")
	flag.Parse()

	violations := collectViolations(*root)
	if len(violations) == 0 {
		fmt.Println("boundary checks passed")
		return
	}

	sort.Slice(violations, func(i, j int) bool {
		if violations[i].File == violations[j].File {
			if violations[i].Line == violations[j].Line {
				return violations[i].Import < violations[j].Import
			}
			return violations[i].Line < violations[j].Line
		}
		return violations[i].File < violations[j].File
	})

	fmt.Println("boundary violations found:")
	for _, v := range violations {
		fmt.Printf("- %s:%d imports %q (%s)\n", v.File, v.Line, v.Import, v.Rule)
	}
	os.Exit(1)
}

func collectViolations(root string) []violation {
	var violations []violation

	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) < 3 {
			return nil
		}

		contextPrefix := fmt.Sprintf("%s/contexts/%s/%s", modulePath, parts[0], parts[1])
		violations = append(violations, validateFile(path, filepath.ToSlash(path), parts[2], contextPrefix)...)
		return nil
	})

	return violations
}

func validateFile(path string, normalizedPath string, layer string, contextPrefix string) []violation {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
	if err != nil {
		return []violation{{File: normalizedPath, Line: 1, Rule: "file must parse"}}
	}

	var violations []violation
	for _, imp := range file.Imports {
		importPath := strings.Trim(imp.Path.Value, "\"")
		line := fset.Position(imp.Pos()).Line
		add := func(rule string) {
			violations = append(violations, violation{
				File:   normalizedPath,
				Line:   line,
				Import: importPath,
				Rule:   rule,
			})
		}

		if hasPrefix(importPath, modulePath+"/contexts") && !hasPrefix(importPath, contextPrefix) {
			add("cross-context imports are forbidden")
		}

		allowed, layered := layerRules[layer]
		if !layered {
			continue
		}
		if strings.Contains(importPath, "/adapters/") {
			add(layer + " must not import adapters")
		}
		if hasPrefix(importPath, modulePath+"/internal") {
			add(layer + " must not import runtime infrastructure")
		}
		if layer == "domain" && !isStdlib(importPath) && !isModuleLocal(importPath) {
			add("domain must stay on the standard library")
			continue
		}
		if isModuleLocal(importPath) && !isAllowed(importPath, resolve(allowed, contextPrefix)) {
			add(layer + " import is outside explicit allowlist")
		}
	}

	return violations
}

func resolve(prefixes []string, contextPrefix string) []string {
	out := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		if strings.HasPrefix(p, "/") {
			p = contextPrefix + p
		}
		out = append(out, p)
	}
	return out
}

func hasPrefix(path string, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func isAllowed(importPath string, allowedPrefixes []string) bool {
	for _, p := range allowedPrefixes {
		if hasPrefix(importPath, p) {
			return true
		}
	}
	return false
}

func isModuleLocal(importPath string) bool {
	return hasPrefix(importPath, modulePath)
}

func isStdlib(importPath string) bool {
	if isModuleLocal(importPath) {
		return false
	}
	first := importPath
	if idx := strings.Index(first, "/"); idx != -1 {
		first = first[:idx]
	}
	return !strings.Contains(first, ".")
}
