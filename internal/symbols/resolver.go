package symbols

import (
	"path"
	"strings"
)

// PythonModuleIndex maps a dotted module path to the repo-relative
// file that defines it, built from file stems and __init__.py
// directories (spec §4.6 step 5 "build a module→path index").
type PythonModuleIndex struct {
	byModule map[string]string
}

func BuildPythonModuleIndex(paths []string) *PythonModuleIndex {
	idx := &PythonModuleIndex{byModule: map[string]string{}}
	for _, p := range paths {
		if !strings.HasSuffix(p, ".py") {
			continue
		}
		stem := strings.TrimSuffix(p, ".py")
		module := strings.ReplaceAll(stem, "/", ".")
		if strings.HasSuffix(stem, "/__init__") {
			module = strings.ReplaceAll(strings.TrimSuffix(stem, "/__init__"), "/", ".")
		}
		idx.byModule[module] = p
	}
	return idx
}

// Resolve resolves a Python import to a repo-relative path. declaringModule
// is the dotted package path of the file performing the import (needed for
// `from .rel import Z`, level>0).
func (idx *PythonModuleIndex) Resolve(module string, level int, declaringModule string) string {
	if level > 0 {
		parts := strings.Split(declaringModule, ".")
		if level > len(parts) {
			level = len(parts)
		}
		base := parts[:len(parts)-level]
		if module != "" {
			base = append(base, strings.Split(module, ".")...)
		}
		module = strings.Join(base, ".")
	}
	if p, ok := idx.byModule[module]; ok {
		return p
	}
	return ""
}

// TSModuleIndex resolves relative/absolute TS/JS specifiers to a
// repo-relative path, trying the configured extensions and an
// index.<ext> fallback for directory imports (spec §4.6 step 5).
type TSModuleIndex struct {
	exists map[string]bool
}

var tsCandidateExtensions = []string{".ts", ".tsx", ".js", ".jsx"}

func BuildTSModuleIndex(paths []string) *TSModuleIndex {
	exists := map[string]bool{}
	for _, p := range paths {
		exists[p] = true
	}
	return &TSModuleIndex{exists: exists}
}

func (idx *TSModuleIndex) Resolve(fromFile, specifier string) string {
	if !isRelativeOrAbsoluteSpecifier(specifier) {
		return ""
	}
	var base string
	if strings.HasPrefix(specifier, "/") {
		base = strings.TrimPrefix(specifier, "/")
	} else {
		base = path.Join(path.Dir(fromFile), specifier)
	}
	base = path.Clean(base)

	for _, ext := range tsCandidateExtensions {
		if idx.exists[base+ext] {
			return base + ext
		}
	}
	for _, ext := range tsCandidateExtensions {
		candidate := base + "/index" + ext
		if idx.exists[candidate] {
			return candidate
		}
	}
	if idx.exists[base] {
		return base
	}
	return ""
}
