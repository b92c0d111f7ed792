package symbols

import (
	"regexp"
	"strings"
)

var (
	tsFunctionRE = regexp.MustCompile(`^\s*(export\s+default\s+)?(export\s+)?(async\s+)?function\s+([A-Za-z_$][A-Za-z0-9_$]*)\s*\(([^)]*)\)`)
	tsArrowRE    = regexp.MustCompile(`^\s*(export\s+)?const\s+([A-Za-z_$][A-Za-z0-9_$]*)\s*(?::\s*[^=]+)?=\s*(async\s+)?\(([^)]*)\)\s*(?::\s*[^=]+)?=>`)
	tsClassRE    = regexp.MustCompile(`^\s*(export\s+)?(default\s+)?class\s+([A-Za-z_$][A-Za-z0-9_$]*)(?:\s+extends\s+([A-Za-z_$][A-Za-z0-9_.$]*))?(?:\s+implements\s+([A-Za-z0-9_$,\s.]+))?`)
	tsIfaceRE    = regexp.MustCompile(`^\s*(export\s+)?interface\s+([A-Za-z_$][A-Za-z0-9_$]*)(?:\s+extends\s+([A-Za-z0-9_$,\s.]+))?`)

	tsImportRE = regexp.MustCompile(`^\s*import\s+(?:type\s+)?(?:([A-Za-z_$][\w$]*)|[{][^}]*[}]|\*\s+as\s+[A-Za-z_$][\w$]*)?\s*(?:,\s*(?:[{][^}]*[}]))?\s*from\s+['"]([^'"]+)['"]`)
)

// ExtractTypeScript parses a TS/JS source file with the regex subset
// named in spec §4.6: class/interface/function/arrow declarations and
// relative/absolute import specifiers.
func ExtractTypeScript(filePath string, lang string, source []byte) ([]Symbol, []Import) {
	lines := strings.Split(string(source), "\n")
	var symbolsOut []Symbol
	var imports []Import

	for i, line := range lines {
		lineNo := i + 1
		switch {
		case tsFunctionRE.MatchString(line):
			m := tsFunctionRE.FindStringSubmatch(line)
			symbolsOut = append(symbolsOut, Symbol{
				ID:            symbolID(filePath, KindFunction, m[4]),
				Name:          m[4],
				QualifiedName: m[4],
				Kind:          KindFunction,
				Language:      lang,
				LineNumber:    lineNo,
				Signature:     strings.TrimSpace(line),
				IsAsync:       strings.TrimSpace(m[3]) != "",
				Exported:      strings.TrimSpace(m[2]) != "" || strings.TrimSpace(m[1]) != "",
			})
		case tsArrowRE.MatchString(line):
			m := tsArrowRE.FindStringSubmatch(line)
			symbolsOut = append(symbolsOut, Symbol{
				ID:            symbolID(filePath, KindFunction, m[2]),
				Name:          m[2],
				QualifiedName: m[2],
				Kind:          KindFunction,
				Language:      lang,
				LineNumber:    lineNo,
				Signature:     strings.TrimSpace(line),
				IsAsync:       strings.TrimSpace(m[3]) != "",
				Exported:      strings.TrimSpace(m[1]) != "",
			})
		case tsClassRE.MatchString(line):
			m := tsClassRE.FindStringSubmatch(line)
			var bases []string
			if m[4] != "" {
				bases = append(bases, m[4])
			}
			if m[5] != "" {
				for _, part := range strings.Split(m[5], ",") {
					bases = append(bases, strings.TrimSpace(part))
				}
			}
			symbolsOut = append(symbolsOut, Symbol{
				ID:            symbolID(filePath, KindClass, m[3]),
				Name:          m[3],
				QualifiedName: m[3],
				Kind:          KindClass,
				Language:      lang,
				LineNumber:    lineNo,
				Signature:     strings.TrimSpace(line),
				Bases:         bases,
				Exported:      strings.TrimSpace(m[1]) != "" || strings.TrimSpace(m[2]) != "",
			})
		case tsIfaceRE.MatchString(line):
			m := tsIfaceRE.FindStringSubmatch(line)
			var bases []string
			if m[3] != "" {
				for _, part := range strings.Split(m[3], ",") {
					bases = append(bases, strings.TrimSpace(part))
				}
			}
			symbolsOut = append(symbolsOut, Symbol{
				ID:            symbolID(filePath, KindInterface, m[2]),
				Name:          m[2],
				QualifiedName: m[2],
				Kind:          KindInterface,
				Language:      lang,
				LineNumber:    lineNo,
				Signature:     strings.TrimSpace(line),
				Bases:         bases,
				Exported:      strings.TrimSpace(m[1]) != "",
			})
		}

		if m := tsImportRE.FindStringSubmatch(line); m != nil {
			spec := m[2]
			if isRelativeOrAbsoluteSpecifier(spec) {
				var names []string
				if m[1] != "" {
					names = append(names, m[1])
				}
				imports = append(imports, Import{Module: spec, Symbols: names, Line: lineNo})
			}
		}
	}

	return symbolsOut, imports
}

// isRelativeOrAbsoluteSpecifier reports whether an import specifier is
// a relative ("./…") or repo-absolute ("/…") path, per spec §4.6 step 5
// ("only relative or repo-absolute specifiers").
func isRelativeOrAbsoluteSpecifier(spec string) bool {
	return strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../") || strings.HasPrefix(spec, "/")
}
