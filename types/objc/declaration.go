package objc

import "strings"

// declList renders a non-empty sub-list as a `// banner` comment
// followed by each element joined by a newline; an empty list renders
// to nothing, matching the renderer's "empty lists are omitted" rule.
func declList(banner string, lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return "// " + banner + "\n" + strings.Join(lines, "\n") + "\n"
}

func conformance(names []string) string {
	if len(names) == 0 {
		return ""
	}
	return " <" + strings.Join(names, ", ") + ">"
}

func methodLines(methods []Method) []string {
	lines := make([]string, len(methods))
	for i, m := range methods {
		lines[i] = m.Declaration()
	}
	return lines
}

func propertyLines(props []Property) []string {
	lines := make([]string, len(props))
	for i, p := range props {
		lines[i] = p.Declaration()
	}
	return lines
}

func protocolNames(prots []*Protocol) []string {
	names := make([]string, len(prots))
	for i, p := range prots {
		names[i] = p.Name
	}
	return names
}
