package output

import "sort"

var personColors = []string{
	"#C99E50", "#7FA8C9", "#4A9B6F", "#EBCA9C",
	"#A07C3C", "#5B8FAD", "#D4AE6A", "#3D7A5C",
	"#B87333", "#6CA0BE", "#8FBD9A", "#C8A060",
	"#9F79C8", "#D4876A", "#5AABB8",
}

// PersonPalette assigns each distinct name a color. Names are sorted first,
// so the same set of people gets the same colors on every run.
func PersonPalette(names []string) map[string]string {
	distinct := make(map[string]struct{}, len(names))
	for _, name := range names {
		distinct[name] = struct{}{}
	}

	sorted := make([]string, 0, len(distinct))
	for name := range distinct {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	palette := make(map[string]string, len(sorted))
	for i, name := range sorted {
		palette[name] = personColors[i%len(personColors)]
	}
	return palette
}
