package symptoms

import "strings"

// Extract scans message for known symptom labels and returns the matched
// labels and the names of the categories they belong to.
//
// Matching is case-insensitive substring containment, walked in taxonomy
// declaration order: labels are appended category by category in their
// declared order, and a category name is appended once when at least one of
// its labels matched. Labels shared by several categories are reported under
// each. The output order is therefore stable for a given message and never
// alphabetical.
func Extract(message string) (labels []string, categories []string) {
	labels = []string{}
	categories = []string{}

	lowered := strings.ToLower(message)

	for _, category := range taxonomy {
		matched := labelsIn(lowered, category.Labels)
		if len(matched) == 0 {
			continue
		}

		labels = append(labels, matched...)
		categories = append(categories, category.Name)
	}

	return labels, categories
}

// labelsIn returns the labels whose lower-cased form is contained in the
// already lower-cased message, preserving declaration order.
func labelsIn(lowered string, candidates []string) []string {
	var found []string
	for _, label := range candidates {
		if !strings.Contains(lowered, strings.ToLower(label)) {
			continue
		}
		found = append(found, label)
	}
	return found
}
