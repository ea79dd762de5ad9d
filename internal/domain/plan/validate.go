package plan

import "strings"

// ValidateSequenceOrder checks that orders forms {0, 1, ..., n-1} with no
// gaps.
func ValidateSequenceOrder(orders []int) error {
	seen := make(map[int]bool, len(orders))
	for _, o := range orders {
		if o < 0 || o >= len(orders) {
			return ValidationError("sequence_order out of range")
		}
		if seen[o] {
			return ValidationError("duplicate sequence_order")
		}
		seen[o] = true
	}
	return nil
}

// ValidateDependencies checks that every id in deps exists in siblingIDs
// and that the dependency graph restricted to siblingIDs is acyclic.
func ValidateDependencies(siblingIDs []string, depsByID map[string][]string) error {
	idSet := make(map[string]bool, len(siblingIDs))
	for _, id := range siblingIDs {
		idSet[id] = true
	}
	for id, deps := range depsByID {
		for _, d := range deps {
			if !idSet[d] {
				return ValidationError("dependency " + d + " of " + id + " is not a sibling")
			}
		}
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(siblingIDs))
	var visit func(id string) error
	visit = func(id string) error {
		color[id] = gray
		for _, d := range depsByID[id] {
			switch color[d] {
			case gray:
				return ValidationError("dependency cycle involving " + id + " and " + d)
			case white:
				if err := visit(d); err != nil {
					return err
				}
			}
		}
		color[id] = black
		return nil
	}
	for _, id := range siblingIDs {
		if color[id] == white {
			if err := visit(id); err != nil {
				return err
			}
		}
	}
	return nil
}

// ValidateIDPrefix checks that childID has parentID as a strict prefix
// under the hierarchical reference-encoding scheme (e.g. "S1_W1" is a
// valid prefix of "S1_W1_ET1").
func ValidateIDPrefix(parentID, childID string) error {
	if parentID == "" {
		return nil
	}
	if !strings.HasPrefix(childID, parentID+"_") {
		return ValidationError("id " + childID + " does not extend parent id " + parentID)
	}
	return nil
}
