package manifest

import (
	"fmt"

	"github.com/jdavidagudelo/handoff/domain/entities"
)

var knownOwnership = map[entities.Ownership]bool{
	entities.OwnershipValue:    true,
	entities.OwnershipBorrowed: true,
	entities.OwnershipOwned:    true,
	entities.OwnershipConsumed: true,
	entities.OwnershipStatic:   true,
}

// checkOwnership enforces that every owned value has exactly one way back:
// an entry point that hands out owned memory names its release entry point,
// that entry point consumes exactly one value, and nothing is consumed
// without having been handed out.
func checkOwnership(m *entities.Manifest, result *entities.ValidationResult) {
	seen := make(map[string]bool, len(m.EntryPoints))
	for _, ep := range m.EntryPoints {
		if seen[ep.Name] {
			result.Add(ep.Name, "duplicate entry point")
		}
		seen[ep.Name] = true
	}

	releasers := make(map[string]string)
	for _, ep := range m.EntryPoints {
		checkEntryPoint(m, ep, result)
		if ep.ReleasedBy != "" {
			releasers[ep.ReleasedBy] = ep.Name
		}
	}

	for _, ep := range m.EntryPoints {
		if consumes(ep) > 0 && releasers[ep.Name] == "" {
			result.Add(ep.Name, "consumes a value no entry point hands out")
		}
	}
}

func checkEntryPoint(m *entities.Manifest, ep entities.EntryPoint, result *entities.ValidationResult) {
	if len(ep.Inputs) != len(ep.Params) {
		result.Add(ep.Name, fmt.Sprintf("%d inputs for %d params", len(ep.Inputs), len(ep.Params)))
	}
	for i, o := range ep.Inputs {
		if !knownOwnership[o] {
			result.Add(fmt.Sprintf("%s.inputs[%d]", ep.Name, i), fmt.Sprintf("unknown ownership %q", o))
		}
	}

	switch {
	case len(ep.Results) == 0 && ep.Output != "":
		result.Add(ep.Name, "output ownership without a result")
	case len(ep.Results) > 0 && !knownOwnership[ep.Output]:
		result.Add(ep.Name, fmt.Sprintf("unknown output ownership %q", ep.Output))
	case ep.Output == entities.OwnershipConsumed:
		result.Add(ep.Name, "a result cannot be consumed")
	}

	if !handsOut(ep) {
		if ep.ReleasedBy != "" {
			result.Add(ep.Name, "released_by without an owned value")
		}
		return
	}
	if ep.ReleasedBy == "" {
		result.Add(ep.Name, "owned value has no released_by")
		return
	}
	release, ok := m.Lookup(ep.ReleasedBy)
	if !ok {
		result.Add(ep.Name, fmt.Sprintf("released_by %q is not an entry point", ep.ReleasedBy))
		return
	}
	if n := consumes(release); n != 1 {
		result.Add(ep.Name, fmt.Sprintf("released_by %q consumes %d values, want 1", ep.ReleasedBy, n))
	}
}

// handsOut reports whether ep gives the caller owned memory, as a result or
// through an out-parameter.
func handsOut(ep entities.EntryPoint) bool {
	n := 0
	if ep.Output == entities.OwnershipOwned {
		n++
	}
	for _, o := range ep.Inputs {
		if o == entities.OwnershipOwned {
			n++
		}
	}
	return n > 0
}

func consumes(ep entities.EntryPoint) int {
	n := 0
	for _, o := range ep.Inputs {
		if o == entities.OwnershipConsumed {
			n++
		}
	}
	return n
}
