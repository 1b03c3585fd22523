package quality

import (
	"fmt"

	"github.com/tubelink/tubelink/source"
)

// Select returns the id of the first candidate of the tier's chain present in the catalog.
// The same tier and catalog always yield the same id. A catalog without the baseline
// representation fails with source.ErrRepresentationNotFound.
func Select(t Tier, catalog source.Catalog) (string, error) {
	id, _, err := SelectDepth(t, catalog)
	return id, err
}

// SelectDepth is Select that also reports how many candidates were skipped.
func SelectDepth(t Tier, catalog source.Catalog) (string, int, error) {
	chain, ok := ChainFor(t)
	if !ok {
		return "", 0, fmt.Errorf("%w: no chain for tier %s", source.ErrRepresentationNotFound, t)
	}

	for depth, candidate := range chain {
		id, ok := ID(candidate)
		if ok && catalog.Has(id) {
			return id, depth, nil
		}
	}

	return "", len(chain), fmt.Errorf("%w: chain for %s exhausted", source.ErrRepresentationNotFound, t)
}

// SelectAudio returns the baseline audio id. Only one audio quality is modeled.
func SelectAudio(catalog source.Catalog) (string, error) {
	if !catalog.Has(BaselineAudioID) {
		return "", fmt.Errorf("%w: audio %s", source.ErrRepresentationNotFound, BaselineAudioID)
	}
	return BaselineAudioID, nil
}
