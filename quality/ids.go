package quality

import "github.com/tubelink/tubelink/source"

// Candidate is one (tier, variant) pair probed by a fallback chain.
type Candidate struct {
	Tier    Tier
	Variant source.Variant
}

// representationIDs are the upstream format tags of the video-only representations.
// Primary is the VP9 WebM encoding, Alternate the H.264 MP4 one.
var representationIDs = map[Candidate]string{
	{Tier1080, source.Primary}:   "248",
	{Tier1080, source.Alternate}: "137",
	{Tier720, source.Primary}:    "247",
	{Tier720, source.Alternate}:  "136",
	{Tier480, source.Primary}:    "244",
	{Tier480, source.Alternate}:  "135",
	{Tier360, source.Primary}:    "243",
	{Tier360, source.Alternate}:  "134",
	{Tier240, source.Primary}:    "242",
	{Tier240, source.Alternate}:  "133",
	{Tier144, source.Primary}:    "278",
	{Tier144, source.Alternate}:  "160",
}

// Baseline is the lowest candidate every chain ends at.
var Baseline = Candidate{Tier144, source.Alternate}

// BaselineAudioID is the single modeled audio representation (AAC in MP4).
const BaselineAudioID = "140"

// BaselineVideoID is the representation id of Baseline.
const BaselineVideoID = "160"

// ID returns the representation id of a candidate.
func ID(c Candidate) (string, bool) {
	id, ok := representationIDs[c]
	return id, ok
}

// Describe returns the candidate a video representation id stands for.
func Describe(id string) (Candidate, bool) {
	for c, candidateID := range representationIDs {
		if candidateID == id {
			return c, true
		}
	}
	return Candidate{}, false
}
