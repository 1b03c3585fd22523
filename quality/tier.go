// Package quality maps requested quality tiers onto upstream representation ids
// through a fixed fallback table.
package quality

import (
	"fmt"
	"strings"
)

// Tier is a requested nominal quality level. Tiers are ordered from lowest to highest;
// Default sits last and stands for 720p.
type Tier int

const (
	Tier144 Tier = iota
	Tier240
	Tier360
	Tier480
	Tier720
	Tier1080
	Default
)

var tierNames = map[Tier]string{
	Tier144:  "144p",
	Tier240:  "240p",
	Tier360:  "360p",
	Tier480:  "480p",
	Tier720:  "720p",
	Tier1080: "1080p",
	Default:  "default",
}

// Tiers lists every tier in ascending order.
func Tiers() []Tier {
	return []Tier{Tier144, Tier240, Tier360, Tier480, Tier720, Tier1080, Default}
}

func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Tier(%d)", int(t))
}

// Resolve maps Default onto the fixed high tier it stands for.
func (t Tier) Resolve() Tier {
	if t == Default {
		return Tier720
	}
	return t
}

// ParseTier accepts "720p", "720", "default" or an empty string (which means Default).
func ParseTier(s string) (Tier, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Default, nil
	}
	if !strings.HasSuffix(s, "p") && s != "default" {
		s += "p"
	}
	for t, name := range tierNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown quality %q", s)
}

func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Tier) UnmarshalText(text []byte) error {
	parsed, err := ParseTier(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
