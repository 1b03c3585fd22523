// Package icon renders status symbols in the variant chosen by the icons.variant setting.
//
// Icons can be displayed as emoji, nerd-font glyphs, plain ASCII or Unicode squares.
package icon

import (
	"github.com/spf13/viper"
	"github.com/tubelink/tubelink/key"
)

const (
	emoji   = "emoji"
	nerd    = "nerd"
	plain   = "plain"
	squares = "squares"
)

// AvailableVariants returns every supported icon variant.
func AvailableVariants() []string {
	return []string{emoji, nerd, plain, squares}
}

// Icon identifies a symbol.
type Icon int

const (
	Success Icon = iota
	Fail
	Progress
	Video
	Audio
	Live
	Event
)

type iconDef struct {
	emoji   string
	nerd    string
	plain   string
	squares string
}

var icons = map[Icon]*iconDef{
	Success:  {emoji: "✅", nerd: "", plain: "+", squares: "🟩"},
	Fail:     {emoji: "❌", nerd: "", plain: "x", squares: "🟥"},
	Progress: {emoji: "⏳", nerd: "", plain: "~", squares: "🟨"},
	Video:    {emoji: "🎞️", nerd: "", plain: "V", squares: "🟦"},
	Audio:    {emoji: "🔊", nerd: "", plain: "A", squares: "🟪"},
	Live:     {emoji: "🔴", nerd: "", plain: "*", squares: "🟥"},
	Event:    {emoji: "📣", nerd: "", plain: ">", squares: "⬜"},
}

// Get renders the definition in the configured variant. Unknown variants render nothing.
func (d *iconDef) Get() string {
	switch viper.GetString(key.IconsVariant) {
	case emoji:
		return d.emoji
	case nerd:
		return d.nerd
	case plain:
		return d.plain
	case squares:
		return d.squares
	default:
		return ""
	}
}

// Get returns the rendered icon.
func Get(i Icon) string {
	return icons[i].Get()
}
