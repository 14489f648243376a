package director

import (
	"fmt"
	"strings"
)

// Phase is an inclusive span of frames on a preset's base timeline.
type Phase struct {
	Start, End int
}

// Progress returns how far pos is through the phase, clamped to [0,1].
func (p Phase) Progress(pos float64) float64 {
	if p.End <= p.Start {
		if pos >= float64(p.Start) {
			return 1
		}
		return 0
	}
	return clamp01((pos - float64(p.Start)) / float64(p.End-p.Start))
}

// Active reports whether pos falls inside the phase.
func (p Phase) Active(pos float64) bool {
	return pos >= float64(p.Start) && pos <= float64(p.End)
}

// Palette holds the colors of a preset.
type Palette struct {
	Background string
	Accent     RGB
	Particle   string
	Title      string
	Body       string
}

// RGB is an opaque color whose alpha is animated separately.
type RGB struct{ R, G, B uint8 }

// Preset parameterizes the achievement generator. Every frame index is
// expressed on a timeline of BaseFrames frames and rescaled to the
// requested length.
type Preset struct {
	Name          string
	BaseFrames    int
	Width, Height int
	Palette       Palette
	Headline      string

	Logo     Phase
	Heading  Phase
	Entrance Phase
	// EntranceScale drives the hero image size during Entrance.
	EntranceScale Easing
	// EntranceRotation is the starting tilt in degrees, unwound linearly.
	EntranceRotation float64
	// Pulse runs Settle on the hero scale after the entrance; zero disables it.
	Pulse Phase
	// Ring draws a glow ring around the hero image while fading in.
	Ring *Phase
	// HeroSize is the hero image edge as a fraction of the shorter canvas side.
	HeroSize float64

	TitleAt       int
	DescriptionAt int
	FooterAt      int
	TextFade      int

	Shine          Phase
	ParticlesAfter int
	ParticleCount  int
}

// Badge pops the badge in with a capped bounce and settles.
var Badge = Preset{
	Name:       "badge",
	BaseFrames: 30,
	Width:      600,
	Height:     600,
	Palette: Palette{
		Background: "#0b1f3a",
		Accent:     RGB{255, 215, 0},
		Particle:   "#ffd700",
		Title:      "#ffffff",
		Body:       "#d1d5db",
	},
	Headline:       "ACHIEVEMENT UNLOCKED",
	Logo:           Phase{0, 4},
	Heading:        Phase{5, 14},
	Entrance:       Phase{15, 29},
	EntranceScale:  Bounce,
	HeroSize:       0.4,
	TitleAt:        15,
	DescriptionAt:  20,
	FooterAt:       25,
	TextFade:       5,
	Shine:          Phase{15, 25},
	ParticlesAfter: 20,
	ParticleCount:  24,
}

// NFT zooms and untwists the artwork inside a glow ring, then pulses.
var NFT = Preset{
	Name:       "nft",
	BaseFrames: 90,
	Width:      800,
	Height:     800,
	Palette: Palette{
		Background: "#1e1b4b",
		Accent:     RGB{139, 92, 246},
		Particle:   "#c4b5fd",
		Title:      "#ffffff",
		Body:       "#e0e7ff",
	},
	Headline:         "EXCLUSIVE NFT UNLOCKED",
	Logo:             Phase{0, 9},
	Heading:          Phase{5, 14},
	Entrance:         Phase{15, 44},
	EntranceScale:    Zoom,
	EntranceRotation: -15,
	Pulse:            Phase{45, 89},
	Ring:             &Phase{10, 30},
	HeroSize:         0.45,
	TitleAt:          45,
	DescriptionAt:    55,
	FooterAt:         65,
	TextFade:         10,
	Shine:            Phase{50, 70},
	ParticlesAfter:   60,
	ParticleCount:    36,
}

// PresetByName returns the preset called name (case-insensitive).
func PresetByName(name string) (Preset, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "badge":
		return Badge, nil
	case "nft":
		return NFT, nil
	}
	return Preset{}, fmt.Errorf("unknown preset %q (expected badge or nft)", name)
}
