// Package catalog serves the content released once a payment is verified.
package catalog

import (
	"math/rand/v2"

	"github.com/vitwit/x402gate/types"
)

type Curiosity struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Image   string `json:"image"`
	Fact    string `json:"fact"`
}

// Content is the payload of a 200 response.
type Content struct {
	Title     string             `json:"title"`
	Curiosity Curiosity          `json:"curiosity"`
	Type      types.ResourceKind `json:"type"`
}

// Catalog looks up content by resource kind.
type Catalog interface {
	Content(kind types.ResourceKind, title string) (*Content, error)
}

// Picker returns an index in [0, n).
type Picker func(n int) int

// StaticCatalog returns a random curiosity from a fixed in-memory list.
type StaticCatalog struct {
	curiosities []Curiosity
	pick        Picker
}

// NewStaticCatalog uses the built-in Avalanche curiosities when none are given.
func NewStaticCatalog(curiosities []Curiosity, pick Picker) *StaticCatalog {
	if len(curiosities) == 0 {
		curiosities = AvalancheCuriosities
	}
	if pick == nil {
		pick = rand.IntN
	}
	return &StaticCatalog{curiosities: curiosities, pick: pick}
}

func (c *StaticCatalog) Content(kind types.ResourceKind, title string) (*Content, error) {
	if _, err := types.ParseResourceKind(kind.String()); err != nil {
		return nil, err
	}
	return &Content{
		Title:     title,
		Curiosity: c.curiosities[c.pick(len(c.curiosities))],
		Type:      kind,
	}, nil
}

var AvalancheCuriosities = []Curiosity{
	{
		Title:   "Avalanche Speed Record",
		Message: "Avalanche can process over 4,500 transactions per second and achieve finality in under 2 seconds - one of the fastest blockchain platforms in the world!",
		Image:   "https://media3.giphy.com/media/v1.Y2lkPTc5MGI3NjExYXVwM3NrczRiMThhdmhhenF4b3ZlN2t3OHIwMmI0dTdlaWZxMXN6ZyZlcD12MV9pbnRlcm5hbF9naWZfYnlfaWQmY3Q9Zw/3o7ZePMv221orZKz84/giphy.gif",
		Fact:    "🚀 Lightning Fast Performance",
	},
	{
		Title:   "The Three-Chain Architecture",
		Message: "Avalanche uses a unique three-chain system: X-Chain for asset exchange, C-Chain for smart contracts, and P-Chain for validator coordination. This innovative design maximizes efficiency!",
		Image:   "https://media2.giphy.com/media/v1.Y2lkPTc5MGI3NjExMzJlZ2thNmVnbXd4am0yZzZlbDk1b21kZGl0ODY5eXpudGV3c3NvbCZlcD12MV9pbnRlcm5hbF9naWZfYnlfaWQmY3Q9Zw/DwsOh9IbCquaCnwJJw/giphy.gif",
		Fact:    "⛓️ Triple Chain Innovation",
	},
	{
		Title:   "L1 Revolution",
		Message: "Avalanche pioneered L1s - custom blockchain networks that can have their own rules, validators, and virtual machines while benefiting from Avalanche security!",
		Image:   "https://media1.giphy.com/media/v1.Y2lkPTc5MGI3NjExYWIzenpvMzd5eGk2eDVjcDNvMDRtZ3ozN2I0ZzVzaGN4ZXBrMXdteSZlcD12MV9pbnRlcm5hbF9naWZfYnlfaWQmY3Q9Zw/4qsokBIDFxwYAgAllg/giphy.gif",
		Fact:    "🌐 Infinite Scalability",
	},
	{
		Title:   "Energy Efficient Consensus",
		Message: "The Avalanche consensus protocol is incredibly energy-efficient compared to Proof-of-Work blockchains, using just a fraction of the energy while maintaining security!",
		Image:   "https://media4.giphy.com/media/v1.Y2lkPTc5MGI3NjExMjF2eXBnamY3d2dtd3g4aHlxdWc0OGU0MjJlcXh4MXBnMjd0dGJ5dyZlcD12MV9pbnRlcm5hbF9naWZfYnlfaWQmY3Q9Zw/23xN9cYQSKwFy/giphy.gif",
		Fact:    "🌱 Eco-Friendly Blockchain",
	},
}
