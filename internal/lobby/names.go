// internal/lobby/names.go
package lobby

import (
	"math/rand/v2"
)

// NameGenerator produces candidate world names. Names may repeat; the
// lobby retries until it finds a free one.
type NameGenerator interface {
	Generate() string
}

// NameFunc adapts a function to NameGenerator.
type NameFunc func() string

func (f NameFunc) Generate() string { return f() }

var adjectives = []string{
	"brave", "calm", "clever", "cosmic", "crimson", "curious", "daring", "dusty",
	"eager", "electric", "fancy", "fierce", "gentle", "glossy", "golden", "happy",
	"hidden", "icy", "jolly", "lazy", "lucky", "lunar", "mellow", "misty",
	"nimble", "noisy", "odd", "polar", "proud", "quiet", "rapid", "rusty",
	"shiny", "silent", "solar", "spicy", "stellar", "sunny", "swift", "tidy",
	"velvet", "witty", "zany", "zesty",
}

var nouns = []string{
	"apple", "badger", "beacon", "canyon", "comet", "coral", "crater", "dune",
	"ember", "falcon", "fjord", "galaxy", "geyser", "glacier", "harbor", "heron",
	"island", "lagoon", "lantern", "meadow", "meteor", "nebula", "oasis", "orbit",
	"otter", "panda", "pebble", "planet", "quasar", "raven", "reef", "rocket",
	"saturn", "sparrow", "summit", "tundra", "valley", "walrus", "willow", "zenith",
}

type wordNames struct {
	rand *rand.Rand
}

// WordNames generates adjective-noun names such as "brave-otter". A nil
// source uses the global generator.
func WordNames(r *rand.Rand) NameGenerator {
	return wordNames{rand: r}
}

func (g wordNames) Generate() string {
	return g.pick(adjectives) + "-" + g.pick(nouns)
}

func (g wordNames) pick(words []string) string {
	if g.rand != nil {
		return words[g.rand.IntN(len(words))]
	}
	return words[rand.IntN(len(words))]
}
