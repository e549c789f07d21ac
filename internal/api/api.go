// Package api describes the two public resources the cards display and the
// projections the details block reads from them.
package api

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	DefaultPokemonBase   = "https://pokeapi.co/api/v2/pokemon/"
	DefaultCharacterBase = "https://rickandmortyapi.com/api/character/"
)

// Pokemon is the subset of a PokeAPI pokemon document the app reads.
type Pokemon struct {
	Name    string `json:"name"`
	Height  int    `json:"height"`
	Weight  int    `json:"weight"`
	Sprites struct {
		FrontDefault string `json:"front_default"`
	} `json:"sprites"`
	Types []PokemonType `json:"types"`
}

// PokemonType is one slot of a pokemon's types list.
type PokemonType struct {
	Slot int `json:"slot"`
	Type struct {
		Name string `json:"name"`
	} `json:"type"`
}

// Character is the subset of a Rick and Morty character document.
type Character struct {
	Name    string `json:"name"`
	Image   string `json:"image"`
	Species string `json:"species"`
	Status  string `json:"status"`
	Origin  struct {
		Name string `json:"name"`
	} `json:"origin"`
}

// PokemonURL builds the resource-by-ID URL under base.
func PokemonURL(base string, id int) string {
	return resourceURL(base, id)
}

// CharacterURL builds the resource-by-ID URL under base.
func CharacterURL(base string, id int) string {
	return resourceURL(base, id)
}

func resourceURL(base string, id int) string {
	base = strings.TrimSpace(base)
	if base == "" || id < 1 {
		return ""
	}
	return strings.TrimRight(base, "/") + "/" + strconv.Itoa(id)
}

// Detail is one labelled line of the details block.
type Detail struct {
	Label string
	Value string
}

// PokemonDetails projects height (decimetres to metres), weight
// (hectograms to kilograms) and type names.
func PokemonDetails(p Pokemon) []Detail {
	names := make([]string, 0, len(p.Types))
	for _, t := range p.Types {
		names = append(names, t.Type.Name)
	}
	return []Detail{
		{Label: "Height", Value: fmt.Sprintf("%s m", tenths(p.Height))},
		{Label: "Weight", Value: fmt.Sprintf("%s kg", tenths(p.Weight))},
		{Label: "Type", Value: strings.Join(names, ", ")},
	}
}

// CharacterDetails projects species, status and origin.
func CharacterDetails(c Character) []Detail {
	return []Detail{
		{Label: "Species", Value: c.Species},
		{Label: "Status", Value: c.Status},
		{Label: "Origin", Value: c.Origin.Name},
	}
}

func tenths(v int) string {
	return strconv.FormatFloat(float64(v)/10, 'f', -1, 64)
}
