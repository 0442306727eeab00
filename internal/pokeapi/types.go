package pokeapi

// PokemonDoc is the primary document for one creature.
type PokemonDoc struct {
	ID             int           `json:"id"`
	Name           string        `json:"name"`
	Height         float64       `json:"height"`
	Weight         float64       `json:"weight"`
	BaseExperience int           `json:"base_experience"`
	Sprites        Sprites       `json:"sprites"`
	Types          []TypeSlot    `json:"types"`
	Abilities      []AbilitySlot `json:"abilities"`
	Stats          []StatSlot    `json:"stats"`
}

// Sprites holds the artwork URLs. The API returns null for missing forms.
type Sprites struct {
	FrontDefault *string `json:"front_default"`
	FrontShiny   *string `json:"front_shiny"`
}

// NamedResource is the ubiquitous {name, url} reference object.
type NamedResource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// TypeSlot is one entry of the primary document's ordered type list.
type TypeSlot struct {
	Slot int           `json:"slot"`
	Type NamedResource `json:"type"`
}

// AbilitySlot is one entry of the primary document's ordered ability list.
type AbilitySlot struct {
	Slot    int           `json:"slot"`
	Ability NamedResource `json:"ability"`
}

// StatSlot carries one base stat value keyed by stat name.
type StatSlot struct {
	BaseStat int           `json:"base_stat"`
	Stat     NamedResource `json:"stat"`
}

// SpeciesDoc is the supplementary species document. All fields are optional
// from the pipeline's point of view; their absence degrades to defaults.
type SpeciesDoc struct {
	FlavorTextEntries []FlavorTextEntry `json:"flavor_text_entries"`
	IsLegendary       bool              `json:"is_legendary"`
	IsMythical        bool              `json:"is_mythical"`
	Color             *NamedResource    `json:"color"`
	EvolutionChain    *ChainLink        `json:"evolution_chain"`
}

// FlavorTextEntry is one localized flavor text.
type FlavorTextEntry struct {
	FlavorText string        `json:"flavor_text"`
	Language   NamedResource `json:"language"`
}

// ChainLink holds the URL of the species' evolution-chain document.
type ChainLink struct {
	URL string `json:"url"`
}

// EvolutionChainDoc is the recursively nested evolution tree.
type EvolutionChainDoc struct {
	Chain ChainNode `json:"chain"`
}

// ChainNode is one node of the evolution tree: a species plus the
// transitions leading out of it, in document order.
type ChainNode struct {
	Species   NamedResource `json:"species"`
	EvolvesTo []ChainNode   `json:"evolves_to"`
	// EvolutionDetails describes the transition INTO this node from its
	// parent; documents may list several alternative triggers.
	EvolutionDetails []EvolutionDetail `json:"evolution_details"`
}

// EvolutionDetail is one way a transition can happen. Every field is
// nullable in the source data.
type EvolutionDetail struct {
	Trigger  *NamedResource `json:"trigger"`
	Item     *NamedResource `json:"item"`
	MinLevel *int           `json:"min_level"`
}
