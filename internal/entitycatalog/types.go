package entitycatalog

// Config is the raw document shape loaded from YAML: entity-kind name to
// its alias list (free-text synonyms and/or canonical payload field
// names — both are reverse-indexed from the same list), pattern list,
// and neighbor-kind list. A kind may be present in one section and
// absent from the others — missing sections degrade a feature, they
// never abort the load.
type Config struct {
	Aliases       map[string][]string `yaml:"aliases"`
	Patterns      map[string][]string `yaml:"patterns"`
	Relationships map[string][]string `yaml:"relationships"`
}

