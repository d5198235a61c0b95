package classify

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Config holds the classifier's keyword tables and source registry.
// Treat as immutable after construction.
type Config struct {
	BarKeywords        []string              `yaml:"bar_keywords"`
	RestaurantKeywords []string              `yaml:"restaurant_keywords"`
	ExcludeKeywords    []string              `yaml:"exclude_keywords"`
	IncludeKeywords    []string              `yaml:"include_keywords"`
	Sources            map[string]SourceSpec `yaml:"-"`
}

// DefaultConfig returns the built-in keyword tables and the registry of
// known source systems.
func DefaultConfig() Config {
	return Config{
		BarKeywords: []string{
			"bar", "pub", "taproom", "saloon", "tavern", "lounge", "brewery", "brewpub",
		},
		RestaurantKeywords: []string{
			"restaurant", "cafe", "bistro", "eatery", "grill", "diner",
		},
		ExcludeKeywords: []string{
			// Construction and trades.
			"construction", "contractor", "electric", "electrical", "plumbing", "plumber",
			"hvac", "roofing", "crane", "geotechnical", "excavating", "paving",
			"concrete", "drywall", "flooring", "painting", "carpentry", "welding",
			"demolition", "engineering", "architect", "surveying",
			// Retail that sells food or drink but is not a venue.
			"liquor", "liquors", "wine & spirits", "total wine",
			"convenience", "food mart", "mart ", "7-eleven", "7 eleven",
			"shell ", "exxon", "chevron", "texaco", "valero", "murphy",
			"dollar general", "dollar tree", "family dollar",
			"gas station", "fuel", "gasoline",
			"grocery", "supermarket",
			// Everything else.
			"church", "school", "hospital", "clinic", "medical",
			"office", "warehouse", "storage",
			"salon", "barber", "spa ", "nail",
			"auto ", "car wash", "tire", "mechanic",
		},
		IncludeKeywords: []string{
			"restaurant", "grill", "kitchen", "cafe", "bistro", "diner",
			"bar", "pub", "tavern", "brewery", "brewpub", "taproom", "saloon",
			"pizza", "burger", "taco", "sushi", "bbq", "barbecue",
			"steakhouse", "seafood", "wings", "chicken", "mexican", "italian",
			"chinese", "thai", "indian", "japanese", "korean", "vietnamese",
			"bakery", "donut", "coffee", "tea house", "ice cream", "frozen yogurt",
		},
		Sources: DefaultSources(),
	}
}

// DefaultSources registers the known upstream source systems.
func DefaultSources() map[string]SourceSpec {
	sources := map[string]SourceSpec{
		"TABC": {
			Category:         CategoryLiquorLicense,
			LicenseTypeField: "license_type",
		},
		"SALES_TAX": {
			Category:   CategorySalesTax,
			NAICSField: "naics",
		},
		"DALLAS_CO": {
			Category:  CategoryOccupancy,
			UseFields: []string{"occupancy", "USE_DESC"},
		},
		"FORTWORTH_CO": {
			Category:  CategoryOccupancy,
			UseFields: []string{"occupancy", "USE_DESC"},
		},
	}
	for _, sys := range []string{
		"LEWISVILLE_PERMIT", "MESQUITE_PERMIT", "CARROLLTON_PERMIT",
		"PLANO_PERMIT", "FRISCO_PERMIT", "DALLAS_PERMIT",
		"ARLINGTON_PERMIT", "DENTON_PERMIT", "MCKINNEY_PERMIT",
		"SOUTHLAKE_PERMIT", "FORTWORTH_PERMIT",
	} {
		sources[sys] = SourceSpec{Category: CategoryBuildingPermit}
	}
	return sources
}

// LoadKeywords overlays keyword lists from a yaml file onto cfg. Lists
// absent from the file keep their defaults. The source registry is not
// overridable from file.
func LoadKeywords(cfg Config, path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, eris.Wrapf(err, "classify: read keywords file %s", path)
	}

	var overlay Config
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return cfg, eris.Wrapf(err, "classify: parse keywords file %s", path)
	}

	if len(overlay.BarKeywords) > 0 {
		cfg.BarKeywords = overlay.BarKeywords
	}
	if len(overlay.RestaurantKeywords) > 0 {
		cfg.RestaurantKeywords = overlay.RestaurantKeywords
	}
	if len(overlay.ExcludeKeywords) > 0 {
		cfg.ExcludeKeywords = overlay.ExcludeKeywords
	}
	if len(overlay.IncludeKeywords) > 0 {
		cfg.IncludeKeywords = overlay.IncludeKeywords
	}
	return cfg, nil
}
