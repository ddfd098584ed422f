package catalog

import (
	"embed"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

//go:embed data/*.csv
var dataFiles embed.FS

// Load builds the catalog from the embedded tabular sources. The result is
// immutable; callers share one instance for the process lifetime.
func Load() (*Catalog, error) {
	c := &Catalog{records: map[string]Record{}}

	loaders := []struct {
		file string
		load func(*Catalog, []row) error
	}{
		{"data/nasal_sprays.csv", loadNasalSprays},
		{"data/oral_inhalers.csv", loadOralInhalers},
		{"data/insulin_products.csv", loadInsulinProducts},
		{"data/biologic_injectables.csv", loadInjectables(CategoryBiologicInjectable)},
		{"data/nonbiologic_injectables.csv", loadInjectables(CategoryNonbiologicInjectable)},
		{"data/diabetic_injectables.csv", loadDiabeticInjectables},
		{"data/eyedrop_products.csv", loadBrandGenericProducts(CategoryEyedrop)},
		{"data/topical_products.csv", loadBrandGenericProducts(CategoryTopical)},
	}
	for _, loader := range loaders {
		rows, err := readRows(loader.file)
		if err != nil {
			return nil, fmt.Errorf("readRows(%s) > %w", loader.file, err)
		}
		if err := loader.load(c, rows); err != nil {
			return nil, fmt.Errorf("load(%s) > %w", loader.file, err)
		}
	}

	guidelines, err := loadGuidelines()
	if err != nil {
		return nil, fmt.Errorf("loadGuidelines > %w", err)
	}
	c.guidelines = guidelines

	return c, nil
}

// row is one CSV record keyed by header name.
type row map[string]string

func readRows(name string) ([]row, error) {
	f, err := dataFiles.Open(name)
	if err != nil {
		return nil, fmt.Errorf("dataFiles.Open > %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reader.Read header > %w", err)
	}

	var rows []row
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reader.Read > %w", err)
		}
		r := row{}
		for i, column := range header {
			if i < len(fields) {
				r[column] = strings.TrimSpace(fields[i])
			}
		}
		rows = append(rows, r)
	}
	return rows, nil
}

func (r row) record(name string, category Category) Record {
	attrs := make(map[string]string, len(r))
	for key, value := range r {
		attrs[key] = value
	}
	return Record{Name: name, Category: category, Attributes: attrs}
}

// nasalAliases maps active-ingredient substrings to the brand aliases that
// prescribers commonly write instead of the catalog's canonical name.
var nasalAliases = map[string][]string{
	"fluticasone propionate":  {"flonase"},
	"mometasone furoate":      {"nasonex"},
	"triamcinolone acetonide": {"nasacort"},
	"azelastine":              {"astelin", "astepro"},
}

func loadNasalSprays(c *Catalog, rows []row) error {
	for _, r := range rows {
		name := r["Drug_Name"]
		if name == "" {
			continue
		}
		record := r.record(name, CategoryNasalSpray)
		c.add(name, record)

		lower := Normalize(name)
		for ingredient, aliases := range nasalAliases {
			if !strings.Contains(lower, ingredient) {
				continue
			}
			for _, alias := range aliases {
				c.add(alias, record)
			}
		}
	}
	return nil
}

func loadOralInhalers(c *Catalog, rows []row) error {
	for _, r := range rows {
		name := r["Brand_Name"]
		if name == "" {
			continue
		}
		record := r.record(name, CategoryOralInhaler)
		c.add(name, record)

		lower := Normalize(name)
		switch {
		case strings.Contains(lower, "albuterol hfa"):
			c.add("albuterol", record)
			c.add("proair", record)
			c.add("proventil", record)
		case strings.Contains(lower, "symbicort"):
			c.add("symbicort", record)
		case strings.Contains(lower, "ventolin"):
			c.add("albuterol", record)
		}
		if generic := r[AttrGenericName]; generic != "" {
			c.add(generic, record)
		}
	}
	return nil
}

func loadInsulinProducts(c *Catalog, rows []row) error {
	for _, r := range rows {
		name := r["Proprietary_Name"]
		if name == "" {
			continue
		}
		record := r.record(name, CategoryInsulin)
		c.add(name, record)
		if proper := r[AttrProperName]; proper != "" && Normalize(proper) != Normalize(name) {
			c.add(proper, record)
		}
	}
	return nil
}

func loadInjectables(category Category) func(*Catalog, []row) error {
	return func(c *Catalog, rows []row) error {
		for _, r := range rows {
			name := r["Proprietary_Name"]
			if name == "" {
				continue
			}
			record := r.record(name, category)
			c.add(name, record)
			if proper := r[AttrProperName]; proper != "" && Normalize(proper) != Normalize(name) {
				c.add(proper, record)
			}
		}
		return nil
	}
}

func loadDiabeticInjectables(c *Catalog, rows []row) error {
	for _, r := range rows {
		name := r["Proprietary_Name"]
		if name == "" {
			continue
		}
		record := r.record(name, CategoryDiabeticInjectable)
		c.add(name, record)
		if analog := r[AttrAnalogName]; analog != "" && Normalize(analog) != Normalize(name) {
			c.add(analog, record)
		}
	}
	return nil
}

func loadBrandGenericProducts(category Category) func(*Catalog, []row) error {
	return func(c *Catalog, rows []row) error {
		for _, r := range rows {
			name := r["Brand_Name"]
			if name == "" {
				continue
			}
			record := r.record(name, category)
			c.add(name, record)
			if generic := r[AttrGenericName]; generic != "" && Normalize(generic) != Normalize(name) {
				c.add(generic, record)
			}
		}
		return nil
	}
}

func loadGuidelines() (Guidelines, error) {
	guidelines := Guidelines{
		// PAAS National defaults when the guideline table is unusable.
		DropsPerMLSolution:   20,
		DropsPerMLSuspension: 20,
	}

	pbmRows, err := readRows("data/pbm_eyedrop_guidelines.csv")
	if err != nil {
		return Guidelines{}, fmt.Errorf("readRows(pbm_eyedrop_guidelines) > %w", err)
	}
	for _, r := range pbmRows {
		if r["PBM"] != "PAAS National Default" && len(pbmRows) > 1 {
			continue
		}
		if v, err := strconv.ParseFloat(r["Min_Drops_per_mL_Solution"], 64); err == nil && v > 0 {
			guidelines.DropsPerMLSolution = v
		}
		if v, err := strconv.ParseFloat(r["Min_Drops_per_mL_Suspension"], 64); err == nil && v > 0 {
			guidelines.DropsPerMLSuspension = v
		}
		break
	}

	beyondUseRows, err := readRows("data/eyedrop_beyond_use_dates.csv")
	if err != nil {
		return Guidelines{}, fmt.Errorf("readRows(eyedrop_beyond_use_dates) > %w", err)
	}
	for _, r := range beyondUseRows {
		days, err := strconv.Atoi(r["Beyond_Use_Date_Days"])
		if err != nil || r["Product_Name"] == "" {
			continue
		}
		guidelines.EyedropBeyondUse = append(guidelines.EyedropBeyondUse, BeyondUseEntry{
			ProductName: r["Product_Name"],
			Days:        days,
		})
	}

	ftuRows, err := readRows("data/ftu_dosing_guide.csv")
	if err != nil {
		return Guidelines{}, fmt.Errorf("readRows(ftu_dosing_guide) > %w", err)
	}
	for _, r := range ftuRows {
		if r["Treatment_Area"] == "" {
			continue
		}
		entry := FTUEntry{TreatmentArea: r["Treatment_Area"]}
		entry.GramsPerDayQD, _ = strconv.ParseFloat(r["Grams_per_Day_QD"], 64)
		entry.GramsPerDayBID, _ = strconv.ParseFloat(r["Grams_per_Day_BID"], 64)
		entry.GramsPerDayTID, _ = strconv.ParseFloat(r["Grams_per_Day_TID"], 64)
		guidelines.FTUDosing = append(guidelines.FTUDosing, entry)
	}

	return guidelines, nil
}
