package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"

	"github.com/listenupapp/taxonomy-server/internal/service"
	"github.com/listenupapp/taxonomy-server/internal/store"
)

// seedFile is the YAML layout read by the import command:
//
//	taxonomies:
//	  - code: countries
//	    public: true
//	    include: dsc
//	    extra_data: {title: Countries}
//	    terms:
//	      - slug: europe
//	        extra_data: {title: Europe}
//	        children:
//	          - slug: cz
//	            obsoleted_by: europe/czechia
type seedFile struct {
	Taxonomies []seedTaxonomy `yaml:"taxonomies"`
}

type seedTaxonomy struct {
	Code      string     `yaml:"code"`
	URL       string     `yaml:"url"`
	Public    bool       `yaml:"public"`
	Include   string     `yaml:"include"`
	Exclude   string     `yaml:"exclude"`
	Levels    *int       `yaml:"levels"`
	ExtraData yaml.Node  `yaml:"extra_data"`
	Terms     []seedTerm `yaml:"terms"`
}

type seedTerm struct {
	Slug        string     `yaml:"slug"`
	ExtraData   yaml.Node  `yaml:"extra_data"`
	ObsoletedBy string     `yaml:"obsoleted_by"`
	Busy        int        `yaml:"busy"`
	Children    []seedTerm `yaml:"children"`
}

type importStats struct {
	Taxonomies int
	Terms      int
}

func loadSeed(r io.Reader) (*seedFile, error) {
	var seed seedFile
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&seed); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("seed file is empty")
		}
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &seed, nil
}

// pendingTerm holds term state applied once the whole taxonomy exists.
type pendingTerm struct {
	slug        string
	obsoletedBy string
	busy        int
}

// applySeed creates every taxonomy and term of seed through the trusted
// service path. With replace, existing taxonomies of the same code are
// deleted first; otherwise an existing code is a conflict.
func applySeed(ctx context.Context, svc *service.TaxonomyService, seed *seedFile, replace bool) (importStats, error) {
	var stats importStats

	for _, st := range seed.Taxonomies {
		if replace {
			if err := svc.DeleteTaxonomy(ctx, nil, st.Code); err != nil && !errors.Is(err, store.ErrNotFound) {
				return stats, fmt.Errorf("replace taxonomy %q: %w", st.Code, err)
			}
		}

		extra, err := yamlToJSON(&st.ExtraData)
		if err != nil {
			return stats, fmt.Errorf("taxonomy %q extra_data: %w", st.Code, err)
		}
		_, err = svc.CreateTaxonomy(ctx, nil, service.CreateTaxonomyRequest{
			Code:      st.Code,
			URL:       st.URL,
			Public:    st.Public,
			ExtraData: extra,
			Include:   st.Include,
			Exclude:   st.Exclude,
			Levels:    st.Levels,
		})
		if err != nil {
			return stats, fmt.Errorf("create taxonomy %q: %w", st.Code, err)
		}
		stats.Taxonomies++

		var pending []pendingTerm
		n, err := createSeedTerms(ctx, svc, st.Code, "", st.Terms, &pending)
		stats.Terms += n
		if err != nil {
			return stats, err
		}

		for _, p := range pending {
			if p.obsoletedBy != "" {
				if err := svc.ObsoleteTerm(ctx, nil, st.Code, p.slug, p.obsoletedBy); err != nil {
					return stats, fmt.Errorf("obsolete %s/%s: %w", st.Code, p.slug, err)
				}
			}
			if p.busy > 0 {
				if err := svc.SetTermBusyCount(ctx, nil, st.Code, p.slug, p.busy); err != nil {
					return stats, fmt.Errorf("busy count %s/%s: %w", st.Code, p.slug, err)
				}
			}
		}
	}

	return stats, nil
}

func createSeedTerms(ctx context.Context, svc *service.TaxonomyService, code, parent string, terms []seedTerm, pending *[]pendingTerm) (int, error) {
	created := 0
	for _, t := range terms {
		extra, err := yamlToJSON(&t.ExtraData)
		if err != nil {
			return created, fmt.Errorf("term %q extra_data: %w", t.Slug, err)
		}

		term, err := svc.CreateTerm(ctx, nil, code, service.CreateTermRequest{
			Parent:    parent,
			Slug:      t.Slug,
			ExtraData: extra,
		})
		if err != nil {
			return created, fmt.Errorf("create term %q under %q in %q: %w", t.Slug, parent, code, err)
		}
		created++

		if t.ObsoletedBy != "" || t.Busy > 0 {
			*pending = append(*pending, pendingTerm{slug: term.Slug, obsoletedBy: t.ObsoletedBy, busy: t.Busy})
		}

		n, err := createSeedTerms(ctx, svc, code, term.Slug, t.Children, pending)
		created += n
		if err != nil {
			return created, err
		}
	}
	return created, nil
}

// yamlToJSON converts a YAML node to JSON, keeping mapping keys in document order.
// An absent node gives nil.
func yamlToJSON(node *yaml.Node) (json.RawMessage, error) {
	if node.Kind == 0 {
		return nil, nil
	}
	v, err := yamlValue(node)
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

func yamlValue(node *yaml.Node) (any, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return yamlValue(node.Content[0])
	case yaml.AliasNode:
		return yamlValue(node.Alias)
	case yaml.MappingNode:
		m := orderedmap.New[string, any]()
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i]
			if key.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping keys must be scalars", key.Line)
			}
			v, err := yamlValue(node.Content[i+1])
			if err != nil {
				return nil, err
			}
			m.Set(key.Value, v)
		}
		return m, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(node.Content))
		for _, item := range node.Content {
			v, err := yamlValue(item)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	default:
		var v any
		if err := node.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", node.Line, err)
		}
		return v, nil
	}
}
