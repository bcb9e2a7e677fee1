package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve index mapping for term documents.
//
// Taxonomy and slug are keywords used as filters. Extra data text gets English
// stemming; the local slug uses the simple analyzer so codes like "cz" survive.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = en.AnalyzerName
	textFieldMapping.Store = false
	docMapping.AddFieldMappingsAt("text", textFieldMapping)

	localFieldMapping := bleve.NewTextFieldMapping()
	localFieldMapping.Analyzer = simple.Name
	localFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("local", localFieldMapping)

	taxonomyFieldMapping := bleve.NewTextFieldMapping()
	taxonomyFieldMapping.Analyzer = keyword.Name
	taxonomyFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("taxonomy", taxonomyFieldMapping)

	slugFieldMapping := bleve.NewTextFieldMapping()
	slugFieldMapping.Analyzer = keyword.Name
	slugFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("slug", slugFieldMapping)

	idFieldMapping := bleve.NewTextFieldMapping()
	idFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("id", idFieldMapping)

	levelFieldMapping := bleve.NewNumericFieldMapping()
	levelFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("level", levelFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
