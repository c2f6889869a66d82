// Package vocab holds the namespace and term IRIs used when describing packages.
package vocab

// Namespaces.
const (
	RDF     = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFS    = "http://www.w3.org/2000/01/rdf-schema#"
	XSD     = "http://www.w3.org/2001/XMLSchema#"
	DCTerms = "http://purl.org/dc/terms/"
	ORE     = "http://www.openarchives.org/ore/terms/"
	DCS     = "http://dataconservancy.org/business-object-model#"
)

// RDF terms.
const (
	RDFType = RDF + "type"
)

// XSD datatypes.
const (
	XSDString   = XSD + "string"
	XSDInteger  = XSD + "integer"
	XSDDateTime = XSD + "dateTime"
)

// Dublin Core terms.
const (
	DCTermsTitle    = DCTerms + "title"
	DCTermsCreated  = DCTerms + "created"
	DCTermsModified = DCTerms + "modified"
	DCTermsExtent   = DCTerms + "extent"
	DCTermsFormat   = DCTerms + "format"
	DCTermsHasPart  = DCTerms + "hasPart"
)

// OAI-ORE terms.
const (
	OREResourceMap    = ORE + "ResourceMap"
	OREAggregation    = ORE + "Aggregation"
	OREAggregates     = ORE + "aggregates"
	OREDescribes      = ORE + "describes"
	OREIsDescribedBy  = ORE + "isDescribedBy"
	OREIsAggregatedBy = ORE + "isAggregatedBy"
)

// Data Conservancy business object terms used by the content source.
const (
	DCSCollection  = DCS + "Collection"
	DCSDataItem    = DCS + "DataItem"
	DCSFile        = DCS + "File"
	DCSHasMetadata = DCS + "hasMetadata"
	DCSHasFile     = DCS + "hasFile"
)

// Prefixes returns the prefix table used by prefix-aware serializers.
func Prefixes() map[string]string {
	return map[string]string{
		"rdf":     RDF,
		"rdfs":    RDFS,
		"xsd":     XSD,
		"dcterms": DCTerms,
		"ore":     ORE,
		"dcs":     DCS,
	}
}
