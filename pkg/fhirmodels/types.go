package fhirmodels

// Common FHIR canonical URLs and element names used across the application.

// Extension canonical URLs read from StructureDefinition documents.
const (
	PrimaryCodePathURL  = "http://hl7.org/fhir/StructureDefinition/cqf-modelInfo-primaryCodePath"
	KeyElementURL       = "http://hl7.org/fhir/us/qicore/StructureDefinition/qicore-keyelement"
	USCDIRequirementURL = "http://hl7.org/fhir/us/core/StructureDefinition/uscdi-requirement"
)

// KeyElementShortPrefix marks short descriptions of promoted key elements.
const KeyElementShortPrefix = "(QI-Core)"

// ResourceTypeStructureDefinition is the resourceType of profile documents.
const ResourceTypeStructureDefinition = "StructureDefinition"

// Element names that carry named slices.
const (
	ElementExtension = "extension"
	ElementEntry     = "entry"
)

// Cardinality max values.
const (
	MaxOne       = "1"
	MaxUnbounded = "*"
)
