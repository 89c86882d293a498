package validationservice

// Version is the service version, overridable at build time with
// -ldflags "-X ...".
var Version = "dev"

// FHIRVersion is the FHIR release this service validates against.
const FHIRVersion = "4.0.1"
