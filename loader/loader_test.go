package loader

import (
	"testing"
	"testing/fstest"

	"github.com/Boereck/DEMIS-validation-service/support"
)

const observationProfile = `{
  "resourceType": "StructureDefinition",
  "url": "http://example.org/StructureDefinition/lab-observation",
  "name": "LabObservation",
  "kind": "resource",
  "abstract": false,
  "type": "Observation",
  "baseDefinition": "http://hl7.org/fhir/StructureDefinition/Observation",
  "differential": {
    "element": [
      {
        "path": "Observation.subject",
        "min": 1,
        "max": "1",
        "type": [{"code": "Reference"}]
      }
    ]
  }
}`

const statusValueSet = `{
  "resourceType": "ValueSet",
  "url": "http://example.org/ValueSet/partial-status",
  "compose": {
    "include": [
      {
        "system": "http://hl7.org/fhir/observation-status",
        "concept": [
          {"code": "final", "display": "Final"},
          {"code": "amended", "display": "Amended"}
        ]
      },
      {"system": "http://loinc.org"}
    ]
  }
}`

const nestedCodeSystem = `{
  "resourceType": "CodeSystem",
  "url": "http://example.org/CodeSystem/severity",
  "concept": [
    {"code": "high", "display": "High", "concept": [
      {"code": "critical", "display": "Critical"}
    ]},
    {"code": "low", "display": "Low"}
  ]
}`

func TestLoadJSON_StructureDefinition(t *testing.T) {
	set := support.NewProfileSet()
	n, err := NewService().LoadJSON(set, []byte(observationProfile))
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if n != 1 {
		t.Fatalf("loaded %d resources; want 1", n)
	}

	sd := set.StructureDefinitions["http://example.org/StructureDefinition/lab-observation"]
	if sd == nil {
		t.Fatal("profile not indexed by canonical URL")
	}
	if sd.Type != "Observation" || sd.BaseDefinition != "http://hl7.org/fhir/StructureDefinition/Observation" {
		t.Errorf("unexpected conversion: %+v", sd)
	}
	if sd.HasSnapshot() {
		t.Error("differential-only profile must not report a snapshot")
	}
	if len(sd.Differential) != 1 || sd.Differential[0].Min != 1 {
		t.Errorf("differential not converted: %+v", sd.Differential)
	}
}

func TestLoadJSON_ValueSet(t *testing.T) {
	set := support.NewProfileSet()
	if _, err := NewService().LoadJSON(set, []byte(statusValueSet)); err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}

	vs := set.ValueSets["http://example.org/ValueSet/partial-status"]
	if vs == nil {
		t.Fatal("value set not indexed")
	}
	if !vs.Contains("http://hl7.org/fhir/observation-status", "final") {
		t.Error("enumerated concept missing from index")
	}
	if vs.Contains("http://hl7.org/fhir/observation-status", "registered") {
		t.Error("code outside the enumerated concepts must not match")
	}
	if len(vs.Includes) != 1 || vs.Includes[0] != "http://loinc.org" {
		t.Errorf("whole-system include not recorded: %v", vs.Includes)
	}
}

func TestLoadJSON_CodeSystemFlattensNestedConcepts(t *testing.T) {
	set := support.NewProfileSet()
	if _, err := NewService().LoadJSON(set, []byte(nestedCodeSystem)); err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}

	cs := set.CodeSystems["http://example.org/CodeSystem/severity"]
	if cs == nil {
		t.Fatal("code system not indexed")
	}
	for _, code := range []string{"high", "critical", "low"} {
		if _, ok := cs.Concepts[code]; !ok {
			t.Errorf("concept %q missing after flattening", code)
		}
	}
}

func TestLoadJSON_Questionnaire(t *testing.T) {
	set := support.NewProfileSet()
	doc := `{"resourceType": "Questionnaire", "url": "http://example.org/Questionnaire/intake", "title": "Intake"}`
	if _, err := NewService().LoadJSON(set, []byte(doc)); err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	q := set.Questionnaires["http://example.org/Questionnaire/intake"]
	if q == nil {
		t.Fatal("questionnaire not indexed")
	}
	if q.Resource["title"] != "Intake" {
		t.Error("raw questionnaire content must be preserved")
	}
}

func TestLoadJSON_Bundle(t *testing.T) {
	bundle := `{
	  "resourceType": "Bundle",
	  "type": "collection",
	  "entry": [
	    {"resource": ` + observationProfile + `},
	    {"resource": ` + statusValueSet + `},
	    {"resource": {"resourceType": "Patient", "id": "ignored"}}
	  ]
	}`
	set := support.NewProfileSet()
	n, err := NewService().LoadJSON(set, []byte(bundle))
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if n != 2 {
		t.Errorf("loaded %d resources; want 2 (non-conformance entries skipped)", n)
	}
}

func TestLoadJSON_Invalid(t *testing.T) {
	set := support.NewProfileSet()
	if _, err := NewService().LoadJSON(set, []byte("not json")); err == nil {
		t.Error("expected error for malformed JSON")
	}
	if _, err := NewService().LoadJSON(set, []byte(`{"noResourceType": true}`)); err == nil {
		t.Error("expected error for document without resourceType")
	}
}

func TestLoadFS(t *testing.T) {
	fsys := fstest.MapFS{
		"profile.json":  {Data: []byte(observationProfile)},
		"valueset.json": {Data: []byte(statusValueSet)},
		"readme.md":     {Data: []byte("not loaded")},
	}
	set, err := NewService().LoadFS(fsys)
	if err != nil {
		t.Fatalf("LoadFS: %v", err)
	}
	if set.Count() != 2 {
		t.Errorf("Count() = %d; want 2", set.Count())
	}
}

func TestLoadFS_FailsOnBrokenFile(t *testing.T) {
	fsys := fstest.MapFS{
		"good.json":   {Data: []byte(observationProfile)},
		"broken.json": {Data: []byte("{")},
	}
	if _, err := NewService().LoadFS(fsys); err == nil {
		t.Error("a profile package with a broken file must fail to load")
	}
}
