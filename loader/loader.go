package loader

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gofhir/fhir/r4"

	"github.com/Boereck/DEMIS-validation-service/support"
)

// Service loads FHIR conformance resources from JSON sources into a
// support.ProfileSet. It understands single resources and Bundles, and
// recognizes StructureDefinition, ValueSet, CodeSystem and Questionnaire
// entries; other resource types are skipped.
type Service struct {
	converter *R4Converter
}

// NewService creates a loader service.
func NewService() *Service {
	return &Service{converter: NewR4Converter()}
}

// LoadDir walks a directory tree and loads every .json file into a fresh
// profile set. A file that fails to parse aborts the load; operator
// supplied profile packages must be fully consistent.
func (s *Service) LoadDir(dir string) (*support.ProfileSet, error) {
	set := support.NewProfileSet()
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, "reading %s", path)
		}
		if _, err := s.LoadJSON(set, data); err != nil {
			return errors.Wrapf(err, "loading %s", path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

// LoadFS loads every .json file from a file system, typically an embedded
// one, into a fresh profile set.
func (s *Service) LoadFS(fsys fs.FS) (*support.ProfileSet, error) {
	set := support.NewProfileSet()
	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return errors.Wrapf(err, "reading %s", path)
		}
		if _, err := s.LoadJSON(set, data); err != nil {
			return errors.Wrapf(err, "loading %s", path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

// LoadJSON loads a single JSON document into set. Bundles are unpacked
// entry by entry. It returns the number of resources added.
func (s *Service) LoadJSON(set *support.ProfileSet, data []byte) (int, error) {
	resourceType, err := probeResourceType(data)
	if err != nil {
		return 0, err
	}
	if resourceType == "Bundle" {
		return s.loadBundle(set, data)
	}
	ok, err := s.loadResource(set, resourceType, data)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return 1, nil
}

func (s *Service) loadBundle(set *support.ProfileSet, data []byte) (int, error) {
	var bundle struct {
		Entry []struct {
			Resource json.RawMessage `json:"resource"`
		} `json:"entry"`
	}
	if err := json.Unmarshal(data, &bundle); err != nil {
		return 0, errors.Wrap(err, "parsing bundle")
	}

	count := 0
	for i, entry := range bundle.Entry {
		if len(entry.Resource) == 0 {
			continue
		}
		resourceType, err := probeResourceType(entry.Resource)
		if err != nil {
			return count, errors.Wrapf(err, "bundle entry %d", i)
		}
		ok, err := s.loadResource(set, resourceType, entry.Resource)
		if err != nil {
			return count, errors.Wrapf(err, "bundle entry %d", i)
		}
		if ok {
			count++
		}
	}
	return count, nil
}

// loadResource adds one resource to the set. It reports false for
// resource types the loader does not index.
func (s *Service) loadResource(set *support.ProfileSet, resourceType string, data []byte) (bool, error) {
	switch resourceType {
	case "StructureDefinition":
		var sd r4.StructureDefinition
		if err := json.Unmarshal(data, &sd); err != nil {
			return false, errors.Wrap(err, "parsing StructureDefinition")
		}
		set.AddStructureDefinition(s.converter.ConvertStructureDefinition(&sd))
		return true, nil
	case "ValueSet":
		var vs r4.ValueSet
		if err := json.Unmarshal(data, &vs); err != nil {
			return false, errors.Wrap(err, "parsing ValueSet")
		}
		set.AddValueSet(s.converter.ConvertValueSet(&vs))
		return true, nil
	case "CodeSystem":
		var cs r4.CodeSystem
		if err := json.Unmarshal(data, &cs); err != nil {
			return false, errors.Wrap(err, "parsing CodeSystem")
		}
		set.AddCodeSystem(s.converter.ConvertCodeSystem(&cs))
		return true, nil
	case "Questionnaire":
		q, err := s.converter.ConvertQuestionnaire(data)
		if err != nil {
			return false, errors.Wrap(err, "parsing Questionnaire")
		}
		set.AddQuestionnaire(q)
		return true, nil
	default:
		return false, nil
	}
}

func probeResourceType(data []byte) (string, error) {
	var probe struct {
		ResourceType string `json:"resourceType"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return "", errors.Wrap(err, "invalid JSON")
	}
	if probe.ResourceType == "" {
		return "", errors.New("resource has no resourceType")
	}
	return probe.ResourceType, nil
}
