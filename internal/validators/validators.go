package validators

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/modelcontextprotocol/crawler/pkg/model"
)

// Error messages for validation
var (
	ErrMissingName          = errors.New("entry name is required")
	ErrMissingSource        = errors.New("entry source is required")
	ErrInvalidRepositoryURL = errors.New("invalid repository URL")
	ErrSchemaViolation      = errors.New("entry does not match schema")
)

// RepositorySource represents valid repository sources
type RepositorySource string

const (
	SourceGitHub RepositorySource = "github"
	SourceGitLab RepositorySource = "gitlab"
)

// entrySchema is the structural contract a scraped record must meet before
// it is cataloged. Kept deliberately loose: directories disagree wildly on
// optional fields, so only identity and shape are enforced.
const entrySchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["name", "source"],
  "properties": {
    "name": {"type": "string", "minLength": 1, "maxLength": 200},
    "description": {"type": "string"},
    "source": {"type": "string", "minLength": 1},
    "version": {"type": "string"},
    "detailUrl": {"type": "string"},
    "categories": {"type": "array", "items": {"type": "string"}},
    "repository": {
      "type": "object",
      "properties": {
        "url": {"type": "string"},
        "source": {"type": "string"}
      }
    }
  }
}`

var compiledEntrySchema = jsonschema.MustCompileString("entry.schema.json", entrySchema)

// ValidateEntry checks a scraped record before it enters the catalog.
// Invalid records are skipped and logged by the caller, not fatal for the
// crawl.
func ValidateEntry(entry *model.ServerEntry) error {
	if strings.TrimSpace(entry.Name) == "" {
		return ErrMissingName
	}
	if strings.TrimSpace(entry.Source) == "" {
		return ErrMissingSource
	}
	if err := validateRepository(entry.Repository); err != nil {
		return err
	}
	return validateSchema(entry)
}

func validateRepository(repo model.Repository) error {
	if repo.URL == "" {
		return nil
	}
	u, err := url.Parse(repo.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidRepositoryURL, repo.URL)
	}
	switch RepositorySource(repo.Source) {
	case SourceGitHub:
		if !strings.HasSuffix(strings.TrimPrefix(u.Hostname(), "www."), "github.com") {
			return fmt.Errorf("%w: source %q does not match host %q", ErrInvalidRepositoryURL, repo.Source, u.Hostname())
		}
	case SourceGitLab:
		if !strings.HasSuffix(strings.TrimPrefix(u.Hostname(), "www."), "gitlab.com") {
			return fmt.Errorf("%w: source %q does not match host %q", ErrInvalidRepositoryURL, repo.Source, u.Hostname())
		}
	}
	return nil
}

func validateSchema(entry *model.ServerEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}
	var doc any
	if err := json.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}
	if err := compiledEntrySchema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}
	return nil
}
