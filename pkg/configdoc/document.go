// Package configdoc edits the runtime's persisted configuration
// document. The document is held as text and mutated through named,
// regex-anchored section replacements so that every byte outside the
// patched region survives a rewrite. Each logical field targets a
// disjoint section, so patches for distinct fields commute.
package configdoc

import (
	_ "embed"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

//go:embed template/config.yaml
var defaultTemplate string

// DefaultTemplate returns the pristine config document used when no
// document exists yet.
func DefaultTemplate() string {
	return defaultTemplate
}

// Field identifies one logical, independently patchable region of the
// config document.
type Field string

const (
	FieldProvisioning     Field = "provisioning"
	FieldAgentImage       Field = "agent-image"
	FieldAgentAuth        Field = "agent-auth"
	FieldHostname         Field = "hostname"
	FieldConnectEndpoints Field = "connect-endpoints"
	FieldListenEndpoints  Field = "listen-endpoints"
	FieldHomedir          Field = "homedir"
	FieldEngineEndpoint   Field = "engine-endpoint"
	FieldEngineNetwork    Field = "engine-network"
)

// ErrPatchNotApplied reports that a field's pattern matched nothing;
// the document does not have the expected schema.
var ErrPatchNotApplied = errors.New("config patch target not found")

// ErrAmbiguousPatch reports that a field's pattern matched more than
// one region, which would make the edit unsafe.
var ErrAmbiguousPatch = errors.New("config patch target is ambiguous")

// fieldSpec anchors a field to its region. Patterns are tried in
// order; the first with any match is used. Every field carries one
// pattern for the commented-out placeholder and one for a previously
// set value, so fields are idempotently re-settable.
type fieldSpec struct {
	patterns []*regexp.Regexp
}

var fieldSpecs = map[Field]fieldSpec{
	FieldProvisioning: {patterns: []*regexp.Regexp{
		regexp.MustCompile(`(?m)^provisioning:\n(?:  .+\n?)+`),
		regexp.MustCompile(`(?m)^# provisioning:\n#   source: "manual"\n#   device_connection_string: ".*"`),
	}},
	FieldAgentImage: {patterns: []*regexp.Regexp{
		regexp.MustCompile(`(?m)^    image: ".*"$`),
	}},
	FieldAgentAuth: {patterns: []*regexp.Regexp{
		regexp.MustCompile(`(?m)^    auth:\n(?:      .+\n?)+`),
		regexp.MustCompile(`(?m)^    auth: \{\}$`),
	}},
	FieldHostname: {patterns: []*regexp.Regexp{
		regexp.MustCompile(`(?m)^hostname: ".*"$`),
	}},
	FieldConnectEndpoints: {patterns: []*regexp.Regexp{
		regexp.MustCompile(`(?m)^connect:\n  management_uri: ".*"\n  workload_uri: ".*"$`),
	}},
	FieldListenEndpoints: {patterns: []*regexp.Regexp{
		regexp.MustCompile(`(?m)^listen:\n  management_uri: ".*"\n  workload_uri: ".*"$`),
	}},
	FieldHomedir: {patterns: []*regexp.Regexp{
		regexp.MustCompile(`(?m)^homedir: ".*"$`),
		regexp.MustCompile(`(?m)^# homedir: ".*"$`),
	}},
	FieldEngineEndpoint: {patterns: []*regexp.Regexp{
		regexp.MustCompile(`(?m)^  uri: ".*"$`),
	}},
	FieldEngineNetwork: {patterns: []*regexp.Regexp{
		regexp.MustCompile(`(?m)^  network: ".*"$`),
		regexp.MustCompile(`(?m)^  # network: ".*"$`),
	}},
}

// Document is an in-memory config document. It tracks which logical
// fields have been set so a caller can tell a fresh template from a
// materialized configuration.
type Document struct {
	text string
	set  map[Field]bool
}

// New wraps existing document text.
func New(text string) *Document {
	return &Document{text: text, set: make(map[Field]bool)}
}

// NewFromTemplate starts from the pristine template.
func NewFromTemplate() *Document {
	return New(DefaultTemplate())
}

// Text returns the current document text.
func (d *Document) Text() string {
	return d.text
}

// IsSet reports whether the field was patched on this document.
func (d *Document) IsSet(field Field) bool {
	return d.set[field]
}

// Patch replaces the region anchored by field with the given lines.
// Exactly one contiguous region is replaced; everything else is left
// byte-identical. A pattern that matches nothing is a hard error, not
// a silent no-op: it means the document does not have the schema this
// build expects.
func (d *Document) Patch(field Field, lines ...string) error {
	spec, ok := fieldSpecs[field]
	if !ok {
		return fmt.Errorf("unknown config field %q", field)
	}

	replacement := strings.Join(lines, "\n")
	for _, pattern := range spec.patterns {
		matches := pattern.FindAllStringIndex(d.text, -1)
		if len(matches) == 0 {
			continue
		}
		if len(matches) > 1 {
			return fmt.Errorf("field %q: %w (%d matches)", field, ErrAmbiguousPatch, len(matches))
		}
		start, end := matches[0][0], matches[0][1]
		// Preserve a trailing newline captured by a block pattern.
		if end > start && d.text[end-1] == '\n' && !strings.HasSuffix(replacement, "\n") {
			replacement += "\n"
		}
		d.text = d.text[:start] + replacement + d.text[end:]
		d.set[field] = true
		return nil
	}
	return fmt.Errorf("field %q: %w", field, ErrPatchNotApplied)
}
