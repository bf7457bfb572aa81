package validate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"github.com/ivallesp/tenantcron/internal/account"
	"github.com/ivallesp/tenantcron/internal/schema"
)

type Error struct {
	Path    string
	Account string
	Msg     string
}

func (e Error) Error() string {
	if e.Account == "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Msg)
	}
	return fmt.Sprintf("%s (%s): %s", e.Path, e.Account, e.Msg)
}

type Errors []Error

func (e Errors) Error() string {
	switch len(e) {
	case 0:
		return "validation failed"
	case 1:
		return e[0].Error()
	default:
		return fmt.Sprintf("%s (and %d more)", e[0].Error(), len(e)-1)
	}
}

// Manifest validates a raw accounts.yaml. Identifiers are opaque tokens, so
// the only hard per-account rule is the one the crontab line format cannot
// survive: embedded newlines or other control characters. Whitespace is
// tolerated (the command builder quotes it) but flagged, since an identifier
// with spaces cannot come from the ACCOUNTS env variable.
func Manifest(ctx context.Context, path string, raw []byte) error {
	var errs Errors

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return Errors{{Path: path, Msg: "empty manifest"}}
	}

	schemaV0, err := schema.V0()
	if err != nil {
		return fmt.Errorf("load schema: %w", err)
	}
	if err := validateSchema(schemaV0, raw); err != nil {
		errs = append(errs, Error{Path: path, Msg: "JSON schema validation failed: " + err.Error()})
	}

	var m account.Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		errs = append(errs, Error{Path: path, Msg: "parse yaml: " + err.Error()})
		return errs
	}

	if strings.TrimSpace(m.Schema) != "" && m.Schema != schema.V0URL {
		errs = append(errs, Error{Path: path, Msg: fmt.Sprintf("$schema must be %q", schema.V0URL)})
	}

	for _, a := range m.Accounts {
		errs = append(errs, checkAccount(path, a)...)
	}

	if s := strings.TrimSpace(m.Schedule); s != "" && len(strings.Fields(s)) != 5 && !strings.HasPrefix(s, "@") {
		errs = append(errs, Error{Path: path, Msg: fmt.Sprintf("schedule must have 5 fields or be a @descriptor: %q", s)})
	}

	if len(errs) == 0 {
		return nil
	}
	sort.Slice(errs, func(i, j int) bool {
		if errs[i].Account != errs[j].Account {
			return errs[i].Account < errs[j].Account
		}
		return errs[i].Msg < errs[j].Msg
	})
	return errs
}

func checkAccount(path, a string) []Error {
	var errs []Error
	if strings.TrimSpace(a) == "" {
		return []Error{{Path: path, Account: a, Msg: "empty account identifier"}}
	}
	for _, r := range a {
		if r == '\n' || r == '\r' || unicode.IsControl(r) {
			errs = append(errs, Error{Path: path, Account: a, Msg: "identifier contains control characters"})
			break
		}
	}
	if strings.ContainsAny(a, " \t") {
		errs = append(errs, Error{Path: path, Account: a, Msg: "identifier contains whitespace; it cannot be set via the ACCOUNTS env variable"})
	}
	return errs
}

func validateSchema(s *jsonschema.Schema, yamlBytes []byte) error {
	var yamlDoc any
	if err := yaml.Unmarshal(yamlBytes, &yamlDoc); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	jsonBytes, err := json.Marshal(yamlDoc)
	if err != nil {
		return fmt.Errorf("convert yaml to json: %w", err)
	}
	var jsonDoc any
	if err := json.Unmarshal(jsonBytes, &jsonDoc); err != nil {
		return fmt.Errorf("parse json: %w", err)
	}
	if err := s.Validate(jsonDoc); err != nil {
		return schemaError{msg: formatSchemaErr(err)}
	}
	return nil
}

type schemaError struct{ msg string }

func (e schemaError) Error() string { return e.msg }

func formatSchemaErr(err error) string {
	var ve *jsonschema.ValidationError
	if errors.As(err, &ve) {
		b, mErr := json.Marshal(ve.BasicOutput())
		if mErr != nil {
			return "schema: " + err.Error()
		}
		return "schema: " + string(b)
	}
	return "schema: " + err.Error()
}
