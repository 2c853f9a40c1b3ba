package tts

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jamesrr39/goutil/errorsx"
)

// sentinel errors, returned bare so callers can compare with ==
var (
	ErrNoPartitionsFound errorsx.Error = errorsx.Errorf("no parquet files found for query")
	ErrInvalidFilter     errorsx.Error = errorsx.Errorf("invalid field filter")
)

const (
	PartitionKeyYear       = "year"
	PartitionKeyState      = "state"
	PartitionKeyTechnology = "technology"
)

// QueryParams selects the partitions a query should read. The zero value of each
// field means "not bound": the resolver then enumerates every discovered value
// for that key.
type QueryParams struct {
	Year       int
	State      string
	Technology string
	// Extra holds additional hive-style partition keys, e.g. {"utility": "PG&E"}.
	Extra map[string]string
}

// PartitionBinding is one partition key with the value the query bound it to.
// An empty Value means the key was left unbound.
type PartitionBinding struct {
	Key   string
	Value string
}

// PathSegment renders the binding the way it appears in a storage key.
// The year is a plain path segment; all other keys are hive-style key=value.
func (b PartitionBinding) PathSegment() string {
	if b.Key == PartitionKeyYear {
		return b.Value
	}

	return fmt.Sprintf("%s=%s", b.Key, b.Value)
}

func (b PartitionBinding) String() string {
	return fmt.Sprintf("%s=%s", b.Key, b.Value)
}

// Bindings returns all partition keys in canonical order: year, state,
// technology, then extra keys sorted by name. Unbound named keys are included
// with an empty value, so the resolver can see gaps in the prefix.
func (p QueryParams) Bindings() []PartitionBinding {
	var yearStr string
	if p.Year != 0 {
		yearStr = strconv.Itoa(p.Year)
	}

	bindings := []PartitionBinding{
		{PartitionKeyYear, yearStr},
		{PartitionKeyState, p.State},
		{PartitionKeyTechnology, p.Technology},
	}

	var extraKeys []string
	for key := range p.Extra {
		extraKeys = append(extraKeys, key)
	}
	sort.Strings(extraKeys)

	for _, key := range extraKeys {
		bindings = append(bindings, PartitionBinding{key, p.Extra[key]})
	}

	return bindings
}

func (p QueryParams) Validate() errorsx.Error {
	if p.Year < 0 {
		return errorsx.Errorf("year must not be negative (got %d)", p.Year)
	}

	for _, binding := range p.Bindings() {
		if strings.ContainsAny(binding.Value, "/=") {
			return errorsx.Errorf("partition value %q for key %q must not contain '/' or '='", binding.Value, binding.Key)
		}
	}

	for key, value := range p.Extra {
		switch key {
		case PartitionKeyYear, PartitionKeyState, PartitionKeyTechnology:
			return errorsx.Errorf("extra partition key %q clashes with a named parameter", key)
		}

		if key == "" {
			return errorsx.Errorf("empty extra partition key (value: %q)", value)
		}

		if strings.ContainsAny(key, "/=") {
			return errorsx.Errorf("extra partition key %q must not contain '/' or '='", key)
		}

		if value == "" {
			return errorsx.Errorf("extra partition key %q has an empty value", key)
		}
	}

	return nil
}

func (p QueryParams) String() string {
	var fragments []string
	for _, binding := range p.Bindings() {
		if binding.Value == "" {
			continue
		}
		fragments = append(fragments, binding.String())
	}

	if len(fragments) == 0 {
		return "(all partitions)"
	}

	return strings.Join(fragments, ", ")
}
