// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package formula

import (
	"encoding/json"
	"fmt"

	"sigs.k8s.io/yaml"
)

// Module is a registry of named Formula values resolved from a textual
// declaration. It is the "optional frontend" this engine's public API
// (§6) is designed to be a concrete client of: nothing in the engine
// itself depends on Module, and any caller is free to build Formula
// values by hand instead.
type Module struct {
	formulas map[string]Formula
}

// builtinScalars maps the leaf formula names a module document may
// reference to their Formula values.
var builtinScalars = map[string]Formula{
	"u8": U8{}, "i8": I8{},
	"u16": U16{}, "i16": I16{},
	"u32": U32{}, "i32": I32{},
	"u64": U64{}, "i64": I64{},
	"f32": F32{}, "f64": F64{},
	"bool":      Bool{},
	"str":       Str{},
	"blob":      Blob{},
	"timestamp": Timestamp{},
	"never":     Never{},
}

// ParseModule decodes a YAML module document into a Module. Named
// formulas may reference one another, including forward references:
// every name is registered before any reference is resolved, so
// declaration order within the document does not matter. A formula that
// refers back to itself, directly or through other named formulas, is
// rejected.
func ParseModule(doc []byte) (*Module, error) {
	var parsed moduleDoc
	if err := yaml.Unmarshal(doc, &parsed); err != nil {
		return nil, fmt.Errorf("formula: parsing module: %w", err)
	}
	names := make([]string, 0, len(parsed.Formulas))
	for name := range parsed.Formulas {
		names = append(names, name)
	}
	r := &resolver{docs: parsed.Formulas, resolved: map[string]Formula{}, resolving: map[string]bool{}}
	for _, name := range names {
		if _, err := r.resolve(name); err != nil {
			return nil, err
		}
	}
	return &Module{formulas: r.resolved}, nil
}

// Lookup returns the named Formula, or nil and false if name is not a
// builtin scalar and not declared in the module.
func (m *Module) Lookup(name string) (Formula, bool) {
	if f, ok := builtinScalars[name]; ok {
		return f, true
	}
	f, ok := m.formulas[name]
	return f, ok
}

// resolver performs the second pass: named formulas may reference each
// other before every name is known, so resolution happens lazily and
// memoizes as it goes, detecting cycles along the way (a formula that
// refers to itself, whichever combinators the cycle passes through, is
// rejected).
type resolver struct {
	docs      map[string]formulaDoc
	resolved  map[string]Formula
	resolving map[string]bool
}

func (r *resolver) resolve(name string) (Formula, error) {
	if f, ok := r.resolved[name]; ok {
		return f, nil
	}
	if f, ok := builtinScalars[name]; ok {
		return f, nil
	}
	doc, ok := r.docs[name]
	if !ok {
		return nil, fmt.Errorf("formula: module: undefined formula %q", name)
	}
	if r.resolving[name] {
		return nil, fmt.Errorf("formula: module: %q is defined in terms of itself with no indirection", name)
	}
	r.resolving[name] = true
	f, err := r.build(doc)
	delete(r.resolving, name)
	if err != nil {
		return nil, fmt.Errorf("formula: module: resolving %q: %w", name, err)
	}
	r.resolved[name] = f
	return f, nil
}

func (r *resolver) build(doc formulaDoc) (Formula, error) {
	switch {
	case doc.scalar != "":
		return r.resolve(doc.scalar)
	case doc.fixed != nil:
		return FixedBytes{N: *doc.fixed}, nil
	case doc.option != nil:
		elem, err := r.resolve(*doc.option)
		if err != nil {
			return nil, err
		}
		return Option{Elem: elem}, nil
	case doc.list != nil:
		elem, err := r.resolve(doc.list.Element)
		if err != nil {
			return nil, err
		}
		max := Unbounded
		if doc.list.Max != nil {
			max = *doc.list.Max
		}
		return List{Elem: elem, Min: doc.list.Min, Max: max}, nil
	case doc.record != nil:
		fields := make([]Formula, len(doc.record))
		for i, field := range doc.record {
			f, err := r.resolve(field.Formula)
			if err != nil {
				return nil, err
			}
			fields[i] = f
		}
		return Record{Fields: fields}, nil
	case doc.enum != nil:
		variants := make([]Formula, len(doc.enum))
		for i, variant := range doc.enum {
			f, err := r.resolve(variant.Formula)
			if err != nil {
				return nil, err
			}
			variants[i] = f
		}
		return Enum{Variants: variants}, nil
	default:
		return nil, fmt.Errorf("formula: module: empty formula declaration")
	}
}

// moduleDoc is the top-level shape of a module document.
type moduleDoc struct {
	Formulas map[string]formulaDoc `json:"formulas"`
}

// listDoc is the body of a "list" formula declaration. Max is a
// pointer so that an omitted or explicitly null max (both decode to nil,
// meaning unbounded) is distinguishable from an explicit 0.
type listDoc struct {
	Element string `json:"element"`
	Min     int    `json:"min"`
	Max     *int   `json:"max"`
}

// fieldDoc names one field of a "record" or one variant of an "enum".
type fieldDoc struct {
	Name    string `json:"name"`
	Formula string `json:"formula"`
}

// formulaDoc is one formula declaration. It decodes from either a bare
// string (a reference to a builtin scalar or another named formula) or
// an object naming exactly one combinator.
type formulaDoc struct {
	scalar string
	fixed  *int
	option *string
	list   *listDoc
	record []fieldDoc
	enum   []fieldDoc
}

func (f *formulaDoc) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		f.scalar = name
		return nil
	}
	var obj struct {
		Fixed  *int       `json:"fixed"`
		Option *string    `json:"option"`
		List   *listDoc   `json:"list"`
		Record []fieldDoc `json:"record"`
		Enum   []fieldDoc `json:"enum"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	f.fixed, f.option, f.list, f.record, f.enum = obj.Fixed, obj.Option, obj.List, obj.Record, obj.Enum
	return nil
}
