package descriptor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	hcljson "github.com/hashicorp/hcl/v2/json"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/vk/flowpack/internal/ctxlog"
	"github.com/vk/flowpack/internal/dtype"
	"github.com/vk/flowpack/internal/model"
	"github.com/vk/flowpack/internal/scratch"
)

// MainFile is the fixed name of the descriptor file at the package root.
const MainFile = "workflow.json"

// ErrMissing reports that the package contains no descriptor at MainFile.
// Every other parser failure is a schema violation.
var ErrMissing = errors.New("descriptor file missing")

// blobRefKeys is the exact key set that makes an object property a blob
// reference.
var blobRefKeys = []string{"path", "dtype", "shape"}

// Parse reads and validates <scratch>/workflow.json, returning the
// descriptor tree.
func Parse(ctx context.Context, dir *scratch.Dir) (*model.Descriptor, error) {
	logger := ctxlog.FromContext(ctx)

	path, err := dir.Resolve(MainFile)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: no %s at package root", ErrMissing, MainFile)
		}
		return nil, fmt.Errorf("failed to read %s: %w", MainFile, err)
	}

	file, diags := hcljson.Parse(data, MainFile)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse %s: %s", MainFile, diags.Error())
	}
	attrs, diags := file.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode %s: %s", MainFile, diags.Error())
	}

	desc := &model.Descriptor{}
	var unitsVal cty.Value
	haveUnits := false

	for name, attr := range attrs {
		v, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to evaluate descriptor key %q: %s", name, diags.Error())
		}
		switch name {
		case "name":
			if !v.Type().Equals(cty.String) {
				return nil, fmt.Errorf("descriptor key %q must be a string", name)
			}
			desc.Name = v.AsString()
		case "workflow_version":
			if !v.Type().Equals(cty.String) {
				return nil, fmt.Errorf("descriptor key %q must be a string", name)
			}
			desc.Version = v.AsString()
		case "units":
			unitsVal = v
			haveUnits = true
		default:
			logger.Warn("Ignoring unknown top-level descriptor key.", "key", name)
		}
	}

	if !haveUnits {
		return nil, fmt.Errorf("descriptor has no %q sequence", "units")
	}
	if !unitsVal.Type().IsTupleType() && !unitsVal.Type().IsListType() {
		return nil, fmt.Errorf("descriptor key %q must be a sequence", "units")
	}

	seen := make(map[string]struct{})
	it := unitsVal.ElementIterator()
	for it.Next() {
		idx, uv := it.Element()
		unit, err := parseUnit(uv)
		if err != nil {
			var i int
			_ = gocty.FromCtyValue(idx, &i)
			return nil, fmt.Errorf("unit %d: %w", i, err)
		}
		if _, dup := seen[unit.ID]; dup {
			return nil, fmt.Errorf("duplicate unit id %q", unit.ID)
		}
		seen[unit.ID] = struct{}{}
		desc.Units = append(desc.Units, unit)
	}

	logger.Debug("Descriptor parsed.", "name", desc.Name, "units", len(desc.Units))
	return desc, nil
}

// parseUnit validates one entry of the units sequence. Unknown keys beyond
// id/type/properties/links are preserved as properties.
func parseUnit(v cty.Value) (*model.UnitSpec, error) {
	if v.IsNull() || !v.Type().IsObjectType() {
		return nil, fmt.Errorf("unit entry must be an object")
	}

	unit := &model.UnitSpec{
		Properties: make(map[string]cty.Value),
		Blobs:      make(map[string]model.BlobRef),
	}

	ty := v.Type()
	if !ty.HasAttribute("id") {
		return nil, fmt.Errorf("unit is missing required key %q", "id")
	}
	if !ty.HasAttribute("type") {
		return nil, fmt.Errorf("unit is missing required key %q", "type")
	}

	for name, aty := range ty.AttributeTypes() {
		av := v.GetAttr(name)
		switch name {
		case "id":
			if !aty.Equals(cty.String) || av.IsNull() || av.AsString() == "" {
				return nil, fmt.Errorf("unit key %q must be a non-empty string", "id")
			}
			unit.ID = av.AsString()
		case "type":
			if !aty.Equals(cty.String) || av.IsNull() || av.AsString() == "" {
				return nil, fmt.Errorf("unit key %q must be a non-empty string", "type")
			}
			unit.TypeName = av.AsString()
		case "links":
			links, err := parseLinks(av)
			if err != nil {
				return nil, err
			}
			unit.Links = links
		case "properties":
			if av.IsNull() || !aty.IsObjectType() {
				return nil, fmt.Errorf("unit key %q must be an object", "properties")
			}
			pit := av.ElementIterator()
			for pit.Next() {
				pk, pv := pit.Element()
				if err := addProperty(unit, pk.AsString(), pv); err != nil {
					return nil, err
				}
			}
		default:
			// Unknown unit-level keys are preserved as properties.
			if err := addProperty(unit, name, av); err != nil {
				return nil, err
			}
		}
	}

	return unit, nil
}

func parseLinks(v cty.Value) ([]string, error) {
	if v.IsNull() {
		return nil, nil
	}
	if !v.Type().IsTupleType() && !v.Type().IsListType() {
		return nil, fmt.Errorf("unit key %q must be a sequence of strings", "links")
	}
	var links []string
	it := v.ElementIterator()
	for it.Next() {
		_, lv := it.Element()
		if lv.IsNull() || !lv.Type().Equals(cty.String) {
			return nil, fmt.Errorf("unit key %q must be a sequence of strings", "links")
		}
		links = append(links, lv.AsString())
	}
	return links, nil
}

func addProperty(unit *model.UnitSpec, name string, v cty.Value) error {
	if _, exists := unit.Properties[name]; exists {
		return fmt.Errorf("unit %q: duplicate property %q", unit.ID, name)
	}
	if _, exists := unit.Blobs[name]; exists {
		return fmt.Errorf("unit %q: duplicate property %q", unit.ID, name)
	}

	if v.IsNull() {
		return fmt.Errorf("property %q must not be null", name)
	}

	ty := v.Type()
	switch {
	case ty.IsObjectType():
		ref, err := parseBlobRef(name, v)
		if err != nil {
			return err
		}
		unit.Blobs[name] = *ref
		return nil
	case ty.Equals(cty.Bool) || ty.Equals(cty.Number) || ty.Equals(cty.String):
		unit.Properties[name] = v
		return nil
	case ty.IsTupleType() || ty.IsListType():
		if err := checkHomogeneous(name, v); err != nil {
			return err
		}
		unit.Properties[name] = v
		return nil
	default:
		return fmt.Errorf("property %q has unsupported value type %s", name, ty.FriendlyName())
	}
}

// checkHomogeneous enforces that a sequence property holds elements of a
// single primitive type. Nested sequences and objects are rejected.
func checkHomogeneous(name string, v cty.Value) error {
	var elem cty.Type
	first := true
	it := v.ElementIterator()
	for it.Next() {
		_, ev := it.Element()
		ety := ev.Type()
		if !ety.Equals(cty.Bool) && !ety.Equals(cty.Number) && !ety.Equals(cty.String) {
			return fmt.Errorf("property %q: sequence elements must be primitive, got %s",
				name, ety.FriendlyName())
		}
		if first {
			elem = ety
			first = false
			continue
		}
		if !ety.Equals(elem) {
			return fmt.Errorf("property %q: sequence is not homogeneous (%s vs %s)",
				name, elem.FriendlyName(), ety.FriendlyName())
		}
	}
	return nil
}

// parseBlobRef interprets an object property. Object properties must bear
// exactly the path/dtype/shape triple; anything else, including a partial
// triple, is a schema violation.
func parseBlobRef(name string, v cty.Value) (*model.BlobRef, error) {
	ty := v.Type()
	attrs := ty.AttributeTypes()

	for _, k := range blobRefKeys {
		if _, ok := attrs[k]; !ok {
			return nil, fmt.Errorf("property %q: object is not a complete blob reference (missing %q)", name, k)
		}
	}
	if len(attrs) != len(blobRefKeys) {
		for k := range attrs {
			if k != "path" && k != "dtype" && k != "shape" {
				return nil, fmt.Errorf("property %q: unexpected blob reference key %q", name, k)
			}
		}
	}

	ref := &model.BlobRef{}

	pv := v.GetAttr("path")
	if pv.IsNull() || !pv.Type().Equals(cty.String) {
		return nil, fmt.Errorf("property %q: blob reference %q must be a string", name, "path")
	}
	ref.Path = pv.AsString()
	if ref.Path == "" {
		return nil, fmt.Errorf("property %q: blob reference path is empty", name)
	}
	if strings.ContainsAny(ref.Path, `/\`) {
		return nil, fmt.Errorf("property %q: blob reference path %q must not contain directory separators",
			name, ref.Path)
	}

	dv := v.GetAttr("dtype")
	if dv.IsNull() || !dv.Type().Equals(cty.String) {
		return nil, fmt.Errorf("property %q: blob reference %q must be a string", name, "dtype")
	}
	dt, err := dtype.Parse(dv.AsString())
	if err != nil {
		return nil, fmt.Errorf("property %q: %w", name, err)
	}
	ref.DType = dt

	sv := v.GetAttr("shape")
	if sv.IsNull() || (!sv.Type().IsTupleType() && !sv.Type().IsListType()) {
		return nil, fmt.Errorf("property %q: blob reference %q must be a sequence of integers", name, "shape")
	}
	it := sv.ElementIterator()
	for it.Next() {
		_, ev := it.Element()
		var dim int
		if err := gocty.FromCtyValue(ev, &dim); err != nil {
			return nil, fmt.Errorf("property %q: blob reference shape entries must be integers: %w", name, err)
		}
		ref.Shape = append(ref.Shape, dim)
	}
	if len(ref.Shape) == 0 {
		return nil, fmt.Errorf("property %q: blob reference shape must not be empty", name)
	}

	return ref, nil
}
