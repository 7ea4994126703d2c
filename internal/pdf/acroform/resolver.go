package acroform

import (
	"fmt"

	pdferrors "github.com/a3tai/pdf-form-extract/internal/pdf/errors"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// ObjectRef names an indirect object by object and generation number.
type ObjectRef struct {
	Num int
	Gen int
}

// String renders the reference in PDF syntax.
func (r ObjectRef) String() string {
	return fmt.Sprintf("%d %d R", r.Num, r.Gen)
}

func (r ObjectRef) indirect() types.IndirectRef {
	return types.IndirectRef{
		ObjectNumber:     types.Integer(r.Num),
		GenerationNumber: types.Integer(r.Gen),
	}
}

// refOf reports whether obj is an indirect reference, in either the value or
// the pointer form pdfcpu produces.
func refOf(obj types.Object) (ObjectRef, bool) {
	switch ir := obj.(type) {
	case types.IndirectRef:
		return ObjectRef{Num: int(ir.ObjectNumber), Gen: int(ir.GenerationNumber)}, true
	case *types.IndirectRef:
		if ir == nil {
			return ObjectRef{}, false
		}
		return ObjectRef{Num: int(ir.ObjectNumber), Gen: int(ir.GenerationNumber)}, true
	}
	return ObjectRef{}, false
}

// ResolveStatus tags the outcome of a resolution.
type ResolveStatus int

const (
	// Resolved: Value holds the concrete object (possibly nil for PDF null).
	Resolved ResolveStatus = iota
	// NotFound: the reference chain ended at a missing or free object.
	NotFound
	// Cycle: the reference chain revisits a reference.
	Cycle
	// Broken: the object table failed to load the object.
	Broken
)

func (s ResolveStatus) String() string {
	switch s {
	case Resolved:
		return "resolved"
	case NotFound:
		return "not found"
	case Cycle:
		return "cycle"
	case Broken:
		return "broken"
	default:
		return "unknown"
	}
}

// Resolution is the tagged result of Resolver.Resolve.
type Resolution struct {
	Value  types.Object
	Ref    *ObjectRef // last reference followed; nil for direct objects
	Status ResolveStatus
	cause  error
}

// OK reports whether the resolution produced a concrete value.
func (r Resolution) OK() bool {
	return r.Status == Resolved
}

// Err converts an unsuccessful resolution into a PDFError.
func (r Resolution) Err() error {
	var ref ObjectRef
	if r.Ref != nil {
		ref = *r.Ref
	}

	switch r.Status {
	case Resolved:
		return nil
	case NotFound:
		return pdferrors.NewPDFError(pdferrors.ErrorTypeMissingObject,
			fmt.Sprintf("object %s not found", ref)).WithObject(ref.Num, ref.Gen)
	case Cycle:
		return pdferrors.NewPDFError(pdferrors.ErrorTypeCircularReference,
			fmt.Sprintf("reference cycle at %s", ref)).WithObject(ref.Num, ref.Gen)
	default:
		return pdferrors.Wrapf(pdferrors.ErrorTypeMalformedStructure, r.cause,
			"cannot load object %s", ref).WithObject(ref.Num, ref.Gen)
	}
}

// ObjectTable looks up a single indirect object without following chains.
// *model.Context and *model.XRefTable satisfy it.
type ObjectTable interface {
	Dereference(o types.Object) (types.Object, error)
}

// Resolver follows indirect references against an ObjectTable. Results are
// memoized per reference; the table is never modified. A Resolver is not
// safe for concurrent use.
type Resolver struct {
	table ObjectTable
	memo  map[ObjectRef]Resolution
}

// NewResolver returns a resolver over table.
func NewResolver(table ObjectTable) *Resolver {
	return &Resolver{
		table: table,
		memo:  make(map[ObjectRef]Resolution),
	}
}

// Resolve returns obj itself when it is a concrete value, or the object its
// reference chain ends at.
func (r *Resolver) Resolve(obj types.Object) Resolution {
	ref, ok := refOf(obj)
	if !ok {
		return Resolution{Value: obj, Status: Resolved}
	}
	if res, ok := r.memo[ref]; ok {
		return res
	}

	res := r.follow(ref)
	r.memo[ref] = res
	return res
}

// ResolveRef resolves the object named by ref.
func (r *Resolver) ResolveRef(ref ObjectRef) Resolution {
	return r.Resolve(ref.indirect())
}

func (r *Resolver) follow(start ObjectRef) Resolution {
	seen := make(map[ObjectRef]bool)
	ref := start

	for {
		if seen[ref] {
			return Resolution{Ref: &ref, Status: Cycle}
		}
		seen[ref] = true

		if ref != start {
			if res, ok := r.memo[ref]; ok {
				return res
			}
		}

		obj, err := r.table.Dereference(ref.indirect())
		if err != nil {
			return Resolution{Ref: &ref, Status: Broken, cause: err}
		}
		if obj == nil {
			return Resolution{Ref: &ref, Status: NotFound}
		}

		next, isRef := refOf(obj)
		if !isRef {
			return Resolution{Value: obj, Ref: &ref, Status: Resolved}
		}
		ref = next
	}
}

func wrongType(want string, obj types.Object) error {
	return pdferrors.NewPDFError(pdferrors.ErrorTypeMalformedStructure,
		fmt.Sprintf("expected %s, got %T", want, obj))
}

// Dict resolves obj to a dictionary. PDF null yields a nil dictionary.
func (r *Resolver) Dict(obj types.Object) (types.Dict, error) {
	res := r.Resolve(obj)
	if !res.OK() {
		return nil, res.Err()
	}
	switch v := res.Value.(type) {
	case nil:
		return nil, nil
	case types.Dict:
		return v, nil
	default:
		return nil, wrongType("dictionary", v)
	}
}

// Array resolves obj to an array. PDF null yields a nil array.
func (r *Resolver) Array(obj types.Object) (types.Array, error) {
	res := r.Resolve(obj)
	if !res.OK() {
		return nil, res.Err()
	}
	switch v := res.Value.(type) {
	case nil:
		return nil, nil
	case types.Array:
		return v, nil
	default:
		return nil, wrongType("array", v)
	}
}

// Stream resolves obj to a stream dictionary. The second result is false when
// obj resolves to something other than a stream.
func (r *Resolver) Stream(obj types.Object) (*types.StreamDict, bool, error) {
	res := r.Resolve(obj)
	if !res.OK() {
		return nil, false, res.Err()
	}
	switch v := res.Value.(type) {
	case types.StreamDict:
		return &v, true, nil
	case *types.StreamDict:
		return v, v != nil, nil
	default:
		return nil, false, nil
	}
}

// Name resolves obj to a name, returned without the leading slash.
func (r *Resolver) Name(obj types.Object) (string, error) {
	res := r.Resolve(obj)
	if !res.OK() {
		return "", res.Err()
	}
	switch v := res.Value.(type) {
	case nil:
		return "", nil
	case types.Name:
		return string(v), nil
	default:
		return "", wrongType("name", v)
	}
}

// Text resolves obj to a string. Literal and hex strings are decoded from
// PDFDocEncoding or UTF-16; names are accepted as their text.
func (r *Resolver) Text(obj types.Object) (string, error) {
	res := r.Resolve(obj)
	if !res.OK() {
		return "", res.Err()
	}
	return decodeText(res.Value)
}

func decodeText(obj types.Object) (string, error) {
	switch v := obj.(type) {
	case nil:
		return "", nil
	case types.StringLiteral:
		return types.StringLiteralToString(v)
	case types.HexLiteral:
		return types.HexLiteralToString(v)
	case types.Name:
		return string(v), nil
	default:
		return "", wrongType("string", v)
	}
}
