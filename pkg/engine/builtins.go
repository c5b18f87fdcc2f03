package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/ramify/pkg/kernel"
	"github.com/chazu/ramify/pkg/mesh"
	"github.com/chazu/ramify/pkg/rule"
	"github.com/chazu/ramify/pkg/transform"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms ramify Lisp source code before passing it to
// zygomys. It performs three transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: rand-int -> rand_int
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator).
//
//  3. Line comments: ; and ;; become //, the zygomys comment syntax.
//
// All transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Leave // comments alone so their contents are not rewritten.
		if b[i] == '/' && i+1 < len(b) && b[i+1] == '/' {
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				result = append(result, '"')
				result = append(result, kwPrefix...)
				result = append(result, b[i+1:j]...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Only when the hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpTransform wraps a set of transform branches. A single transform is a
// set of one.
type sexpTransform struct {
	set transform.Set
}

func (t *sexpTransform) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(tf %d branches)", t.set.Len())
}
func (t *sexpTransform) Type() *zygo.RegisteredType { return nil }

// sexpMesh wraps a shared leaf mesh.
type sexpMesh struct {
	m *mesh.Mesh
}

func (m *sexpMesh) SexpString(ps *zygo.PrintState) string {
	name := m.m.Name()
	if name == "" {
		name = "mesh"
	}
	return fmt.Sprintf("(%s %d verts)", name, m.m.VertexCount())
}
func (m *sexpMesh) Type() *zygo.RegisteredType { return nil }

// sexpRule wraps a rule built with `rule`.
type sexpRule struct {
	r *rule.Rule
}

func (r *sexpRule) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(rule %d entries)", r.r.Len())
}
func (r *sexpRule) Type() *zygo.RegisteredType { return nil }

// sexpProducer wraps a lazy script producer.
type sexpProducer struct {
	p *scriptProducer
}

func (p *sexpProducer) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(lazy %d args)", len(p.p.args))
}
func (p *sexpProducer) Type() *zygo.RegisteredType { return nil }

// sexpSolid wraps a kernel solid awaiting tessellation.
type sexpSolid struct {
	s kernel.Solid
}

func (s *sexpSolid) SexpString(ps *zygo.PrintState) string {
	lo, hi := s.s.BoundingBox()
	d := hi.Sub(lo)
	return fmt.Sprintf("(solid %.2fx%.2fx%.2f)", d.X, d.Y, d.Z)
}
func (s *sexpSolid) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value: treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// float returns the keyword value as a number, or def when absent.
func (a kwArgs) float(key string, def float64) (float64, error) {
	v, ok := a.kw[key]
	if !ok {
		return def, nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

func isNull(s zygo.Sexp) bool {
	return s == nil || s == zygo.SexpNull
}

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts an integer; floats must be whole.
func toInt(s zygo.Sexp) (int, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return int(v.Val), nil
	case *zygo.SexpFloat:
		if v.Val == float64(int(v.Val)) {
			return int(v.Val), nil
		}
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// toBrancher converts a transform argument. nil means untransformed and a
// list or array of transforms is the union of their branches.
func toBrancher(s zygo.Sexp) (transform.Brancher, error) {
	if isNull(s) {
		return nil, nil
	}
	if t, ok := s.(*sexpTransform); ok {
		return t.set, nil
	}
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, fmt.Errorf("expected transform, got %T (%s)", s, s.SexpString(nil))
	}
	var set transform.Set
	for i, item := range items {
		t, ok := item.(*sexpTransform)
		if !ok {
			return nil, fmt.Errorf("item %d: expected transform, got %T (%s)", i, item, item.SexpString(nil))
		}
		set = append(set, t.set...)
	}
	return set, nil
}

// toChild converts a rule child: a mesh, a rule or a lazy producer.
func toChild(s zygo.Sexp) (rule.Child, error) {
	if isNull(s) {
		return rule.Child{}, fmt.Errorf("expected mesh, rule or lazy producer, got nil")
	}
	switch v := s.(type) {
	case *sexpMesh:
		return rule.Mesh(v.m), nil
	case *sexpRule:
		return rule.Defer(v.r), nil
	case *sexpProducer:
		return rule.Defer(v.p), nil
	case *sexpSolid:
		return rule.Child{}, fmt.Errorf("solid must be tessellated before use in a rule")
	}
	return rule.Child{}, fmt.Errorf("expected mesh, rule or lazy producer, got %T (%s)", s, s.SexpString(nil))
}

// toRule converts a producer result into a rule. nil is the empty rule and
// a bare child becomes a rule with one untransformed entry.
func toRule(s zygo.Sexp) (*rule.Rule, error) {
	if isNull(s) {
		return rule.New(), nil
	}
	if r, ok := s.(*sexpRule); ok {
		return r.r, nil
	}
	child, err := toChild(s)
	if err != nil {
		return nil, err
	}
	return rule.New().Push(nil, child), nil
}

func toSolid(s zygo.Sexp) (kernel.Solid, error) {
	if v, ok := s.(*sexpSolid); ok {
		return v.s, nil
	}
	return nil, fmt.Errorf("expected solid, got %T (%s)", s, s.SexpString(nil))
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs all ramify builtins into a zygomys environment.
// Builtins that need evaluation state (kernel, random source, render root)
// read it from p.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, p *Program) {
	registerTransformBuiltins(env)
	registerMeshBuiltins(env)
	registerKernelBuiltins(env, p)
	registerRuleBuiltins(env, p)
	registerRandomBuiltins(env, p)
}

func wrapTransform(t transform.Transform) zygo.Sexp {
	return &sexpTransform{set: transform.Set{t}}
}

func floatArgs(name string, args []zygo.Sexp, n int) ([]float64, error) {
	if len(args) != n {
		return nil, fmt.Errorf("%s requires exactly %d arguments, got %d", name, n, len(args))
	}
	out := make([]float64, n)
	for i, a := range args {
		f, err := toFloat64(a)
		if err != nil {
			return nil, fmt.Errorf("%s: argument %d: %w", name, i+1, err)
		}
		out[i] = f
	}
	return out, nil
}

func registerTransformBuiltins(env *zygo.Zlisp) {
	// -----------------------------------------------------------------------
	// (tx 1) (ty 1) (tz 1) (s 0.5) (rx 90) (ry 90) (rz 90)
	// (hue 30) (sat 0.5) (val 0.9)
	// -----------------------------------------------------------------------
	unary := map[string]func(float64) transform.Transform{
		"tx":  transform.TranslateX,
		"ty":  transform.TranslateY,
		"tz":  transform.TranslateZ,
		"s":   transform.Scale,
		"rx":  transform.RotateX,
		"ry":  transform.RotateY,
		"rz":  transform.RotateZ,
		"hue": transform.Hue,
		"sat": transform.Saturation,
		"val": transform.Value,
	}
	for fname, ctor := range unary {
		env.AddFunction(fname, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			v, err := floatArgs(name, args, 1)
			if err != nil {
				return zygo.SexpNull, err
			}
			return wrapTransform(ctor(v[0])), nil
		})
	}

	// -----------------------------------------------------------------------
	// (t 1 2 3) (sby 1 2 0.5)
	// -----------------------------------------------------------------------
	ternary := map[string]func(x, y, z float64) transform.Transform{
		"t":   transform.Translate,
		"sby": transform.ScaleXYZ,
	}
	for fname, ctor := range ternary {
		env.AddFunction(fname, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			v, err := floatArgs(name, args, 3)
			if err != nil {
				return zygo.SexpNull, err
			}
			return wrapTransform(ctor(v[0], v[1], v[2])), nil
		})
	}

	// -----------------------------------------------------------------------
	// (color "#ff8800") or (color 30 1 1)
	// -----------------------------------------------------------------------
	env.AddFunction("color", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) == 1 {
			hex, err := toString(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("color: %w", err)
			}
			t, err := transform.ColorHex(hex)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("color: %w", err)
			}
			return wrapTransform(t), nil
		}
		v, err := floatArgs(name, args, 3)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("color takes a hex string or hue, saturation and value: %w", err)
		}
		return wrapTransform(transform.Color(transform.HSV{H: v[0], S: v[1], V: v[2]})), nil
	})

	// -----------------------------------------------------------------------
	// (tf (tx 1) (rz 30) [(s 1) (s 2)])
	// Every combination of the stages, each applied inside the previous one.
	// -----------------------------------------------------------------------
	env.AddFunction("tf", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		stages := make([]transform.Brancher, 0, len(args))
		for i, a := range args {
			b, err := toBrancher(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("tf: stage %d: %w", i+1, err)
			}
			if b == nil {
				continue
			}
			stages = append(stages, b)
		}
		return &sexpTransform{set: transform.Seq(stages...)}, nil
	})

	// -----------------------------------------------------------------------
	// (replicate 10 (tf (ty 1) (rz 36)))
	// -----------------------------------------------------------------------
	env.AddFunction("replicate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("replicate requires a count and a transform, got %d arguments", len(args))
		}
		n, err := toInt(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("replicate: count: %w", err)
		}
		b, err := toBrancher(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("replicate: %w", err)
		}
		if b == nil {
			b = transform.Identity()
		}
		return &sexpTransform{set: transform.Replicate(n, b)}, nil
	})
}

// maxSphereResolution bounds sphere subdivision (20 * 4^6 faces).
const maxSphereResolution = 6

func registerMeshBuiltins(env *zygo.Zlisp) {
	// (cube)
	env.AddFunction("cube", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		return &sexpMesh{m: mesh.Cube()}, nil
	})

	// (icosphere)
	env.AddFunction("icosphere", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		return &sexpMesh{m: mesh.IcoSphere()}, nil
	})

	// (sphere :resolution 2)
	env.AddFunction("sphere", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		res := 0
		if v, ok := pa.kw["resolution"]; ok {
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("sphere: resolution: %w", err)
			}
			res = n
		}
		if res < 0 || res > maxSphereResolution {
			return zygo.SexpNull, fmt.Errorf("sphere: resolution %d out of range [0, %d]", res, maxSphereResolution)
		}
		return &sexpMesh{m: mesh.Sphere(res)}, nil
	})
}

func registerKernelBuiltins(env *zygo.Zlisp, p *Program) {
	k := p.kernel

	// -----------------------------------------------------------------------
	// (box :x 1 :y 2 :z 0.5)
	// -----------------------------------------------------------------------
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		var dims [3]float64
		for i, key := range []string{"x", "y", "z"} {
			f, err := pa.float(key, 1)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("box: %w", err)
			}
			dims[i] = f
		}
		s, err := k.Box(dims[0], dims[1], dims[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("box: %w", err)
		}
		return &sexpSolid{s: s}, nil
	})

	// -----------------------------------------------------------------------
	// (cylinder :height 1 :radius 0.5)
	// -----------------------------------------------------------------------
	env.AddFunction("cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		h, err := pa.float("height", 1)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: %w", err)
		}
		r, err := pa.float("radius", 0.5)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: %w", err)
		}
		s, err := k.Cylinder(h, r)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: %w", err)
		}
		return &sexpSolid{s: s}, nil
	})

	// -----------------------------------------------------------------------
	// (ball :radius 0.5)
	// -----------------------------------------------------------------------
	env.AddFunction("ball", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		r, err := pa.float("radius", 0.5)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("ball: %w", err)
		}
		s, err := k.Sphere(r)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("ball: %w", err)
		}
		return &sexpSolid{s: s}, nil
	})

	// -----------------------------------------------------------------------
	// (union a b ...) (difference a b ...) (intersection a b ...)
	// Folded left: (difference a b c) removes b and c from a.
	// -----------------------------------------------------------------------
	booleans := map[string]func(a, b kernel.Solid) kernel.Solid{
		"union":        k.Union,
		"difference":   k.Difference,
		"intersection": k.Intersection,
	}
	for fname, op := range booleans {
		env.AddFunction(fname, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) < 2 {
				return zygo.SexpNull, fmt.Errorf("%s requires at least 2 solids, got %d", name, len(args))
			}
			acc, err := toSolid(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: argument 1: %w", name, err)
			}
			for i, a := range args[1:] {
				s, err := toSolid(a)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("%s: argument %d: %w", name, i+2, err)
				}
				acc = op(acc, s)
			}
			return &sexpSolid{s: acc}, nil
		})
	}

	// -----------------------------------------------------------------------
	// (solid-translate s 1 0 0) (solid-rotate s 0 0 90)
	// -----------------------------------------------------------------------
	placements := map[string]func(s kernel.Solid, x, y, z float64) kernel.Solid{
		"solid_translate": k.Translate,
		"solid_rotate":    k.Rotate,
	}
	for fname, op := range placements {
		env.AddFunction(fname, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) != 4 {
				return zygo.SexpNull, fmt.Errorf("%s requires a solid and 3 numbers, got %d arguments", name, len(args))
			}
			s, err := toSolid(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
			}
			v, err := floatArgs(name, args[1:], 3)
			if err != nil {
				return zygo.SexpNull, err
			}
			return &sexpSolid{s: op(s, v[0], v[1], v[2])}, nil
		})
	}

	// -----------------------------------------------------------------------
	// (tessellate solid :name "bolt")
	// -----------------------------------------------------------------------
	env.AddFunction("tessellate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("tessellate requires exactly one solid")
		}
		s, err := toSolid(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("tessellate: %w", err)
		}
		meshName := "solid"
		if v, ok := pa.kw["name"]; ok {
			if meshName, err = toString(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("tessellate: name: %w", err)
			}
		}
		m, err := k.ToMesh(s)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("tessellate: %w", err)
		}
		return &sexpMesh{m: m.Named(meshName)}, nil
	})
}

func registerRuleBuiltins(env *zygo.Zlisp, p *Program) {
	// -----------------------------------------------------------------------
	// (rule tf child tf child ...)
	// A nil transform leaves the child in its parent's frame; a nil child
	// is dropped.
	// -----------------------------------------------------------------------
	env.AddFunction("rule", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args)%2 != 0 {
			return zygo.SexpNull, fmt.Errorf("rule requires transform/child pairs, got %d arguments", len(args))
		}
		r := rule.New()
		for i := 0; i < len(args); i += 2 {
			b, err := toBrancher(args[i])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("rule: entry %d: transform: %w", i/2+1, err)
			}
			if isNull(args[i+1]) {
				continue
			}
			child, err := toChild(args[i+1])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("rule: entry %d: %w", i/2+1, err)
			}
			r.Push(b, child)
		}
		return &sexpRule{r: r}, nil
	})

	// -----------------------------------------------------------------------
	// (lazy tower 10)
	// Calls (tower 10) again every time the producer is expanded.
	// -----------------------------------------------------------------------
	env.AddFunction("lazy", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("lazy requires a function")
		}
		fn, ok := args[0].(*zygo.SexpFunction)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("lazy: expected function, got %T (%s)", args[0], args[0].SexpString(nil))
		}
		captured := make([]zygo.Sexp, len(args)-1)
		copy(captured, args[1:])
		return &sexpProducer{p: &scriptProducer{prog: p, fn: fn, args: captured}}, nil
	})

	// -----------------------------------------------------------------------
	// (render r ...)
	// Adds each argument to the program root.
	// -----------------------------------------------------------------------
	env.AddFunction("render", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		for i, a := range args {
			if isNull(a) {
				continue
			}
			child, err := toChild(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("render: argument %d: %w", i+1, err)
			}
			p.root.Push(nil, child)
		}
		return zygo.SexpNull, nil
	})
}

func registerRandomBuiltins(env *zygo.Zlisp, p *Program) {
	// (rand) -> [0, 1)
	env.AddFunction("rand", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		return &zygo.SexpFloat{Val: p.rng.Float64()}, nil
	})

	// (rand-int 6) -> [0, 6)
	env.AddFunction("rand_int", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("rand-int requires exactly 1 argument, got %d", len(args))
		}
		n, err := toInt(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rand-int: %w", err)
		}
		if n <= 0 {
			return zygo.SexpNull, fmt.Errorf("rand-int: bound %d must be positive", n)
		}
		return &zygo.SexpInt{Val: int64(p.rng.IntN(n))}, nil
	})

	// (choose a b c)
	env.AddFunction("choose", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) == 0 {
			return zygo.SexpNull, fmt.Errorf("choose requires at least 1 argument")
		}
		return args[p.rng.IntN(len(args))], nil
	})
}
