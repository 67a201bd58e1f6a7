package uniforms

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type kindTag uint8

const (
	tagScalar kindTag = iota
	tagVector
	tagBool
)

// Kind is the type of a tunable uniform: Scalar, Vector(n) or Bool.
// The zero Kind is Scalar.
type Kind struct {
	tag   kindTag
	arity int
}

// Scalar is a single float uniform.
func Scalar() Kind { return Kind{tag: tagScalar} }

// Bool is a boolean uniform uploaded as 0 or 1.
func Bool() Kind { return Kind{tag: tagBool} }

// Vector is a vecN uniform. n must be in [2, 4]; it is clamped otherwise.
func Vector(n int) Kind {
	if n < 2 {
		n = 2
	} else if n > 4 {
		n = 4
	}
	return Kind{tag: tagVector, arity: n}
}

func (k Kind) IsScalar() bool { return k.tag == tagScalar }
func (k Kind) IsVector() bool { return k.tag == tagVector }
func (k Kind) IsBool() bool   { return k.tag == tagBool }

// Arity returns the number of components a value of this kind carries.
func (k Kind) Arity() int {
	if k.tag == tagVector {
		return k.arity
	}
	return 1
}

// String returns the GLSL-flavoured name of the kind: float, vecN or bool.
func (k Kind) String() string {
	switch k.tag {
	case tagVector:
		return "vec" + strconv.Itoa(k.arity)
	case tagBool:
		return "bool"
	default:
		return "float"
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s := strings.TrimSpace(s); s {
	case "float", "scalar", "":
		return Scalar(), nil
	case "bool":
		return Bool(), nil
	case "vec2", "vec3", "vec4":
		return Vector(int(s[3] - '0')), nil
	default:
		return Kind{}, fmt.Errorf("unknown uniform kind %q", s)
	}
}

func (k Kind) MarshalYAML() (interface{}, error) {
	return k.String(), nil
}

func (k *Kind) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
