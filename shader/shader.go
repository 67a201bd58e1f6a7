package shader

import (
	"regexp"
	"strconv"
	"strings"
)

// Reserved uniforms are supplied by the renderer on every frame.
const (
	TimeUniform       = "u_time"
	ResolutionUniform = "u_resolution"
	MouseUniform      = "u_mouse"
)

// ReservedUniforms lists the renderer-owned uniform names in upload order.
var ReservedUniforms = [...]string{ResolutionUniform, MouseUniform, TimeUniform}

// IsReserved reports whether name is one of the renderer-owned uniforms.
func IsReserved(name string) bool {
	for _, r := range ReservedUniforms {
		if r == name {
			return true
		}
	}
	return false
}

// ─────────────────────────────────── Vertex ────────────────────────────────────

// FullscreenTriangle covers clip space with a single oversized triangle.
var FullscreenTriangle = [...]float32{
	-1, -1,
	3, -1,
	-1, 3,
}

const vertexShaderSource = `#version 300 es
layout(location = 0) in vec2 a_position;
void main() {
    gl_Position = vec4(a_position, 0.0, 1.0);
}
`

// ────────────────────────────────── Fragment ───────────────────────────────────

// fragmentPreamble is prepended to every user body. HeaderOffset must match
// its line count.
const fragmentPreamble = `#version 300 es
precision highp float;
out vec4 fragColor;
uniform vec2 u_resolution;
uniform vec2 u_mouse;
uniform float u_time;
`

// HeaderOffset is the number of lines the preamble adds in front of user text.
const HeaderOffset = 6

// OutputVariable is the fragment output declared by the preamble.
const OutputVariable = "fragColor"

// Source is a complete, linkable shader pair.
type Source struct {
	Vertex   string
	Fragment string
}

var (
	versionDirective = regexp.MustCompile(`(?m)^[ \t]*#[ \t]*version\b.*$`)
	floatPrecision   = regexp.MustCompile(`\bprecision\s+(?:lowp|mediump|highp)\s+float\s*;`)
	outputDecl       = regexp.MustCompile(`(?:\blayout\s*\([^)]*\)\s*)?\bout\s+(?:lowp\s+|mediump\s+|highp\s+)?vec4\s+([A-Za-z_]\w*)\s*;`)
	reservedDecl     = regexp.MustCompile(`\buniform\s+(?:lowp\s+|mediump\s+|highp\s+)?(?:float|vec2)\s+(?:u_time|u_resolution|u_mouse)\s*;`)
	legacyOutput     = regexp.MustCompile(`\bgl_FragColor\b`)
)

// Transform wraps a user fragment body into a complete shader pair.
//
// Declarations the preamble already provides (version, float precision,
// output variable, reserved uniforms) are blanked out of the body, keeping
// its newlines, so a diagnostic on transformed line L always refers to user
// line L-HeaderOffset. A user output with another name is aliased to
// OutputVariable.
func Transform(body string) Source {
	sanitized := versionDirective.ReplaceAllStringFunc(body, blankKeepingLines)
	sanitized = floatPrecision.ReplaceAllStringFunc(sanitized, blankKeepingLines)
	sanitized = redirectOutputs(sanitized)
	sanitized = reservedDecl.ReplaceAllStringFunc(sanitized, blankKeepingLines)
	sanitized = legacyOutput.ReplaceAllString(sanitized, OutputVariable)

	return Source{
		Vertex:   vertexShaderSource,
		Fragment: fragmentPreamble + sanitized + "\n",
	}
}

// redirectOutputs removes the output declarations of body. A custom name
// declared on its own line becomes a macro for OutputVariable in place of
// the declaration. Otherwise its uses are renamed, except member accesses.
func redirectOutputs(body string) string {
	var b strings.Builder
	var renamed []string
	last := 0
	for _, m := range outputDecl.FindAllStringSubmatchIndex(body, -1) {
		start, end := m[0], m[1]
		name := body[m[2]:m[3]]
		blank := blankKeepingLines(body[start:end])
		lineStart := strings.LastIndexByte(body[:start], '\n') + 1

		b.WriteString(body[last:start])
		last = end
		switch {
		case name == OutputVariable:
			b.WriteString(blank)
		case strings.TrimSpace(body[lineStart:start]) == "":
			b.WriteString("#define " + name + " " + OutputVariable + blank)
		default:
			b.WriteString(blank)
			renamed = append(renamed, regexp.QuoteMeta(name))
		}
	}
	b.WriteString(body[last:])

	out := b.String()
	if len(renamed) > 0 {
		uses := regexp.MustCompile(`(^|[^.\w])(?:` + strings.Join(renamed, "|") + `)\b`)
		out = uses.ReplaceAllString(out, "${1}"+OutputVariable)
	}
	return out
}

func blankKeepingLines(match string) string {
	return strings.Repeat("\n", strings.Count(match, "\n"))
}

// Compilers report positions as "0:L:" (ANGLE, Mesa "0:L(c):") or "0(L)" (NVIDIA).
var diagnosticLine = regexp.MustCompile(`\b0([:(])(\d+)\b`)

// RemapDiagnostics rewrites every line reference in a compiler log so it is
// relative to the user's text: L becomes max(1, L-HeaderOffset).
func RemapDiagnostics(log string) string {
	return diagnosticLine.ReplaceAllStringFunc(log, func(m string) string {
		sub := diagnosticLine.FindStringSubmatch(m)
		line, err := strconv.Atoi(sub[2])
		if err != nil {
			return m
		}
		return "0" + sub[1] + strconv.Itoa(UserLine(line))
	})
}

// UserLine maps a line of the transformed fragment source to the user's text.
func UserLine(line int) int {
	return max(1, line-HeaderOffset)
}
