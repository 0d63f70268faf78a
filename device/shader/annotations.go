// annotations.go defines the annotation types, argument constants, and parser for the
// Oxy WGSL shader pre-processor. Annotations are single-line WGSL comments prefixed
// with @oxy: that drive automatic struct injection, bind group declaration, and resource
// provider registration. The parsed results are stored as Annotation values and consumed
// by the PreProcessor and the compute/render packages to wire GPU resources without
// manual low-level plumbing.
package shader

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// annotationPrefix is the marker that identifies an Oxy annotation within a WGSL comment line.
// Every annotation must appear on a line beginning with "//" followed by this prefix.
const annotationPrefix = "@oxy:"

// AnnotationType identifies the kind of annotation parsed from a WGSL comment line.
// Each type corresponds to a distinct pre-processor action and produces different
// fields on the resulting Annotation struct.
type AnnotationType string

const (
	// annotationTypeInclude injects the WGSL source of a registered struct definition
	// into the shader at the annotation site. The struct source is embedded from the
	// corresponding Go GPU type's .wgsl asset file. This annotation does not produce
	// a declaration and is consumed entirely during pre-processing.
	//
	// Syntax: //@oxy:include <struct_type>
	//
	// Example: //@oxy:include particle
	annotationTypeInclude AnnotationType = "include"

	// AnnotationTypeBindingGroup generates a WGSL @group/@binding variable declaration
	// and appends an Annotation to the PreProcessor's declarations list. The declaration
	// carries the group index, binding index, and the resolved struct type, enabling the
	// device/resources wiring to match bindings to resource providers without string
	// lookups.
	//
	// Syntax: //@oxy:group <group> <binding> <address_space> <var_name> <type>
	//
	// Example: //@oxy:group 0 0 storage_read_write particles array<particle>
	AnnotationTypeBindingGroup AnnotationType = "group"

	// AnnotationTypeProvider registers a resource provider identity for a group and binding
	// without generating any WGSL output. The WGSL binding declaration remains hand-written
	// in the shader source directly below the annotation. This is used for bindings that
	// contain raw WGSL types (flat arrays of primitives, atomics) which have no corresponding
	// registered struct in the pre-processor's struct registry.
	//
	// Syntax: //@oxy:provider <group> <binding> <provider_identity>
	//
	// Example: //@oxy:provider 0 4 mapping
	AnnotationTypeProvider AnnotationType = "provider"
)

// Annotation represents a single parsed @oxy: annotation from a WGSL shader source line.
// It carries the annotation type, its arguments, the source line number, and optional
// group/binding indices. Annotations of type AnnotationTypeBindingGroup and
// AnnotationTypeProvider are appended to the PreProcessor's declarations list for
// consumption during resource wiring.
type Annotation struct {
	// Type identifies which annotation was parsed (include, group, or provider).
	Type AnnotationType

	// Args holds the annotation's arguments. The contents depend on Type:
	//   - include:  [0] = struct type key (e.g. "particle")
	//   - group:    [0] = address space, [1] = var name, [2] = WGSL type key
	//   - provider: [0] = provider identity (e.g. "mapping", "force_scratch")
	Args []AnnotationArg

	// Line is the 1-based line number in the original WGSL source where this annotation
	// was found. Used for error reporting.
	Line int

	// Group is the @group index for group and provider annotations. Nil for include annotations.
	Group *int

	// Binding is the @binding index for group and provider annotations. Nil for include annotations.
	Binding *int
}

// AnnotationArg is a typed string constant used as an argument in annotations.
// Arguments fall into three categories: struct type keys (used with include and group),
// address space identifiers (used with group), and provider identity keys (used with provider).
type AnnotationArg string

// ── Struct type arguments ──────────────────────────────────────────────────────
// These identify registered WGSL struct types. They can appear in @oxy:include annotations
// (to inject the struct source) and in @oxy:group annotations (as the type field, optionally
// wrapped in array<>). Each maps to a Go GPU type with an embedded .wgsl asset file.

const (
	// AnnotationArgParticle identifies the Particle struct.
	// Source: layout/assets/particle.wgsl
	AnnotationArgParticle AnnotationArg = "particle"

	// AnnotationArgBeam identifies the Beam struct.
	// Source: layout/assets/beam.wgsl
	AnnotationArgBeam AnnotationArg = "beam"

	// AnnotationArgIndirectDraw identifies the IndirectDraw struct matching
	// wgpu's DrawIndexedIndirect argument layout.
	// Source: layout/assets/indirect_draw.wgsl
	AnnotationArgIndirectDraw AnnotationArg = "indirect_draw"

	// AnnotationArgMetadata identifies the Metadata struct. References
	// IndirectDraw, so any shader using this must also @oxy:include
	// indirect_draw first.
	// Source: layout/assets/metadata.wgsl
	AnnotationArgMetadata AnnotationArg = "metadata"
)

// ── Address space arguments ────────────────────────────────────────────────────
// These specify the WGSL variable address space in @oxy:group annotations.
// They map to WGSL var<> declarations.

const (
	// annotationArgStorageTypeUniform maps to var<uniform> in WGSL.
	annotationArgStorageTypeUniform AnnotationArg = "storage_uniform"

	// annotationArgStorageTypeRead maps to var<storage, read> in WGSL.
	annotationArgStorageTypeRead AnnotationArg = "storage_read"

	// annotationArgStorageTypeReadWrite maps to var<storage, read_write> in WGSL.
	annotationArgStorageTypeReadWrite AnnotationArg = "storage_read_write"
)

// ── Provider identity arguments ────────────────────────────────────────────────
// These identify which device-resource provider owns a bind group. Used in
// @oxy:provider annotations and matched by the compute and render packages'
// dispatch/draw setup logic to wire the correct bindgroup.Provider for each group.

const (
	// AnnotationArgParticleRead identifies the ping-pong particle buffer bound
	// as the compute pass's read source for the current sub-tick.
	AnnotationArgParticleRead AnnotationArg = "particle_read"

	// AnnotationArgParticleWrite identifies the ping-pong particle buffer bound
	// as the compute pass's write destination for the current sub-tick.
	AnnotationArgParticleWrite AnnotationArg = "particle_write"

	// AnnotationArgBeamBuffer identifies the packed beam record buffer.
	AnnotationArgBeamBuffer AnnotationArg = "beam"

	// AnnotationArgMetadataBuffer identifies the metadata buffer (indirect-draw
	// descriptors, capacities, physics constants, cursor/force input state).
	AnnotationArgMetadataBuffer AnnotationArg = "metadata"

	// AnnotationArgMapping identifies the logical-id-to-physical-slot mapping
	// table, a flat array<u32> of packed particle and beam sections.
	AnnotationArgMapping AnnotationArg = "mapping"

	// AnnotationArgForceScratch identifies the fixed-point atomic force
	// accumulation buffer consumed and zeroed by the particle pass each
	// sub-tick.
	AnnotationArgForceScratch AnnotationArg = "force_scratch"

	// AnnotationArgDeleteBitmap identifies the per-entity deletion bitmap
	// written by the beam pass's fracture check and consumed by the delete
	// pass.
	AnnotationArgDeleteBitmap AnnotationArg = "delete_bitmap"
)

// validStructTypes lists all AnnotationArg values that are accepted as struct type
// arguments in @oxy:include and @oxy:group annotations. Each entry must have a
// corresponding registryEntry in the PreProcessor's structRegistry.
var validStructTypes = []AnnotationArg{
	AnnotationArgParticle,
	AnnotationArgBeam,
	AnnotationArgIndirectDraw,
	AnnotationArgMetadata,
}

// validAddressSpaces lists all AnnotationArg values that are accepted as address
// space arguments in @oxy:group annotations. Each maps to a WGSL var<> declaration.
var validAddressSpaces = []AnnotationArg{
	annotationArgStorageTypeUniform,
	annotationArgStorageTypeRead,
	annotationArgStorageTypeReadWrite,
}

// validProviderIdentities lists all AnnotationArg values that are accepted as
// provider identity arguments in @oxy:provider annotations. Each maps to a
// device-resource provider used during dispatch and draw-call wiring.
var validProviderIdentities = []AnnotationArg{
	AnnotationArgParticleRead,
	AnnotationArgParticleWrite,
	AnnotationArgBeamBuffer,
	AnnotationArgMetadataBuffer,
	AnnotationArgMapping,
	AnnotationArgForceScratch,
	AnnotationArgDeleteBitmap,
}

// parseAnnotation attempts to parse a single line of WGSL source as an @oxy: annotation.
// Returns nil with no error for lines that do not contain the annotation prefix. Returns
// a populated Annotation for valid annotations, or an error describing the problem for
// malformed annotations with correct prefix but invalid syntax or unknown arguments.
//
// Parameters:
//   - line: the raw WGSL source line to parse
//   - lineNum: the 1-based line number for error reporting
//
// Returns:
//   - *Annotation: the parsed annotation, or nil if the line is not an annotation
//   - error: a descriptive error if the annotation is malformed
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	trimmed := strings.TrimSpace(line)
	_, after, ok := strings.Cut(trimmed, annotationPrefix)
	if !ok {
		return nil, nil
	}

	args := strings.Fields(after)
	if len(args) == 0 {
		return nil, fmt.Errorf("line %d: empty @oxy annotation", lineNum)
	}

	switch args[0] {
	case string(annotationTypeInclude):
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: @oxy include annotation requires exactly one argument", lineNum)
		}
		if !slices.Contains(validStructTypes, AnnotationArg(args[1])) {
			return nil, fmt.Errorf("line %d: unknown struct type %q in @oxy include annotation", lineNum, args[1])
		}
		return &Annotation{
			Type: annotationTypeInclude,
			Args: []AnnotationArg{AnnotationArg(args[1])},
			Line: lineNum,
		}, nil
	case string(AnnotationTypeBindingGroup):
		if len(args) != 6 {
			return nil, fmt.Errorf("line %d: @oxy group annotation requires exactly five arguments (group number, binding number, address space, variable name, struct type)", lineNum)
		}
		groupInt, err := strconv.Atoi(args[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid group number %q in @oxy group annotation: %v", lineNum, args[1], err)
		}
		bindingInt, err := strconv.Atoi(args[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid binding number %q in @oxy group annotation: %v", lineNum, args[2], err)
		}
		if !slices.Contains(validAddressSpaces, AnnotationArg(args[3])) {
			return nil, fmt.Errorf("line %d: unknown address space %q in @oxy group annotation", lineNum, args[3])
		}
		typeArg := args[5]
		if inner, ok := strings.CutPrefix(typeArg, "array<"); ok {
			inner = strings.TrimSuffix(inner, ">")
			if !slices.Contains(validStructTypes, AnnotationArg(inner)) {
				return nil, fmt.Errorf("line %d: unknown array element type %q in @oxy group annotation", lineNum, inner)
			}
		} else {
			if !slices.Contains(validStructTypes, AnnotationArg(typeArg)) {
				return nil, fmt.Errorf("line %d: unknown struct type %q in @oxy group annotation", lineNum, typeArg)
			}
		}
		return &Annotation{
			Type:    AnnotationTypeBindingGroup,
			Args:    []AnnotationArg{AnnotationArg(args[3]), AnnotationArg(args[4]), AnnotationArg(args[5])},
			Line:    lineNum,
			Group:   &groupInt,
			Binding: &bindingInt,
		}, nil
	case string(AnnotationTypeProvider):
		if len(args) != 4 {
			return nil, fmt.Errorf("line %d: @oxy provider annotation requires exactly three arguments (group, binding, provider identity)", lineNum)
		}
		groupInt, err := strconv.Atoi(args[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid group number %q: %v", lineNum, args[1], err)
		}
		bindingInt, err := strconv.Atoi(args[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid binding number %q in @oxy provider annotation: %v", lineNum, args[2], err)
		}
		if !slices.Contains(validProviderIdentities, AnnotationArg(args[3])) {
			return nil, fmt.Errorf("line %d: unknown provider identity %q in @oxy provider annotation", lineNum, args[3])
		}
		return &Annotation{
			Type:    AnnotationTypeProvider,
			Args:    []AnnotationArg{AnnotationArg(args[3])},
			Line:    lineNum,
			Group:   &groupInt,
			Binding: &bindingInt,
		}, nil
	default:
		return nil, fmt.Errorf("line %d: unknown @oxy annotation type %q", lineNum, args[0])
	}
}
