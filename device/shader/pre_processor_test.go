package shader_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oxy-softbody/softbody/device/shader"
)

const rawComputeSource = `
//@oxy:include indirect_draw
//@oxy:include metadata
//@oxy:include particle
//@oxy:include beam

//@oxy:group 0 0 storage_uniform globals metadata
//@oxy:group 0 1 storage_read_write particles array<particle>
//@oxy:group 0 2 storage_read_write beams array<beam>
//@oxy:provider 0 3 mapping
var<storage, read_write> mapping: array<u32>;
//@oxy:provider 0 4 force_scratch
var<storage, read_write> force_scratch: array<atomic<i32>>;

@compute @workgroup_size(64)
fn main() {
}
`

func TestProcessInjectsStructsAndGeneratesBindings(t *testing.T) {
	pp := shader.NewPreProcessor()

	out, err := pp.Process(rawComputeSource)
	require.NoError(t, err)
	require.Contains(t, out, "struct Metadata")
	require.Contains(t, out, "struct Particle")
	require.Contains(t, out, "struct Beam")
	require.Contains(t, out, "struct IndirectDraw")
	require.Contains(t, out, "@group(0) @binding(0) var<uniform> globals: Metadata;")
	require.Contains(t, out, "@group(0) @binding(1) var<storage, read_write> particles: array<Particle>;")
	require.Contains(t, out, "@group(0) @binding(2) var<storage, read_write> beams: array<Beam>;")

	// provider annotations produce no WGSL output of their own; the hand-written
	// declaration on the following line is left untouched.
	require.NotContains(t, out, "@oxy:provider")
	require.Contains(t, out, "var<storage, read_write> mapping: array<u32>;")
}

func TestProcessCollectsDeclarationsInSourceOrder(t *testing.T) {
	pp := shader.NewPreProcessor()

	_, err := pp.Process(rawComputeSource)
	require.NoError(t, err)

	decls := pp.Declarations()
	require.Len(t, decls, 5)
	require.Equal(t, shader.AnnotationTypeBindingGroup, decls[0].Type)
	require.Equal(t, shader.AnnotationArgMetadata, decls[0].Args[2])
	require.Equal(t, shader.AnnotationTypeProvider, decls[3].Type)
	require.Equal(t, shader.AnnotationArgMapping, decls[3].Args[0])
	require.Equal(t, 0, *decls[3].Group)
	require.Equal(t, 3, *decls[3].Binding)
}

func TestProcessRejectsUnknownProviderIdentity(t *testing.T) {
	pp := shader.NewPreProcessor()
	_, err := pp.Process("//@oxy:provider 0 0 not_a_real_provider\n")
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "unknown provider identity"))
}

func TestProcessRejectsMalformedGroupAnnotation(t *testing.T) {
	pp := shader.NewPreProcessor()
	_, err := pp.Process("//@oxy:group 0 0 storage_read_write particles\n")
	require.Error(t, err)
}

func TestProcessResetsDeclarationsBetweenCalls(t *testing.T) {
	pp := shader.NewPreProcessor()

	_, err := pp.Process("//@oxy:provider 0 0 mapping\n")
	require.NoError(t, err)
	require.Len(t, pp.Declarations(), 1)

	_, err = pp.Process("// no annotations here\n")
	require.NoError(t, err)
	require.Empty(t, pp.Declarations())
}
