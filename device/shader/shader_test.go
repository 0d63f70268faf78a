package shader_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/require"

	"github.com/oxy-softbody/softbody/device/shader"
)

const computeKernelSource = `
//@oxy:include indirect_draw
//@oxy:include metadata
//@oxy:include particle

//@oxy:group 0 0 storage_uniform globals metadata
//@oxy:group 0 1 storage_read_write particles array<particle>

@compute @workgroup_size(64)
fn update(@builtin(global_invocation_id) id: vec3<u32>) {
}
`

func writeTempShader(t *testing.T, name, source string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	return path
}

func TestNewShaderParsesComputeMetadata(t *testing.T) {
	path := writeTempShader(t, "update.wgsl", computeKernelSource)

	s := shader.NewShader("update", shader.ShaderTypeCompute, path)

	require.Equal(t, "update", s.Key())
	require.Equal(t, "update", s.EntryPoint())
	require.Equal(t, [3]uint32{64, 1, 1}, s.WorkgroupSize())
	require.Equal(t, shader.ShaderTypeCompute, s.ShaderType())

	descriptors := s.BindGroupLayoutDescriptors()
	require.Contains(t, descriptors, 0)
	entries := descriptors[0].Entries
	require.Len(t, entries, 2)
	require.Equal(t, wgpu.BufferBindingTypeUniform, entries[0].Buffer.Type)
	require.Equal(t, wgpu.BufferBindingTypeStorage, entries[1].Buffer.Type)

	require.Equal(t, "globals", s.BindGroupVarName(0, 0))
	require.Equal(t, "particles", s.BindGroupVarName(0, 1))

	binding, ok := s.BindGroupFromVarName(0, "particles")
	require.True(t, ok)
	require.Equal(t, 1, binding)
}

func TestNewShaderCollectsDeclarationsForProviderWiring(t *testing.T) {
	path := writeTempShader(t, "update.wgsl", computeKernelSource)
	s := shader.NewShader("update", shader.ShaderTypeCompute, path)

	decls := s.Declarations()
	require.Len(t, decls, 2)
	require.Equal(t, shader.AnnotationArgMetadata, decls[0].Args[2])
	require.Equal(t, shader.AnnotationArg("array<particle>"), decls[1].Args[2])
}

func TestNewShaderPanicsOnEmptySourcePath(t *testing.T) {
	require.Panics(t, func() {
		shader.NewShader("broken", shader.ShaderTypeCompute, "")
	})
}
