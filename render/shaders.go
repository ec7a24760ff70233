package render

import (
	"fmt"
	"strings"
)

const quadVertexShader = `#version 330 core

layout(location = 0) in vec3 a_Position;
layout(location = 1) in vec4 a_Color;
layout(location = 2) in vec2 a_TexCoord;
layout(location = 3) in float a_TexIndex;
layout(location = 4) in float a_TilingFactor;

uniform mat4 u_ViewProjection;

out vec4 v_Color;
out vec2 v_TexCoord;
flat out float v_TexIndex;
out float v_TilingFactor;

void main()
{
	v_Color = a_Color;
	v_TexCoord = a_TexCoord;
	v_TexIndex = a_TexIndex;
	v_TilingFactor = a_TilingFactor;
	gl_Position = u_ViewProjection * vec4(a_Position, 1.0);
}
`

const quadFragmentShaderTemplate = `#version 330 core

layout(location = 0) out vec4 color;

in vec4 v_Color;
in vec2 v_TexCoord;
flat in float v_TexIndex;
in float v_TilingFactor;

uniform sampler2D u_Textures[%d];

void main()
{
	vec4 texColor = v_Color;
	switch (int(v_TexIndex))
	{
%s	}
	if (texColor.a == 0.0)
		discard;
	color = texColor;
}
`

// quadShaderSource generates the batch shader for the given number of texture
// slots. GLSL 3.30 cannot index sampler arrays dynamically, hence the switch.
func quadShaderSource(slots int) ShaderSource {
	var cases strings.Builder
	for i := 0; i < slots; i++ {
		fmt.Fprintf(&cases, "\t\tcase %d: texColor *= texture(u_Textures[%d], v_TexCoord * v_TilingFactor); break;\n", i, i)
	}
	return ShaderSource{
		Name:     "renderer2d_quad",
		Vertex:   quadVertexShader,
		Fragment: fmt.Sprintf(quadFragmentShaderTemplate, slots, cases.String()),
	}
}
