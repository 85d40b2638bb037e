package shader

// ModelProgram is the lit LOD model program.
const ModelProgram = "model"

const modelVertexShader = `#version 410 core
layout(location = 0) in vec3 aPosition;
layout(location = 1) in vec3 aNormal;

uniform mat4 uProjection;
uniform mat4 uModelview;

out vec3 vNormal;

void main() {
    vNormal = mat3(uModelview) * aNormal;
    gl_Position = uProjection * uModelview * vec4(aPosition, 1.0);
}
`

const modelFragmentShader = `#version 410 core
in vec3 vNormal;

uniform vec4 uAmbientColor;
uniform vec4 uMainColor;
uniform vec3 uMainDir;

out vec4 FragColor;

void main() {
    vec3 n = normalize(vNormal);
    float diffuse = max(dot(n, -normalize(uMainDir)), 0.0);
    vec3 color = uAmbientColor.rgb + uMainColor.rgb * diffuse;
    FragColor = vec4(clamp(color, 0.0, 1.0), 1.0);
}
`
