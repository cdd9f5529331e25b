package image

import (
	"fmt"
	"strings"
	"text/template"
)

// dockerfileTemplate renders the bootstrap sequence as a Dockerfile: base
// image, the baked env set, verbatim tree copy, frozen dependency sync, and
// the entrypoint hand-off.
const dockerfileTemplate = `FROM {{.BaseImage}}

{{range .Env}}ENV {{.}}
{{end}}
WORKDIR {{.AppDir}}

COPY . {{.AppDir}}

RUN {{.SyncCommand}}

ENTRYPOINT [{{.EntrypointJSON}}]
`

type dockerfileData struct {
	BaseImage      string
	AppDir         string
	Env            []string
	SyncCommand    string
	EntrypointJSON string
}

// RenderDockerfile renders spec as a Dockerfile. Output is deterministic
// for a fixed spec (env entries are already sorted by the caller).
func RenderDockerfile(spec *Spec) (string, error) {
	err := spec.Validate()
	if err != nil {
		return "", err
	}

	tmpl, err := template.New("dockerfile").Parse(dockerfileTemplate)
	if err != nil {
		return "", fmt.Errorf("image: parsing dockerfile template: %w", err)
	}

	data := dockerfileData{
		BaseImage:      spec.BaseImage,
		AppDir:         spec.AppDir,
		Env:            spec.Env,
		SyncCommand:    strings.Join(spec.SyncArgv, " "),
		EntrypointJSON: fmt.Sprintf("%q", spec.Entrypoint),
	}

	var sb strings.Builder

	err = tmpl.Execute(&sb, data)
	if err != nil {
		return "", fmt.Errorf("image: rendering dockerfile: %w", err)
	}

	return sb.String(), nil
}
