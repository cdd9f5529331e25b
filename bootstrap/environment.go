package bootstrap

// Environment describes the host process environment a Bootstrap is
// resolved against.
type Environment struct {
	// WorkDir is the project root. All relative config paths resolve
	// against it. Must be absolute.
	WorkDir string
	// HostEnv is a snapshot of environment variables (e.g. HOME, PATH).
	//
	// It is the base environment for commands the bootstrap constructs; the
	// computed [EnvSet] is layered on top of it and wins on conflicts. If
	// HostEnv is nil, an empty environment is used.
	HostEnv map[string]string
}
