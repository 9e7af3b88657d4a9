package buildorch

// CompileCommand is one entry of a compile_commands.json-shaped database,
// supplementing the build orchestrator with the original implementation's
// compile-command generation feature.
type CompileCommand struct {
	Directory string `json:"directory"`
	Command   string `json:"command"`
	File      string `json:"file"`
}

// GenerateCompileCommands derives a compile_commands.json-shaped slice for
// p by reusing its adapter's configure output: CMake and Meson both emit a
// compile_commands.json in their build directory as a side effect of
// configure, so this reads that file back; xmake has no equivalent and
// yields an empty slice.
func (o *Orchestrator) GenerateCompileCommands(p ProjectRecord) ([]CompileCommand, error) {
	switch p.BuildSystem {
	case CMakeSystem, MesonSystem:
		return readCompileCommandsJSON(p.BuildDir + "/compile_commands.json")
	default:
		return nil, nil
	}
}
