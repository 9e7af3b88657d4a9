package buildorch

import (
	"encoding/json"
	"os"
)

func readCompileCommandsJSON(path string) ([]CompileCommand, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var cmds []CompileCommand
	if err := json.Unmarshal(data, &cmds); err != nil {
		return nil, err
	}
	return cmds, nil
}
