package recode

import "fmt"

// SystemInstruction is sent by providers that support a separate system turn.
const SystemInstruction = "You are a helpful code assistant. Provide code updates as plain text without markdown formatting."

// BuildPrompt combines source code and the requested change into one prompt.
func BuildPrompt(instruction, code string) string {
	return fmt.Sprintf(`Update the following code:

%s

according to the following suggestions: %s

Return only the updated code as plain text, not as a markdown block, with no explanations.`, code, instruction)
}
