package predictor

import "strings"

// InstructionClose marks the end of an instruction block. Everything the
// model produces after the last marker is the response.
const InstructionClose = "[/INST]"

// templateIndent prefixes every line after the first in the instruction
// template. Hosted checkpoints were prompted with this exact layout.
const templateIndent = "        "

// FormatPrompt wraps the system prompt and the user prompt into the
// instruction template the chat model was trained on.
func FormatPrompt(systemPrompt, prompt string) string {
	var b strings.Builder
	b.Grow(len(systemPrompt) + len(prompt) + 64)
	b.WriteString("[INST] <<SYS>>\n")
	b.WriteString(templateIndent)
	b.WriteString(systemPrompt)
	b.WriteString("\n")
	b.WriteString(templateIndent)
	b.WriteString("<</SYS>> ")
	b.WriteString(InstructionClose)
	b.WriteString("\n")
	b.WriteString(templateIndent)
	b.WriteString(prompt)
	return b.String()
}

// ExtractResponse returns the whitespace-trimmed text after the last
// InstructionClose marker. Text without a marker is returned trimmed.
func ExtractResponse(output string) string {
	if i := strings.LastIndex(output, InstructionClose); i >= 0 {
		output = output[i+len(InstructionClose):]
	}
	return strings.TrimSpace(output)
}
