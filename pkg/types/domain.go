package types

// Model describes the quantized model weights on disk.
type Model struct {
	// Stable identifier for the model (file name).
	// example: llama-2-7b-chat.Q4_K_M.gguf
	ID string `json:"id" example:"llama-2-7b-chat.Q4_K_M.gguf"`
	// Human-friendly name.
	// example: llama-2-7b-chat
	Name string `json:"name" example:"llama-2-7b-chat"`
	// Absolute path to the model file on disk.
	// example: /models/llama-2-7b-chat.Q4_K_M.gguf
	Path string `json:"path" example:"/models/llama-2-7b-chat.Q4_K_M.gguf"`
	// Quantization level or variant string.
	// example: Q4_K_M
	Quant string `json:"quant,omitempty" example:"Q4_K_M"`
	// Optional family (e.g., llama, mistral, phi).
	// example: llama
	Family string `json:"family,omitempty" example:"llama"`
	// File size in bytes.
	// example: 4081004224
	SizeBytes int64 `json:"size_bytes,omitempty" example:"4081004224"`
}
