// Package apidocs holds the Swagger 2.0 document served under /swagger/.
// It mirrors the swag annotations on the HTTP handlers.
package apidocs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "predictd maintainers"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/predictions": {
            "post": {
                "description": "Runs one generation and returns the final output.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["predictions"],
                "summary": "Run a prediction",
                "parameters": [
                    {
                        "description": "Prediction input",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/types.PredictionRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.PredictionResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "415": {"description": "Unsupported Media Type", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/predictions/stream": {
            "post": {
                "description": "Streams NDJSON lines: one {\"token\"} per piece, then a final {\"done\":true}.",
                "consumes": ["application/json"],
                "produces": ["application/x-ndjson"],
                "tags": ["predictions"],
                "summary": "Stream a prediction",
                "parameters": [
                    {
                        "description": "Prediction input",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/types.PredictionRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StreamEvent"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/ws/predictions": {
            "get": {
                "description": "The client sends one PredictionRequest frame; the server answers with StreamEvent frames and closes after the final {\"done\":true}.",
                "tags": ["predictions"],
                "summary": "Stream a prediction over a websocket",
                "responses": {
                    "101": {"description": "Switching Protocols"}
                }
            }
        },
        "/schema": {
            "get": {
                "description": "Lists every input field with its type, bounds and default.",
                "produces": ["application/json"],
                "tags": ["meta"],
                "summary": "Input schema",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.SchemaResponse"}}
                }
            }
        },
        "/status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["meta"],
                "summary": "Predictor status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatusResponse"}}
                }
            }
        }
    },
    "definitions": {
        "types.PredictInput": {
            "type": "object",
            "properties": {
                "prompt": {"type": "string", "example": "[INST]Tell me about AI[/INST]"},
                "system_prompt": {"type": "string"},
                "max_new_tokens": {"type": "integer", "minimum": 1, "maximum": 4096, "example": 512},
                "temperature": {"type": "number", "minimum": 0, "maximum": 5, "example": 1},
                "top_p": {"type": "number", "minimum": 0.01, "maximum": 1, "example": 0.95},
                "eta_cutoff": {"type": "number", "minimum": 0.0003, "maximum": 0.004, "example": 0.002},
                "repetition_penalty": {"type": "number", "minimum": 0, "maximum": 5, "example": 1},
                "exponential_decay_start": {"type": "integer", "minimum": 0, "maximum": 4096, "example": 512},
                "exponential_decay_factor": {"type": "number", "minimum": 1, "maximum": 10, "example": 1},
                "skip_prompt": {"type": "boolean", "example": true},
                "random_seed": {"type": "integer", "example": 0}
            }
        },
        "types.PredictionRequest": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "input": {"$ref": "#/definitions/types.PredictInput"}
            }
        },
        "types.PredictionMetrics": {
            "type": "object",
            "properties": {
                "predict_time": {"type": "number", "example": 1.25},
                "pieces": {"type": "integer", "example": 87},
                "cached": {"type": "boolean"}
            }
        },
        "types.PredictionResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "status": {"type": "string", "example": "succeeded"},
                "output": {"type": "string"},
                "error": {"type": "string"},
                "metrics": {"$ref": "#/definitions/types.PredictionMetrics"}
            }
        },
        "types.StreamEvent": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "done": {"type": "boolean"},
                "output": {"type": "string"},
                "error": {"type": "string"},
                "metrics": {"$ref": "#/definitions/types.PredictionMetrics"}
            }
        },
        "types.SchemaField": {
            "type": "object",
            "properties": {
                "name": {"type": "string", "example": "temperature"},
                "type": {"type": "string", "example": "number"},
                "description": {"type": "string"},
                "minimum": {"type": "number"},
                "maximum": {"type": "number"},
                "default": {}
            }
        },
        "types.SchemaResponse": {
            "type": "object",
            "properties": {
                "variant": {"type": "string", "example": "sync"},
                "fields": {"type": "array", "items": {"$ref": "#/definitions/types.SchemaField"}}
            }
        },
        "types.Model": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "example": "llama-2-7b-chat.Q4_K_M.gguf"},
                "name": {"type": "string", "example": "llama-2-7b-chat"},
                "path": {"type": "string"},
                "quant": {"type": "string", "example": "Q4_K_M"},
                "family": {"type": "string", "example": "llama"},
                "size_bytes": {"type": "integer"}
            }
        },
        "types.SanityReport": {
            "type": "object",
            "properties": {
                "runtime_built": {"type": "boolean"},
                "model_found": {"type": "boolean"},
                "model_path": {"type": "string"},
                "error": {"type": "string"}
            }
        },
        "types.StatusResponse": {
            "type": "object",
            "properties": {
                "state": {"type": "string", "example": "ready"},
                "variant": {"type": "string", "example": "sync"},
                "model": {"$ref": "#/definitions/types.Model"},
                "last_error": {"type": "string"},
                "queue_len": {"type": "integer"},
                "inflight": {"type": "integer"},
                "max_queue_depth": {"type": "integer", "example": 32},
                "predictions_total": {"type": "integer"},
                "uptime_seconds": {"type": "integer"},
                "server_time_unix": {"type": "integer"},
                "sanity": {"$ref": "#/definitions/types.SanityReport"}
            }
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "invalid JSON body"},
                "code": {"type": "integer", "example": 400}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "predictd API",
	Description:      "HTTP API for single-model LLM text prediction.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
