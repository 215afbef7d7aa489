// Package docs holds the Swagger document served at /swagger. It follows the swag
// output layout and is kept in step with the handler annotations; the route table
// test in internal/handler fails when a route is missing here.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support"
        },
        "license": {
            "name": "Apache 2.0",
            "url": "http://www.apache.org/licenses/LICENSE-2.0.html"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/quiz": {
            "post": {
                "description": "Extracts the text of an uploaded PDF, DOCX, XLSX, Markdown or plain text document and asks the model for a quiz",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["quiz"],
                "summary": "Generate a quiz from a document",
                "parameters": [
                    {"type": "file", "description": "Document", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.QuizResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "413": {"description": "Request Entity Too Large", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/quiz/ask": {
            "post": {
                "description": "Answers a question using the supplied quiz as the only context",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["quiz"],
                "summary": "Ask a question about a quiz",
                "parameters": [
                    {"description": "Question and quiz", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.AskRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.AskResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/sessions": {
            "post": {
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Start a session",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.SessionResponse"}}
                }
            }
        },
        "/sessions/{id}": {
            "get": {
                "description": "Returns the phase, quiz and transcript of a session",
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Get session state",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.SessionSnapshot"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/middleware.ValidationErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            },
            "delete": {
                "tags": ["sessions"],
                "summary": "End a session",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/sessions/{id}/document": {
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Generate the session quiz from a document",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true},
                    {"type": "file", "description": "Document", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.SessionQuizResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/sessions/{id}/messages": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Ask a follow-up question in a session",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true},
                    {"description": "Question", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.SessionMessageRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.SessionReplyResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/sessions/{id}/quiz/download": {
            "get": {
                "produces": ["application/msword"],
                "tags": ["sessions"],
                "summary": "Download the session quiz",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/sessions/{id}/reveal": {
            "get": {
                "description": "Server-Sent Events, one \"chunk\" event per revealed rune. The stream ends when the reveal completes or the session ends.",
                "produces": ["text/event-stream"],
                "tags": ["sessions"],
                "summary": "Stream the reveal of the latest reply",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/presenter.Chunk"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/sessions/{id}/reveal/skip": {
            "post": {
                "tags": ["sessions"],
                "summary": "Show the latest reply in full immediately",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.Message": {
            "type": "object",
            "properties": {
                "created_at": {"type": "string"},
                "role": {"type": "string"},
                "text": {"type": "string"}
            }
        },
        "domain.SessionSnapshot": {
            "type": "object",
            "properties": {
                "created_at": {"type": "string"},
                "has_quiz": {"type": "boolean"},
                "id": {"type": "string"},
                "last_active_at": {"type": "string"},
                "phase": {"type": "string"},
                "quiz": {"type": "array", "items": {"type": "string"}},
                "reveal_in_progress": {"type": "boolean"},
                "transcript": {"type": "array", "items": {"$ref": "#/definitions/domain.Message"}}
            }
        },
        "domain.ValidationError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "field": {"type": "string"},
                "message": {"type": "string"},
                "value": {}
            }
        },
        "dto.AskRequest": {
            "description": "Question about a previously generated quiz",
            "type": "object",
            "properties": {
                "question": {"type": "string", "example": "What is the answer to question 1?"},
                "quiz": {"type": "array", "items": {"type": "string"}}
            }
        },
        "dto.AskResponse": {
            "type": "object",
            "properties": {
                "reply": {"type": "string"}
            }
        },
        "dto.QuizResponse": {
            "description": "Generated quiz, one question or answer line per entry",
            "type": "object",
            "properties": {
                "quiz": {"type": "array", "items": {"type": "string"}}
            }
        },
        "dto.SessionMessageRequest": {
            "type": "object",
            "properties": {
                "question": {"type": "string", "example": "Why is Paris the answer?"}
            }
        },
        "dto.SessionQuizResponse": {
            "type": "object",
            "properties": {
                "quiz": {"type": "array", "items": {"type": "string"}},
                "session_id": {"type": "string"}
            }
        },
        "dto.SessionReplyResponse": {
            "type": "object",
            "properties": {
                "reply": {"type": "string"},
                "session_id": {"type": "string"}
            }
        },
        "dto.SessionResponse": {
            "type": "object",
            "properties": {
                "session_id": {"type": "string"}
            }
        },
        "middleware.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "details": {"type": "object", "additionalProperties": true},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "middleware.ValidationErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "errors": {"type": "array", "items": {"$ref": "#/definitions/domain.ValidationError"}},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "presenter.Chunk": {
            "type": "object",
            "properties": {
                "done": {"type": "boolean"},
                "text": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8090",
	BasePath:         "/api",
	Schemes:          []string{"http", "https"},
	Title:            "Doc Quiz API",
	Description:      "Turns uploaded documents into quizzes and answers follow-up questions about them.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
