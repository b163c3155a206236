// Package docs registers the OpenAPI document served under /docs.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/auth/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Create an account",
                "parameters": [
                    {"description": "Account", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/types.APIResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/types.APIResponse"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Exchange credentials for a bearer token",
                "parameters": [
                    {"description": "Credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.APIResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/types.APIResponse"}}
                }
            }
        },
        "/projects": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["projects"],
                "summary": "List projects visible to the caller",
                "parameters": [
                    {"type": "string", "description": "Organization filter", "name": "organizationId", "in": "query"},
                    {"type": "integer", "description": "Page (1-based)", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Page size (max 100)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.APIResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["projects"],
                "summary": "Create a project",
                "parameters": [
                    {"description": "Project", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.ProjectCreateRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/types.APIResponse"}}
                }
            }
        },
        "/projects/{projectID}/requirements": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["requirements"],
                "summary": "Generate a new requirement snapshot from the project's text inputs",
                "parameters": [
                    {"type": "string", "description": "Project ID", "name": "projectID", "in": "path", "required": true},
                    {"type": "boolean", "description": "Queue the generation instead of waiting", "name": "async", "in": "query"},
                    {"description": "Options", "name": "body", "in": "body", "schema": {"$ref": "#/definitions/types.GenerateRequirementsRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/types.APIResponse"}},
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/types.APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.APIResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/types.APIResponse"}}
                }
            }
        },
        "/projects/{projectID}/estimates": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["estimates"],
                "summary": "Generate a new estimate from a requirement snapshot",
                "parameters": [
                    {"type": "string", "description": "Project ID", "name": "projectID", "in": "path", "required": true},
                    {"type": "boolean", "description": "Queue the generation instead of waiting", "name": "async", "in": "query"},
                    {"description": "Upstream snapshot and instruction", "name": "body", "in": "body", "schema": {"$ref": "#/definitions/types.GenerateFromUpstreamRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/types.APIResponse"}},
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/types.APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.APIResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.APIResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/types.APIResponse"}}
                }
            }
        },
        "/projects/{projectID}/tech-stacks": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["tech-stacks"],
                "summary": "Recommend a tech stack from a requirement snapshot",
                "parameters": [
                    {"type": "string", "description": "Project ID", "name": "projectID", "in": "path", "required": true},
                    {"type": "boolean", "description": "Queue the generation instead of waiting", "name": "async", "in": "query"},
                    {"description": "Upstream snapshot and instruction", "name": "body", "in": "body", "schema": {"$ref": "#/definitions/types.GenerateFromUpstreamRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/types.APIResponse"}},
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/types.APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.APIResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.APIResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/types.APIResponse"}}
                }
            }
        },
        "/projects/{projectID}/user-flows": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["user-flows"],
                "summary": "Generate user flows from a requirement snapshot",
                "parameters": [
                    {"type": "string", "description": "Project ID", "name": "projectID", "in": "path", "required": true},
                    {"type": "boolean", "description": "Queue the generation instead of waiting", "name": "async", "in": "query"},
                    {"description": "Upstream snapshot and instruction", "name": "body", "in": "body", "schema": {"$ref": "#/definitions/types.GenerateFromUpstreamRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/types.APIResponse"}},
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/types.APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.APIResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.APIResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/types.APIResponse"}}
                }
            }
        },
        "/projects/{projectID}/wireframes": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["wireframes"],
                "summary": "Generate wireframes from a user flow snapshot",
                "parameters": [
                    {"type": "string", "description": "Project ID", "name": "projectID", "in": "path", "required": true},
                    {"type": "boolean", "description": "Queue the generation instead of waiting", "name": "async", "in": "query"},
                    {"description": "Upstream snapshot and instruction", "name": "body", "in": "body", "schema": {"$ref": "#/definitions/types.GenerateFromUpstreamRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/types.APIResponse"}},
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/types.APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.APIResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.APIResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/types.APIResponse"}}
                }
            }
        },
        "/projects/{projectID}/estimates/{id}/sections/{section}": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["estimates"],
                "summary": "Regenerate one section of an estimate in place",
                "parameters": [
                    {"type": "string", "description": "Project ID", "name": "projectID", "in": "path", "required": true},
                    {"type": "string", "description": "Estimate ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "timeline, cost, assumptions or line_items", "name": "section", "in": "path", "required": true},
                    {"description": "Options", "name": "body", "in": "body", "schema": {"$ref": "#/definitions/types.RegenerateSectionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.APIResponse"}}
                }
            }
        }
    },
    "definitions": {
        "types.APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "details": {"type": "object", "additionalProperties": true}
            }
        },
        "types.APIResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "data": {},
                "error": {"$ref": "#/definitions/types.APIError"},
                "meta": {"type": "object", "additionalProperties": true}
            }
        },
        "types.RegisterRequest": {
            "type": "object",
            "required": ["email", "name", "password"],
            "properties": {
                "email": {"type": "string"},
                "name": {"type": "string"},
                "password": {"type": "string", "minLength": 8}
            }
        },
        "types.LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "organizationId": {"type": "string"}
            }
        },
        "types.ProjectCreateRequest": {
            "type": "object",
            "required": ["name", "organizationId"],
            "properties": {
                "organizationId": {"type": "string"},
                "name": {"type": "string", "maxLength": 200},
                "description": {"type": "string"},
                "currency": {"type": "string"}
            }
        },
        "types.GenerateRequirementsRequest": {
            "type": "object",
            "properties": {
                "inputIds": {"type": "array", "items": {"type": "string"}},
                "instruction": {"type": "string", "maxLength": 4000}
            }
        },
        "types.GenerateFromUpstreamRequest": {
            "type": "object",
            "properties": {
                "upstreamId": {"type": "string", "format": "uuid"},
                "instruction": {"type": "string", "maxLength": 4000}
            }
        },
        "types.RegenerateSectionRequest": {
            "type": "object",
            "properties": {
                "instruction": {"type": "string", "maxLength": 4000}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "ScopeForge API",
	Description:      "Project scoping engine: requirements, estimates, tech stacks, user flows and wireframes generated from client inputs.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
