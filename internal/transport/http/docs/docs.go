// Package docs registers the OpenAPI description of the control API.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{.Description}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/login": {
            "post": {
                "summary": "Log in to the order API",
                "consumes": ["application/json"],
                "parameters": [
                    {
                        "in": "body",
                        "name": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/login.Request"}
                    }
                ],
                "responses": {
                    "204": {"description": "Logged in"},
                    "400": {"description": "Invalid request"},
                    "401": {"description": "Invalid credentials"},
                    "502": {"description": "Order API unreachable"}
                }
            }
        },
        "/api/logout": {
            "post": {
                "summary": "Stop polling and forget the session token",
                "responses": {"204": {"description": "Logged out"}}
            }
        },
        "/api/start": {
            "post": {
                "summary": "Start polling for orders",
                "responses": {
                    "204": {"description": "Polling"},
                    "401": {"description": "Login required"}
                }
            }
        },
        "/api/stop": {
            "post": {
                "summary": "Stop polling for orders",
                "responses": {"204": {"description": "Stopped"}}
            }
        },
        "/api/status": {
            "get": {
                "summary": "Current poller state",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/poller.Status"}}
                }
            }
        },
        "/api/jobs": {
            "get": {
                "summary": "Most recent print attempts",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "query", "name": "limit", "type": "integer", "description": "Maximum number of jobs"}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/printjob.Job"}}
                    },
                    "400": {"description": "Invalid limit"}
                }
            }
        }
    },
    "definitions": {
        "login.Request": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "printsvc.TickResult": {
            "type": "object",
            "properties": {
                "fetched": {"type": "integer"},
                "printed": {"type": "integer"},
                "failed": {"type": "integer"}
            }
        },
        "poller.Status": {
            "type": "object",
            "properties": {
                "state": {"type": "string", "enum": ["stopped", "running"]},
                "authenticated": {"type": "boolean"},
                "interval": {"type": "string"},
                "last_tick": {"type": "string", "format": "date-time"},
                "last_result": {"$ref": "#/definitions/printsvc.TickResult"},
                "last_error": {"type": "string"}
            }
        },
        "printjob.Job": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "format": "uuid"},
                "tick_id": {"type": "string", "format": "uuid"},
                "order_id": {"type": "string"},
                "order_number": {"type": "string"},
                "status": {"type": "string", "enum": ["printed", "failed"]},
                "documents": {"type": "integer"},
                "acknowledged": {"type": "boolean"},
                "error": {"type": "string"},
                "created_at": {"type": "string", "format": "date-time"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Print agent control API",
	Description:      "Operator controls for the receipt print agent.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
