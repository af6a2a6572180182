// Package docs registers the portal's OpenAPI description with swag so
// echo-swagger can serve it under /swagger/.
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
        "/health": {
            "get": {"tags": ["health"], "summary": "Liveness probe", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}
        },
        "/health/ready": {
            "get": {"tags": ["health"], "summary": "Readiness probe", "produces": ["application/json"], "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}}
        },
        "/session": {
            "get": {"tags": ["session"], "summary": "Current session", "produces": ["application/json"], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Session"}}}}
        },
        "/notifications": {
            "get": {"tags": ["session"], "summary": "Pending notifications", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}
        },
        "/login": {
            "get": {"tags": ["pages"], "summary": "Login page", "produces": ["application/json"], "responses": {"200": {"description": "OK"}, "303": {"description": "See Other"}}}
        },
        "/register": {
            "get": {"tags": ["pages"], "summary": "Register page", "produces": ["application/json"], "responses": {"200": {"description": "OK"}, "303": {"description": "See Other"}}}
        },
        "/rate-limit": {
            "get": {"tags": ["pages"], "summary": "Rate limit page", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}
        },
        "/auth/login": {
            "post": {
                "tags": ["auth"], "summary": "Login", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.loginRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/service.Outcome"}}, "303": {"description": "See Other"}, "400": {"description": "Bad Request"}, "422": {"description": "Unprocessable Entity"}}
            }
        },
        "/auth/register": {
            "post": {
                "tags": ["auth"], "summary": "Register a new user", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.registerRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/service.Outcome"}}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}
            }
        },
        "/auth/logout": {
            "post": {"tags": ["auth"], "summary": "Logout", "produces": ["application/json"], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/service.Outcome"}}}}
        },
        "/profile": {
            "get": {"tags": ["profile"], "summary": "Profile", "produces": ["application/json"], "responses": {"200": {"description": "OK"}, "202": {"description": "Loading"}, "303": {"description": "See Other"}}}
        },
        "/profile/activity": {
            "get": {"tags": ["profile"], "summary": "Recent activity", "produces": ["application/json"], "responses": {"200": {"description": "OK"}, "303": {"description": "See Other"}}}
        },
        "/profile/password": {
            "post": {"tags": ["profile"], "summary": "Update password", "consumes": ["application/json"], "produces": ["application/json"], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        },
        "/profile/secret-key": {
            "post": {"tags": ["profile"], "summary": "Reveal secret key", "consumes": ["application/json"], "produces": ["application/json"], "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}
        },
        "/images": {
            "get": {"tags": ["images"], "summary": "List images", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["images"], "summary": "Upload images", "consumes": ["multipart/form-data"], "produces": ["application/json"], "parameters": [{"in": "formData", "name": "files", "type": "file", "required": true}], "responses": {"201": {"description": "Created"}}}
        },
        "/images/{id}": {
            "delete": {"tags": ["images"], "summary": "Delete image", "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}], "responses": {"204": {"description": "No Content"}}}
        },
        "/images/{id}/resize": {
            "post": {"tags": ["images"], "summary": "Resize image", "consumes": ["application/json"], "produces": ["application/json"], "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}], "responses": {"200": {"description": "OK"}, "422": {"description": "Unprocessable Entity"}}}
        },
        "/images/deleted": {
            "get": {"tags": ["images"], "summary": "List deleted images", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}
        },
        "/images/deleted/{id}": {
            "delete": {"tags": ["images"], "summary": "Purge image", "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}], "responses": {"204": {"description": "No Content"}}}
        },
        "/images/deleted/{id}/recover": {
            "post": {"tags": ["images"], "summary": "Recover image", "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}], "responses": {"204": {"description": "No Content"}}}
        },
        "/videos": {
            "get": {"tags": ["videos"], "summary": "List videos", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["videos"], "summary": "Upload videos", "consumes": ["multipart/form-data"], "produces": ["application/json"], "parameters": [{"in": "formData", "name": "files", "type": "file", "required": true}], "responses": {"201": {"description": "Created"}}}
        },
        "/videos/{id}": {
            "delete": {"tags": ["videos"], "summary": "Delete video", "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}], "responses": {"204": {"description": "No Content"}}}
        },
        "/billing/checkout": {
            "post": {"tags": ["billing"], "summary": "Start checkout", "produces": ["application/json"], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}
        }
    },
    "definitions": {
        "domain.UserRecord": {
            "type": "object",
            "properties": {
                "uuid": {"type": "string"},
                "username": {"type": "string"},
                "email": {"type": "string"},
                "public_key": {"type": "string"},
                "account_type": {"type": "string"},
                "get_api_calls": {"type": "integer"},
                "post_api_calls": {"type": "integer"},
                "edit_api_calls": {"type": "integer"},
                "created_at": {"type": "string"}
            }
        },
        "domain.Session": {
            "type": "object",
            "properties": {
                "user": {"$ref": "#/definitions/domain.UserRecord"},
                "is_logged_in": {"type": "boolean"},
                "loading": {"type": "boolean"}
            }
        },
        "service.Outcome": {
            "type": "object",
            "properties": {
                "state": {"type": "string"},
                "session": {"$ref": "#/definitions/domain.Session"},
                "redirect": {"type": "string"}
            }
        },
        "handler.loginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        },
        "handler.registerRequest": {
            "type": "object",
            "required": ["username", "email", "password"],
            "properties": {"username": {"type": "string"}, "email": {"type": "string"}, "password": {"type": "string"}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "MediaVault Portal API",
	Description:      "Session-aware portal in front of the MediaVault media API.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
