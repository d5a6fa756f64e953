// Package docs registers the OpenAPI description served under /swagger.
// Regenerate with: swag init -g cmd/marketplace/main.go
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
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/users/signup": {
            "post": {"tags": ["users"], "summary": "Create a client account",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/SignupRequest"}}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Validation failed"}, "409": {"description": "Email already registered"}}}
        },
        "/users/login": {
            "post": {"tags": ["users"], "summary": "Log in and open a session",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Invalid credentials"}}}
        },
        "/users/logout": {"post": {"tags": ["users"], "summary": "Close the current session", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/users/logout-all": {"post": {"tags": ["users"], "summary": "Close every session", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/users/refresh-jwt": {"get": {"tags": ["users"], "summary": "Rotate the current token", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/users/sessions": {"get": {"tags": ["users"], "summary": "List open sessions", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/users/{id}/ban": {"post": {"tags": ["users"], "summary": "Ban a user and revoke its sessions", "security": [{"BearerAuth": []}], "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Access denied"}}}},
        "/users/{id}/unban": {"post": {"tags": ["users"], "summary": "Lift a ban", "security": [{"BearerAuth": []}], "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/users/changeAccountType/{id}": {"post": {"tags": ["users"], "summary": "Change the account role", "security": [{"BearerAuth": []}], "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/cart": {
            "get": {"tags": ["cart"], "summary": "Current cart", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["cart"], "summary": "Empty the cart", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/cart/items": {"post": {"tags": ["cart"], "summary": "Add or remove units of an item", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "404": {"description": "Item not found"}}}},
        "/items": {"post": {"tags": ["items"], "summary": "Publish an item", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}}}},
        "/items/{id}": {"get": {"tags": ["items"], "summary": "Get an item", "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}}},
        "/items/{id}/restock": {"post": {"tags": ["items"], "summary": "Add stock to an owned item", "security": [{"BearerAuth": []}], "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/items/{id}/movements": {"get": {"tags": ["items"], "summary": "Stock history of an item", "security": [{"BearerAuth": []}], "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/coupons": {"post": {"tags": ["coupons"], "summary": "Create a coupon", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}, "409": {"description": "Code already exists"}}}},
        "/orders": {
            "get": {"tags": ["orders"], "summary": "List visible orders", "security": [{"BearerAuth": []}],
                "parameters": [{"in": "query", "name": "page", "type": "integer"}, {"in": "query", "name": "limit", "type": "integer"}],
                "responses": {"200": {"description": "OK"}}}
        },
        "/orders/checkout": {
            "post": {"tags": ["orders"], "summary": "Place an order from the cart", "security": [{"BearerAuth": []}],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/CheckoutRequest"}}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Validation failed"}, "409": {"description": "Insufficient stock"}}}
        },
        "/orders/{id}": {
            "get": {"tags": ["orders"], "summary": "Get an order", "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Access denied"}, "404": {"description": "Not found"}}}
        },
        "/orders/{id}/cancel": {
            "post": {"tags": ["orders"], "summary": "Cancel an order", "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Invalid transition"}}}
        },
        "/orders/{id}/status": {
            "patch": {"tags": ["orders"], "summary": "Move an order to the next status", "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/EditStatusRequest"}}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Invalid transition"}}}
        },
        "/orders/{id}/confirm": {
            "post": {"tags": ["orders"], "summary": "Confirm a pending order", "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Invalid transition"}}}
        },
        "/orders/{id}/shipped": {
            "post": {"tags": ["orders"], "summary": "Mark a confirmed order as shipped", "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Invalid transition"}}}
        }
    },
    "definitions": {
        "SignupRequest": {"type": "object", "required": ["name", "email", "password"],
            "properties": {"name": {"type": "string"}, "email": {"type": "string"}, "password": {"type": "string"}}},
        "LoginRequest": {"type": "object", "required": ["email", "password"],
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}, "device": {"type": "string"}}},
        "Address": {"type": "object", "required": ["street", "city", "country"],
            "properties": {"street": {"type": "string"}, "city": {"type": "string"}, "state": {"type": "string"}, "postal_code": {"type": "string"}, "country": {"type": "string"}}},
        "CheckoutRequest": {"type": "object", "required": ["payment_method", "contact_phone", "address"],
            "properties": {"payment_method": {"type": "string", "enum": ["card", "cash_on_delivery"]}, "contact_phone": {"type": "string"},
                "address": {"$ref": "#/definitions/Address"}, "coupon": {"type": "string"}}},
        "EditStatusRequest": {"type": "object", "required": ["status"],
            "properties": {"status": {"type": "string", "enum": ["confirmed", "shipped", "delivered", "cancelled"]}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Marketplace Orders API",
	Description:      "Order lifecycle and access control for a multi-vendor marketplace.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
