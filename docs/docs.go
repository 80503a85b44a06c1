// Package docs registers the swagger document served under /swagger/.
// Regenerate with: swag init -g pkg/web/web.go
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
        "/": {
            "get": {"produces": ["application/json"], "summary": "Home",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/web.homePage"}}}}
        },
        "/accept-cookies": {
            "post": {"summary": "Accept cookies", "responses": {"200": {"description": "OK"}}}
        },
        "/healthz": {
            "get": {"summary": "Health check",
                "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}}
        },
        "/login": {
            "get": {"produces": ["application/json"], "summary": "Login page",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/web.flashPage"}}}},
            "post": {"consumes": ["application/json", "application/x-www-form-urlencoded"], "summary": "Login",
                "parameters": [{"description": "Credentials", "name": "creds", "in": "body", "required": true,
                    "schema": {"$ref": "#/definitions/web.credentials"}}],
                "responses": {"303": {"description": "See Other"}}}
        },
        "/logout": {
            "post": {"summary": "Logout", "responses": {"303": {"description": "See Other"}}}
        },
        "/register": {
            "get": {"produces": ["application/json"], "summary": "Register page",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/web.flashPage"}}}},
            "post": {"consumes": ["application/json", "application/x-www-form-urlencoded"], "summary": "Register",
                "parameters": [{"description": "Credentials", "name": "creds", "in": "body", "required": true,
                    "schema": {"$ref": "#/definitions/web.credentials"}}],
                "responses": {"303": {"description": "See Other"}}}
        },
        "/orders": {
            "get": {"produces": ["application/json"], "summary": "List orders",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/web.ordersPage"}}}},
            "post": {"consumes": ["application/json", "application/x-www-form-urlencoded"], "summary": "Create order",
                "description": "Line items are a flat list of name, quantity, price triples.",
                "parameters": [{"description": "Order", "name": "order", "in": "body", "required": true,
                    "schema": {"$ref": "#/definitions/order.CreateInput"}}],
                "responses": {"303": {"description": "See Other"}, "500": {"description": "Internal Server Error"}}}
        },
        "/orders/new": {
            "get": {"produces": ["application/json"], "summary": "Order form",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/web.orderForm"}}}}
        },
        "/orders/{id}": {
            "get": {"produces": ["application/json"], "summary": "Get order",
                "parameters": [{"type": "integer", "description": "Order ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/order.Order"}},
                    "404": {"description": "Not Found"}}},
            "put": {"consumes": ["application/json", "application/x-www-form-urlencoded"], "summary": "Update order status",
                "parameters": [{"type": "integer", "description": "Order ID", "name": "id", "in": "path", "required": true},
                    {"description": "New status", "name": "status", "in": "body", "required": true,
                        "schema": {"$ref": "#/definitions/web.statusRequest"}}],
                "responses": {"303": {"description": "See Other"}, "400": {"description": "Bad Request"},
                    "404": {"description": "Not Found"}}},
            "delete": {"summary": "Delete order",
                "parameters": [{"type": "integer", "description": "Order ID", "name": "id", "in": "path", "required": true}],
                "responses": {"303": {"description": "See Other"}, "404": {"description": "Not Found"}}}
        },
        "/password-generator": {
            "get": {"produces": ["application/json"], "summary": "Generate password",
                "parameters": [{"type": "integer", "description": "Number of words (1-32)", "name": "words", "in": "query"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/web.passwordResponse"}},
                    "400": {"description": "Bad Request"}}}
        },
        "/password-generator/dictionary": {
            "get": {"produces": ["text/plain"], "summary": "Password dictionary",
                "responses": {"200": {"description": "OK", "schema": {"type": "string"}}}}
        },
        "/users": {
            "get": {"produces": ["application/json"], "summary": "List users",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/web.usersPage"}}}}
        },
        "/users/delete": {
            "post": {"consumes": ["application/x-www-form-urlencoded"], "summary": "Delete user",
                "parameters": [{"type": "string", "description": "Account to delete", "name": "username", "in": "formData", "required": true}],
                "responses": {"303": {"description": "See Other"}, "403": {"description": "Forbidden"},
                    "404": {"description": "Not Found"}}}
        }
    },
    "definitions": {
        "order.CreateInput": {"type": "object", "properties": {
            "client": {"type": "string"}, "date": {"type": "string"}, "status": {"type": "string"},
            "lineItems": {"type": "array", "items": {"type": "string"}}}},
        "order.LineItem": {"type": "object", "properties": {
            "name": {"type": "string"}, "quantity": {"type": "integer"}, "unitPrice": {"type": "string"}}},
        "order.Order": {"type": "object", "properties": {
            "id": {"type": "integer"}, "client": {"type": "string"}, "date": {"type": "string"},
            "status": {"type": "string", "enum": ["Pending", "Processing", "Shipped", "Delivered", "Cancelled"]},
            "lineItems": {"type": "array", "items": {"$ref": "#/definitions/order.LineItem"}},
            "total": {"type": "string"}}},
        "session.Flash": {"type": "object", "properties": {
            "error": {"type": "string"}, "message": {"type": "string"}}},
        "user.User": {"type": "object", "properties": {
            "username": {"type": "string"}, "acceptedCookies": {"type": "boolean"}}},
        "web.credentials": {"type": "object", "properties": {
            "username": {"type": "string"}, "password": {"type": "string"}}},
        "web.flashPage": {"type": "object", "properties": {"flash": {"$ref": "#/definitions/session.Flash"}}},
        "web.homePage": {"type": "object", "properties": {
            "user": {"type": "string"}, "showCookieBanner": {"type": "boolean"},
            "flash": {"$ref": "#/definitions/session.Flash"}}},
        "web.orderForm": {"type": "object", "properties": {
            "statuses": {"type": "array", "items": {"type": "string"}},
            "flash": {"$ref": "#/definitions/session.Flash"}}},
        "web.ordersPage": {"type": "object", "properties": {
            "orders": {"type": "array", "items": {"$ref": "#/definitions/order.Order"}},
            "flash": {"$ref": "#/definitions/session.Flash"}}},
        "web.passwordResponse": {"type": "object", "properties": {
            "password": {"type": "string"}, "words": {"type": "integer"}}},
        "web.statusRequest": {"type": "object", "properties": {"status": {"type": "string"}}},
        "web.usersPage": {"type": "object", "properties": {
            "current": {"type": "string"}, "isAdmin": {"type": "boolean"},
            "users": {"type": "array", "items": {"$ref": "#/definitions/user.User"}},
            "flash": {"$ref": "#/definitions/session.Flash"}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8443",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Tienda API",
	Description:      "Storefront orders, accounts and password generator",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
