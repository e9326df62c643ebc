// Package docs registers the OpenAPI document served under /swagger.
// Regenerate with: swag init --v3.1 -g cmd/server/main.go -o docs
package docs

import "github.com/swaggo/swag/v2"

const docTemplate = `{
    "openapi": "3.1.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{escape .Description}}",
        "version": "{{.Version}}"
    },
    "servers": [
        {"url": "//{{.Host}}{{.BasePath}}"}
    ],
    "security": [{"BearerAuth": []}],
    "paths": {
        "/invoices": {
            "get":  {"tags": ["invoices"], "summary": "List invoices", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["invoices"], "summary": "Create an invoice", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}}
        },
        "/invoices/{id}": {
            "get": {"tags": ["invoices"], "summary": "Get an invoice with payments and ledger", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/invoices/{id}/cancel": {
            "post": {"tags": ["invoices"], "summary": "Cancel an invoice", "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}, "422": {"description": "Unprocessable Entity"}}}
        },
        "/invoices/{id}/pay": {
            "post": {"tags": ["invoices"], "summary": "Record a payment", "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}, "422": {"description": "Unprocessable Entity"}}}
        },
        "/payments/{id}": {
            "get": {"tags": ["payments"], "summary": "Get a payment", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/payments/{id}/cancel": {
            "post": {"tags": ["payments"], "summary": "Cancel a payment", "responses": {"200": {"description": "OK"}, "422": {"description": "Unprocessable Entity"}}}
        },
        "/payment-plans": {
            "get":  {"tags": ["payment-plans"], "summary": "List payment plans", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["payment-plans"], "summary": "Create a payment plan", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}}
        },
        "/payment-plans/{id}": {
            "get": {"tags": ["payment-plans"], "summary": "Get a payment plan", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "put": {"tags": ["payment-plans"], "summary": "Update a payment plan", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/payment-plans/{id}/activate": {
            "post": {"tags": ["payment-plans"], "summary": "Activate a payment plan", "responses": {"200": {"description": "OK"}}}
        },
        "/payment-plans/{id}/deactivate": {
            "post": {"tags": ["payment-plans"], "summary": "Deactivate a payment plan", "responses": {"200": {"description": "OK"}}}
        },
        "/payment-plans/{id}/generate": {
            "post": {"tags": ["payment-plans"], "summary": "Generate plan invoices for students", "responses": {"201": {"description": "Created"}, "422": {"description": "Unprocessable Entity"}}}
        },
        "/financial/defaulters": {
            "get": {"tags": ["reports"], "summary": "List defaulters", "responses": {"200": {"description": "OK"}}}
        },
        "/financial/defaulters/export": {
            "post": {"tags": ["reports"], "summary": "Export defaulters as CSV", "responses": {"201": {"description": "Created"}, "503": {"description": "Service Unavailable"}}}
        },
        "/financial/summary": {
            "get": {"tags": ["reports"], "summary": "Revenue summary for a period", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        }
    },
    "components": {
        "securitySchemes": {
            "BearerAuth": {
                "type": "apiKey",
                "name": "Authorization",
                "in": "header",
                "description": "Bearer token authentication. Format: \"Bearer {token}\""
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Synexa SIS Finance API",
	Description:      "Faturação de propinas, pagamentos e relatórios financeiros.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
