// Package docs registers the OpenAPI document served by gin-swagger.
// Regenerate with: swag init -g cmd/server/main.go -o docs
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
        "/orders": {
            "post": {
                "description": "Creates a gateway order for the amount (whole rupees). The returned amount is in paise, ready for the checkout widget.\nSupports idempotency via the Idempotency-Key header (same key → same order).",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Orders"],
                "summary": "Create a payment order",
                "operationId": "createOrder",
                "parameters": [
                    {"type": "string", "example": "checkout-7a8d9f4c", "description": "Idempotency key for safe retries", "name": "Idempotency-Key", "in": "header"},
                    {"description": "Order payload", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CreateOrderRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/payments.Order"}, "headers": {"Idempotency-Replayed": {"type": "string", "description": "true when served from a stored response"}}},
                    "400": {"description": "Invalid amount", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "409": {"description": "Idempotency-Key already used for a different amount", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "502": {"description": "Gateway error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "503": {"description": "Gateway not configured", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/donations": {
            "get": {
                "security": [{"AdminToken": []}],
                "description": "Returns recorded donations newest first. Requires the admin bearer token; answers 404 when no token is configured.",
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "List donations (admin)",
                "operationId": "listDonations",
                "parameters": [
                    {"type": "string", "description": "Bearer admin token", "name": "Authorization", "in": "header", "required": true},
                    {"minimum": 1, "type": "integer", "default": 1, "description": "Page number", "name": "page", "in": "query"},
                    {"maximum": 100, "minimum": 1, "type": "integer", "default": 20, "description": "Items per page", "name": "page_size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ListDonationsResponse"}},
                    "401": {"description": "Missing or wrong token", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Listing disabled", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "post": {
                "description": "Verifies the gateway signature and the order amount, records the donation exactly once, then emails the receipt.\nRe-submitting the same paymentId with the same details returns the recorded donation.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Donations"],
                "summary": "Complete a donation",
                "operationId": "completeDonation",
                "parameters": [
                    {"description": "Completion payload", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CompleteDonationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.DonationResponse"}},
                    "400": {"description": "Invalid input, amount or signature, or amount differs from the order", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "409": {"description": "paymentId already recorded with different details", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Donation not recorded", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "502": {"description": "Order lookup failed", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "503": {"description": "Gateway not configured", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/donations/{transactionId}/receipt": {
            "get": {
                "description": "Renders the receipt for a recorded donation, identified by its gateway payment id.\nThe donor's email (or the admin token) must accompany the id.",
                "produces": ["application/pdf"],
                "tags": ["Receipts"],
                "summary": "Re-download a recorded receipt",
                "operationId": "downloadReceipt",
                "parameters": [
                    {"type": "string", "example": "pay_1", "description": "Gateway payment id", "name": "transactionId", "in": "path", "required": true},
                    {"type": "string", "example": "asha@example.com", "description": "Donor email; required unless the admin token is sent", "name": "email", "in": "query"},
                    {"type": "string", "description": "Bearer admin token", "name": "Authorization", "in": "header"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "400": {"description": "Missing email", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Donation not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/receipts": {
            "post": {
                "description": "Renders a PDF receipt from the supplied donation fields.",
                "consumes": ["application/json"],
                "produces": ["application/pdf"],
                "tags": ["Receipts"],
                "summary": "Download a receipt",
                "operationId": "renderReceipt",
                "parameters": [
                    {"description": "Receipt fields", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.ReceiptRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}, "headers": {"Content-Disposition": {"type": "string", "description": "attachment; filename=\"donation_receipt_<id>.pdf\""}}},
                    "400": {"description": "Invalid input", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Rendering failed", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.Donation": {
            "type": "object",
            "properties": {
                "amount": {"type": "integer"},
                "createdAt": {"type": "string"},
                "donorName": {"type": "string"},
                "email": {"type": "string"},
                "id": {"type": "string"},
                "orderId": {"type": "string"},
                "pan": {"type": "string"},
                "paymentStatus": {"$ref": "#/definitions/domain.PaymentStatus"},
                "phone": {"type": "string"},
                "receiptSent": {"type": "boolean"},
                "transactionId": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "domain.PaymentStatus": {
            "type": "string",
            "enum": ["pending", "success", "failed"],
            "x-enum-varnames": ["PaymentPending", "PaymentSuccess", "PaymentFailed"]
        },
        "handlers.CompleteDonationRequest": {
            "type": "object",
            "required": ["donorName", "email", "orderId", "paymentId", "phone", "signature"],
            "properties": {
                "amount": {"description": "Amount in whole rupees; must match the order amount.", "type": "integer", "example": 1000},
                "donorName": {"type": "string", "maxLength": 255, "minLength": 2, "example": "Asha Devi"},
                "email": {"type": "string", "maxLength": 255, "example": "asha@example.com"},
                "orderId": {"type": "string", "maxLength": 64, "example": "order_1"},
                "pan": {"type": "string", "example": "ABCDE1234F"},
                "paymentId": {"type": "string", "maxLength": 64, "example": "pay_1"},
                "phone": {"type": "string", "example": "9876543210"},
                "signature": {"type": "string", "example": "9e1b…"}
            }
        },
        "handlers.CreateOrderRequest": {
            "type": "object",
            "properties": {
                "amount": {"description": "Amount in whole rupees, at least 100.", "type": "integer", "example": 1000}
            }
        },
        "handlers.DonationResponse": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/domain.Donation"},
                "replayed": {"description": "Replayed is true when the payment had already been recorded.", "type": "boolean"},
                "success": {"type": "boolean", "example": true}
            }
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"description": "Stable, machine-readable code (see errors.go constants)", "type": "string", "example": "invalid_amount"},
                "error": {"description": "Human-readable message (safe to show to users)", "type": "string", "example": "amount must be at least 100"},
                "message": {"description": "Same text as Error, kept for clients of the generic envelope", "type": "string", "example": "amount must be at least 100"},
                "request_id": {"description": "Correlates server logs and client errors", "type": "string", "example": "123e4567-e89b-12d3-a456-426614174000"},
                "success": {"description": "Always false; lets the donation form treat every body the same way", "type": "boolean", "example": false}
            }
        },
        "handlers.ListDonationsResponse": {
            "type": "object",
            "properties": {
                "donations": {"type": "array", "items": {"$ref": "#/definitions/domain.Donation"}},
                "pagination": {"$ref": "#/definitions/handlers.Pagination"}
            }
        },
        "handlers.Pagination": {
            "type": "object",
            "properties": {
                "has_next": {"type": "boolean"},
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total": {"type": "integer"},
                "total_pages": {"type": "integer"}
            }
        },
        "handlers.ReceiptRequest": {
            "type": "object",
            "required": ["amount", "donorName", "email", "phone", "transactionId"],
            "properties": {
                "amount": {"type": "integer", "example": 1000},
                "date": {"description": "Date is RFC 3339 or YYYY-MM-DD; defaults to now.", "type": "string", "example": "2026-10-18"},
                "donorName": {"type": "string", "maxLength": 255, "example": "Asha Devi"},
                "email": {"type": "string", "maxLength": 255, "example": "asha@example.com"},
                "pan": {"type": "string", "example": "ABCDE1234F"},
                "phone": {"type": "string", "maxLength": 16, "example": "9876543210"},
                "transactionId": {"type": "string", "maxLength": 64, "example": "pay_1"}
            }
        },
        "payments.Order": {
            "type": "object",
            "properties": {
                "amount": {"type": "integer"},
                "currency": {"type": "string"},
                "id": {"type": "string"},
                "receipt": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "AdminToken": {
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
	Title:            "Donation API",
	Description:      "Order creation, donation completion and receipt downloads for Mahila Swashthya Mission.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
