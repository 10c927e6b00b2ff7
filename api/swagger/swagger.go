package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Tutoring Center API",
        "description": "Fee computation, installment scheduling and invoicing for tutoring center students",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Students", "description": "Student roster management"},
        {"name": "Fees", "description": "Fee computation and pricing state"},
        {"name": "Installments", "description": "Installment plan and payments"},
        {"name": "Invoices", "description": "Asynchronous invoice exports"},
        {"name": "Audit", "description": "Audit trail of fee mutations"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/api/v1/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "branch", "in": "query", "type": "string"},
                    {"name": "board", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string"},
                    {"name": "order", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Students"],
                "summary": "Register student",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateStudentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/students/{id}": {
            "get": {
                "tags": ["Students"],
                "summary": "Get student detail",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Students"],
                "summary": "Update student",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateStudentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Students"],
                "summary": "Deactivate student",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deactivated"}
                }
            }
        },
        "/api/v1/students/{id}/fees": {
            "get": {
                "tags": ["Fees"],
                "summary": "Get saved fee state",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Fees"],
                "summary": "Recompute and save fee state",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/FeeUpdateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/students/{id}/fees/preview": {
            "post": {
                "tags": ["Fees"],
                "summary": "Preview a fee breakdown without saving",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/FeeUpdateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/students/{id}/installments": {
            "post": {
                "tags": ["Installments"],
                "summary": "Append an installment slot",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/students/{id}/installments/{seq}": {
            "delete": {
                "tags": ["Installments"],
                "summary": "Remove an unpaid installment slot",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "seq", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Installment settled"}
                }
            }
        },
        "/api/v1/students/{id}/installments/{seq}/payment": {
            "post": {
                "tags": ["Installments"],
                "summary": "Record a payment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "seq", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PaymentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Installment settled"}
                }
            }
        },
        "/api/v1/students/{id}/audit": {
            "get": {
                "tags": ["Audit"],
                "summary": "List audit entries for a student",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "resource", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/students/{id}/invoices": {
            "post": {
                "tags": ["Invoices"],
                "summary": "Queue an invoice export",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/invoices/jobs/{jobId}": {
            "get": {
                "tags": ["Invoices"],
                "summary": "Get invoice job status",
                "parameters": [
                    {"name": "jobId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/invoices/download/{token}": {
            "get": {
                "tags": ["Invoices"],
                "summary": "Download a rendered invoice",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "403": {"description": "Invalid token"}
                }
            }
        }
    },
    "definitions": {
        "CreateStudentRequest": {
            "type": "object",
            "required": ["full_name", "branch", "board", "grade", "phone"],
            "properties": {
                "full_name": {"type": "string"},
                "branch": {"type": "string"},
                "board": {"type": "string"},
                "grade": {"type": "string"},
                "guardian_name": {"type": "string"},
                "phone": {"type": "string"}
            }
        },
        "UpdateStudentRequest": {
            "type": "object",
            "required": ["full_name", "branch", "board", "grade", "phone"],
            "properties": {
                "full_name": {"type": "string"},
                "branch": {"type": "string"},
                "board": {"type": "string"},
                "grade": {"type": "string"},
                "guardian_name": {"type": "string"},
                "phone": {"type": "string"},
                "active": {"type": "boolean"}
            }
        },
        "FeeUpdateRequest": {
            "type": "object",
            "required": ["subjects"],
            "properties": {
                "subjects": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "required": ["name"],
                        "properties": {
                            "name": {"type": "string"},
                            "start_date": {"type": "string", "format": "date-time"},
                            "end_date": {"type": "string", "format": "date-time"}
                        }
                    }
                },
                "gst_applied": {"type": "boolean"},
                "gst_percentage": {"type": "number"},
                "scholarship_applied": {"type": "boolean"},
                "scholarship_percentage": {"type": "number"},
                "one_to_one_applied": {"type": "boolean"},
                "one_to_one_percentage": {"type": "number"},
                "custom_total": {"type": "number"}
            }
        },
        "PaymentRequest": {
            "type": "object",
            "required": ["amount", "paid_date", "payment_type"],
            "properties": {
                "amount": {"type": "number"},
                "paid_date": {"type": "string", "format": "date-time"},
                "payment_type": {"type": "string", "enum": ["cash", "upi", "bank_transfer", "cheque", "card", "other"]},
                "notes": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
