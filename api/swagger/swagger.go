package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Course Registration API",
        "description": "Course registration cart and tuition payment service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Cart", "description": "Course selection and tuition payment"},
        {"name": "Courses", "description": "Course catalog"},
        {"name": "Periods", "description": "Registration period administration"},
        {"name": "Receipts", "description": "Paid-record exports"}
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/classmember": {
            "get": {
                "tags": ["Cart"],
                "summary": "List the caller's cart",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Cart"],
                "summary": "Add a course to the cart",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AddCourseRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already in cart or already paid"},
                    "412": {"description": "Outside registration window"}
                }
            },
            "delete": {
                "tags": ["Cart"],
                "summary": "Remove a course from the cart",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AddCourseRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Course not in cart"},
                    "409": {"description": "Paid items cannot be removed"}
                }
            }
        },
        "/classmember/filter": {
            "get": {
                "tags": ["Cart"],
                "summary": "Filter the cart by status",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classmember/filter-strict": {
            "get": {
                "tags": ["Cart"],
                "summary": "Filter the cart by status within the relevant period",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classmember/save": {
            "post": {
                "tags": ["Cart"],
                "summary": "Confirm the current selection",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classmember/pay": {
            "post": {
                "tags": ["Cart"],
                "summary": "Pay all pending tuition",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PayTuitionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Payment proof missing or outside tuition window"}
                }
            }
        },
        "/classmember/pay/qr": {
            "get": {
                "tags": ["Cart"],
                "summary": "Issue a single-use payment-proof QR",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classmember/paid": {
            "get": {
                "tags": ["Cart"],
                "summary": "List all paid records (admin)",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classmember/paid/export": {
            "post": {
                "tags": ["Receipts"],
                "summary": "Enqueue an export of paid records",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classmember/paid/export/{id}": {
            "get": {
                "tags": ["Receipts"],
                "summary": "Get export job status",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classmember/admin/all": {
            "get": {
                "tags": ["Cart"],
                "summary": "List every cart record (admin)",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classmember/teacher/{courseId}/students": {
            "get": {
                "tags": ["Cart"],
                "summary": "List the students registered in a course",
                "parameters": [
                    {"name": "courseId", "in": "path", "type": "integer", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/course/student/all-courses": {
            "get": {
                "tags": ["Courses"],
                "summary": "List courses the caller may still register",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/registercourse": {
            "get": {
                "tags": ["Periods"],
                "summary": "List registration periods",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Periods"],
                "summary": "Create a registration period",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreatePeriodRequest"}}
                ],
                "responses": {
                    "200": {"description": "Period already exists (notice)"},
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/registercourse/update-time": {
            "put": {
                "tags": ["Periods"],
                "summary": "Edit a period's registration window",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateRegisterTimeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Period changed, re-fetch and retry"},
                    "412": {"description": "Period already expired"}
                }
            }
        },
        "/registercourse/me": {
            "get": {
                "tags": ["Periods"],
                "summary": "Get the period the caller belongs to",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/registercourse/{id}": {
            "get": {
                "tags": ["Periods"],
                "summary": "Get one period with its course breakdown",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/download": {
            "get": {
                "tags": ["Receipts"],
                "summary": "Download an export via signed token",
                "parameters": [
                    {"name": "token", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "403": {"description": "Invalid or expired token"}
                }
            }
        }
    },
    "definitions": {
        "AddCourseRequest": {
            "type": "object",
            "required": ["course_id"],
            "properties": {
                "course_id": {"type": "integer"}
            }
        },
        "PayTuitionRequest": {
            "type": "object",
            "required": ["proof_token"],
            "properties": {
                "proof_token": {"type": "string"}
            }
        },
        "CreatePeriodRequest": {
            "type": "object",
            "required": ["year", "semester", "begin_register", "end_register", "due_date_start", "due_date_end"],
            "properties": {
                "year": {"type": "integer"},
                "semester": {"type": "integer"},
                "begin_register": {"type": "string", "format": "date"},
                "end_register": {"type": "string", "format": "date"},
                "due_date_start": {"type": "string", "format": "date"},
                "due_date_end": {"type": "string", "format": "date"}
            }
        },
        "UpdateRegisterTimeRequest": {
            "type": "object",
            "required": ["begin", "end", "newBegin", "newEnd"],
            "properties": {
                "begin": {"type": "string", "format": "date"},
                "end": {"type": "string", "format": "date"},
                "newBegin": {"type": "string", "format": "date"},
                "newEnd": {"type": "string", "format": "date"}
            }
        },
        "ExportRequest": {
            "type": "object",
            "required": ["format"],
            "properties": {
                "format": {"type": "string", "enum": ["csv", "pdf"]}
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
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
