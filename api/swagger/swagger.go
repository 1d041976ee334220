// Package swagger registers the hand-maintained OpenAPI document served at /docs.
package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Attendance Register API",
        "description": "Student roster and daily attendance register",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Students", "description": "Roster management"},
        {"name": "Attendance", "description": "Daily attendance marks and summary"},
        {"name": "Reports", "description": "CSV and PDF attendance sheets"},
        {"name": "Legacy", "description": "JSON endpoints used by the page scripts"},
        {"name": "Ops", "description": "Health, readiness and metrics"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Ops"],
                "summary": "Health check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/ready": {
            "get": {
                "tags": ["Ops"],
                "summary": "Readiness check (pings the database)",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Database unreachable"}
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": ["Ops"],
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {"200": {"description": "Metrics in exposition format"}}
            }
        },
        "/api/mark-attendance": {
            "post": {
                "tags": ["Legacy"],
                "summary": "Mark attendance",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/LegacyMarkRequest"}}
                ],
                "responses": {
                    "200": {"description": "Marked", "schema": {"$ref": "#/definitions/LegacyResult"}},
                    "400": {"description": "Missing fields, invalid value or store failure", "schema": {"$ref": "#/definitions/LegacyResult"}},
                    "500": {"description": "Malformed request", "schema": {"$ref": "#/definitions/LegacyResult"}}
                }
            }
        },
        "/api/attendance-date": {
            "get": {
                "tags": ["Legacy"],
                "summary": "Attendance for a day",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "query", "name": "date", "type": "string", "required": true, "description": "YYYY-MM-DD"}
                ],
                "responses": {
                    "200": {"description": "Joined rows ordered by roll number", "schema": {"type": "array", "items": {"$ref": "#/definitions/AttendanceRecordWithStudent"}}},
                    "400": {"description": "Date parameter required"}
                }
            }
        },
        "/api/v1/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students ordered by roll number",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Students"],
                "summary": "Register student",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/CreateStudentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Roll number already exists", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/students/{id}": {
            "get": {
                "tags": ["Students"],
                "summary": "Get student",
                "produces": ["application/json"],
                "parameters": [{"in": "path", "name": "id", "type": "integer", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Students"],
                "summary": "Delete student and attendance history",
                "parameters": [{"in": "path", "name": "id", "type": "integer", "required": true}],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/students/{id}/attendance": {
            "get": {
                "tags": ["Students"],
                "summary": "Student attendance history, most recent first",
                "produces": ["application/json"],
                "parameters": [{"in": "path", "name": "id", "type": "integer", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/attendance": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Attendance for a day",
                "produces": ["application/json"],
                "parameters": [{"in": "query", "name": "date", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Attendance"],
                "summary": "Mark attendance, replacing an earlier mark for the same day",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/MarkAttendanceRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "500": {"description": "Store failure", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/attendance/summary": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Today's totals; meta.cache_hit reports cache use",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/attendance/rates": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Attendance rate per student over a date range",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "query", "name": "from", "type": "string", "description": "Defaults to 29 days before to"},
                    {"in": "query", "name": "to", "type": "string", "description": "Defaults to today"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid range", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/reports/daily": {
            "get": {
                "tags": ["Reports"],
                "summary": "Daily attendance sheet",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"in": "query", "name": "date", "type": "string", "description": "Defaults to today"},
                    {"in": "query", "name": "format", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {"200": {"description": "File download"}}
            }
        },
        "/api/v1/reports/students/{id}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Student attendance history sheet",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"in": "path", "name": "id", "type": "integer", "required": true},
                    {"in": "query", "name": "format", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File download"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CreateStudentRequest": {
            "type": "object",
            "required": ["roll_number", "name", "email"],
            "properties": {
                "roll_number": {"type": "string"},
                "name": {"type": "string"},
                "email": {"type": "string"}
            }
        },
        "MarkAttendanceRequest": {
            "type": "object",
            "required": ["student_id", "date", "status"],
            "properties": {
                "student_id": {"type": "integer"},
                "date": {"type": "string", "example": "2024-01-15"},
                "status": {"type": "string", "enum": ["Present", "Absent"]},
                "remarks": {"type": "string"}
            }
        },
        "LegacyMarkRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "integer"},
                "date": {"type": "string"},
                "status": {"type": "string"},
                "remarks": {"type": "string"}
            }
        },
        "LegacyResult": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"}
            }
        },
        "AttendanceRecordWithStudent": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "student_id": {"type": "integer"},
                "date": {"type": "string"},
                "status": {"type": "string"},
                "remarks": {"type": "string"},
                "created_at": {"type": "string", "format": "date-time"},
                "name": {"type": "string"},
                "roll_number": {"type": "string"}
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
