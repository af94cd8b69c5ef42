package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Timetable API",
        "description": "School timetable administration: course requirements, automatic and manual placement, meeting locks, weekly grids and exports.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "in": "header", "name": "Authorization"}
    },
    "tags": [
        {"name": "Auth", "description": "Login and session"},
        {"name": "Teachers", "description": "Teacher roster"},
        {"name": "Subjects", "description": "Subject catalogue"},
        {"name": "Classrooms", "description": "Classroom roster"},
        {"name": "Requirements", "description": "Course requirements per classroom"},
        {"name": "Settings", "description": "Active academic term"},
        {"name": "Scheduler", "description": "Automatic and global placement"},
        {"name": "Placement", "description": "Manual timetable edits"},
        {"name": "Meetings", "description": "Meeting slot locks"},
        {"name": "Timetables", "description": "Weekly grid views"},
        {"name": "Exports", "description": "Background CSV/PDF exports"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Login with email and password",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Current user profile",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/scheduler/run": {
            "post": {
                "tags": ["Scheduler"],
                "summary": "Run the automatic placement engine for one classroom",
                "description": "Reset mode is destructive and must be confirmed; the first call previews how many rows would be deleted.",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AutoScheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "No requirements to place"}
                }
            }
        },
        "/scheduler/global": {
            "post": {
                "tags": ["Scheduler"],
                "summary": "Write one activity into the same slot of every classroom",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GlobalPlacementRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/assignments": {
            "post": {
                "tags": ["Placement"],
                "summary": "Place one subject into one timetable cell",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ManualPlacementRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Teacher busy or cell occupied"}
                }
            }
        },
        "/assignments/{id}": {
            "delete": {
                "tags": ["Placement"],
                "summary": "Remove one timetable entry",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/assignments/clear": {
            "post": {
                "tags": ["Placement"],
                "summary": "Clear a classroom's unlocked assignments",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ClearScheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/meetings/lock": {
            "post": {
                "tags": ["Meetings"],
                "summary": "Block a slot for a scope of teachers with a locked meeting entry",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MeetingLockRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/meetings/free": {
            "post": {
                "tags": ["Meetings"],
                "summary": "Remove the scope's rows from one slot",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MeetingFreeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/classrooms/{id}": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Weekly timetable grid for a classroom",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "academicYear", "in": "query", "type": "integer"},
                    {"name": "term", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/teachers/{id}": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Weekly teaching schedule for a teacher",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "academicYear", "in": "query", "type": "integer"},
                    {"name": "term", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports": {
            "post": {
                "tags": ["Exports"],
                "summary": "Queue a timetable export",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/{id}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export job status",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/download/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a finished export by signed token",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "403": {"description": "Expired or invalid token"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "AutoScheduleRequest": {
            "type": "object",
            "properties": {
                "classroomId": {"type": "string"},
                "mode": {"type": "string", "enum": ["reset", "fill"]},
                "confirm": {"type": "boolean"},
                "academicYear": {"type": "integer"},
                "term": {"type": "integer"}
            },
            "required": ["classroomId", "mode"]
        },
        "ManualPlacementRequest": {
            "type": "object",
            "properties": {
                "classroomId": {"type": "string"},
                "subjectId": {"type": "string"},
                "teacherId": {"type": "string"},
                "dayOfWeek": {"type": "string"},
                "slotId": {"type": "integer"},
                "majorGroup": {"type": "string"},
                "isLocked": {"type": "boolean"},
                "allowShared": {"type": "boolean"},
                "academicYear": {"type": "integer"},
                "term": {"type": "integer"}
            },
            "required": ["classroomId", "subjectId", "dayOfWeek", "slotId"]
        },
        "ClearScheduleRequest": {
            "type": "object",
            "properties": {
                "classroomId": {"type": "string"},
                "confirm": {"type": "boolean"},
                "academicYear": {"type": "integer"},
                "term": {"type": "integer"}
            },
            "required": ["classroomId"]
        },
        "GlobalPlacementRequest": {
            "type": "object",
            "properties": {
                "subjectId": {"type": "string"},
                "teacherId": {"type": "string"},
                "dayOfWeek": {"type": "string"},
                "slotId": {"type": "integer"},
                "majorGroup": {"type": "string"},
                "deleteOld": {"type": "boolean"},
                "confirm": {"type": "boolean"},
                "academicYear": {"type": "integer"},
                "term": {"type": "integer"}
            },
            "required": ["subjectId", "dayOfWeek", "slotId"]
        },
        "MeetingLockRequest": {
            "type": "object",
            "properties": {
                "scope": {"type": "string", "enum": ["self", "department", "all"]},
                "teacherId": {"type": "string"},
                "dayOfWeek": {"type": "string"},
                "slotId": {"type": "integer"},
                "note": {"type": "string"},
                "confirm": {"type": "boolean"},
                "academicYear": {"type": "integer"},
                "term": {"type": "integer"}
            },
            "required": ["scope", "teacherId", "dayOfWeek", "slotId"]
        },
        "MeetingFreeRequest": {
            "type": "object",
            "properties": {
                "scope": {"type": "string", "enum": ["self", "department", "all"]},
                "teacherId": {"type": "string"},
                "dayOfWeek": {"type": "string"},
                "slotId": {"type": "integer"},
                "academicYear": {"type": "integer"},
                "term": {"type": "integer"},
                "confirm": {"type": "boolean"}
            },
            "required": ["scope", "teacherId", "dayOfWeek", "slotId"]
        },
        "ExportRequest": {
            "type": "object",
            "properties": {
                "scope": {"type": "string", "enum": ["classroom", "teacher"]},
                "targetId": {"type": "string"},
                "format": {"type": "string", "enum": ["csv", "pdf"]},
                "academicYear": {"type": "integer"},
                "term": {"type": "integer"}
            },
            "required": ["scope", "targetId", "format"]
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
