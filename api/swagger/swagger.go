package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Mentor API",
        "description": "Attendance, scoring and progress reporting for tutoring groups",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Groups", "description": "Study groups and membership"},
        {"name": "Students", "description": "Students and payment periods"},
        {"name": "Lessons", "description": "Lessons, sessions and roster synchronization"},
        {"name": "Scores", "description": "Debounced score editing"},
        {"name": "Reports", "description": "Per-student progress reports"},
        {"name": "Statistics", "description": "Group statistics, rankings and at-risk detection"}
    ],
    "paths": {
        "/groups": {
            "get": {
                "tags": ["Groups"],
                "summary": "List groups",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Groups"],
                "summary": "Create group",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GroupRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/groups/statistics": {
            "get": {
                "tags": ["Statistics"],
                "summary": "Per-group statistics",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/groups/{id}": {
            "get": {
                "tags": ["Groups"],
                "summary": "Get group",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["Groups"],
                "summary": "Rename group",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GroupRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Groups"],
                "summary": "Delete group and its memberships",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/groups/{id}/students": {
            "get": {
                "tags": ["Groups"],
                "summary": "List members",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Groups"],
                "summary": "Add member",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GroupMemberRequest"}}
                ],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/groups/{id}/students/statistics": {
            "get": {
                "tags": ["Statistics"],
                "summary": "Ranked student statistics of a group",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "from", "in": "query", "type": "string", "format": "date"},
                    {"name": "to", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/groups/{id}/lessons/statistics": {
            "get": {
                "tags": ["Statistics"],
                "summary": "Per-lesson average scores of a group",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "from", "in": "query", "type": "string", "format": "date"},
                    {"name": "to", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/students/at-risk": {
            "get": {
                "tags": ["Statistics"],
                "summary": "Students flagged by missed lessons or low homework scores",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/students/{id}/payments": {
            "get": {
                "tags": ["Students"],
                "summary": "List payments",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Students"],
                "summary": "Record a payment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PaymentRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/lessons": {
            "get": {
                "tags": ["Lessons"],
                "summary": "List lessons of a group",
                "parameters": [
                    {"name": "group_id", "in": "query", "required": true, "type": "string"},
                    {"name": "from", "in": "query", "type": "string", "format": "date"},
                    {"name": "to", "in": "query", "type": "string", "format": "date"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/lessons/{id}": {
            "get": {
                "tags": ["Lessons"],
                "summary": "Lesson detail with synchronized roster and scores",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "group_id", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Lessons"],
                "summary": "Delete lesson with its attendance, homework and sessions",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/lessons/{id}/scores": {
            "put": {
                "tags": ["Scores"],
                "summary": "Queue score edits",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SaveScoresRequest"}}
                ],
                "responses": {"202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/lessons/{id}/scores/flush": {
            "post": {
                "tags": ["Scores"],
                "summary": "Write pending score edits now",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/sessions/{sessionId}": {
            "delete": {
                "tags": ["Lessons"],
                "summary": "Delete a session and its results",
                "parameters": [{"name": "sessionId", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/reports/students/{id}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Student progress report",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "group_id", "in": "query", "required": true, "type": "string"},
                    {"name": "from", "in": "query", "type": "string", "format": "date"},
                    {"name": "to", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/reports/students/{id}/export": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download student progress report",
                "produces": ["application/pdf", "text/csv"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "group_id", "in": "query", "required": true, "type": "string"},
                    {"name": "from", "in": "query", "type": "string", "format": "date"},
                    {"name": "to", "in": "query", "type": "string", "format": "date"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["pdf", "csv"]}
                ],
                "responses": {"200": {"description": "File"}}
            }
        }
    },
    "definitions": {
        "GroupRequest": {
            "type": "object",
            "properties": {"name": {"type": "string"}},
            "required": ["name"]
        },
        "GroupMemberRequest": {
            "type": "object",
            "properties": {"student_id": {"type": "string"}},
            "required": ["student_id"]
        },
        "PaymentRequest": {
            "type": "object",
            "properties": {
                "amount": {"type": "number"},
                "payment_from_date": {"type": "string", "format": "date-time"},
                "payment_to_date": {"type": "string", "format": "date-time"}
            },
            "required": ["payment_from_date", "payment_to_date"]
        },
        "SaveScoresRequest": {
            "type": "object",
            "properties": {
                "attendance": {"type": "array", "items": {"type": "object", "properties": {"id": {"type": "string"}, "present": {"type": "boolean"}}}},
                "homework": {"type": "array", "items": {"type": "object", "properties": {"id": {"type": "string"}, "score": {"type": "string"}, "note": {"type": "string"}}}},
                "sessions": {"type": "array", "items": {"type": "object", "properties": {"id": {"type": "string"}, "topic": {"type": "string"}, "point_per_correct": {"type": "number"}, "question_capacity": {"type": "integer"}}}},
                "results": {"type": "array", "items": {"type": "object", "properties": {"id": {"type": "string"}, "section": {"type": "string"}, "correct_count": {"type": "string"}}}}
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
