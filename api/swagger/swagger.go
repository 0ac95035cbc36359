package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "CodeAI Tutoring API",
        "description": "Tutoring marketplace: applications, enrollments, portal access and progress reports.",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {
            "name": "Public",
            "description": "Unauthenticated intake"
        },
        {
            "name": "Authentication",
            "description": "ADMIN, INSTRUCTOR and PORTAL tokens"
        },
        {
            "name": "Admin",
            "description": "Back office"
        },
        {
            "name": "Instructor",
            "description": "Instructor workspace"
        },
        {
            "name": "Portal",
            "description": "Student portal"
        },
        {
            "name": "Ops",
            "description": "Probes and metrics"
        }
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": [
                    "Ops"
                ],
                "summary": "Liveness probe",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/ready": {
            "get": {
                "tags": [
                    "Ops"
                ],
                "summary": "Readiness probe (database ping)",
                "responses": {
                    "200": {
                        "description": "Ready"
                    },
                    "503": {
                        "description": "Database unreachable"
                    }
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": [
                    "Ops"
                ],
                "summary": "Prometheus metrics",
                "produces": [
                    "text/plain"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/api/v1/public/student-applications": {
            "post": {
                "tags": [
                    "Public"
                ],
                "summary": "Submit a student application",
                "parameters": [
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateStudentApplicationRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/applications/enroll": {
            "post": {
                "tags": [
                    "Public"
                ],
                "summary": "Submit a student application (v1 form)",
                "parameters": [
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/LegacyEnrollRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/public/instructors": {
            "get": {
                "tags": [
                    "Public"
                ],
                "summary": "List active instructors",
                "parameters": [
                    {
                        "in": "query",
                        "name": "subject",
                        "type": "string"
                    },
                    {
                        "in": "query",
                        "name": "mode",
                        "type": "string",
                        "enum": [
                            "REMOTE",
                            "IN_PERSON_1_1",
                            "IN_PERSON_GROUP"
                        ]
                    },
                    {
                        "in": "query",
                        "name": "region",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/public/student-applications/{id}/select-instructor": {
            "post": {
                "tags": [
                    "Public"
                ],
                "summary": "Pick an instructor for a student application",
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "type": "integer",
                        "required": true
                    },
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/SelectInstructorRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Enrollment created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Application or instructor not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Already enrolled",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/public/instructor-applications": {
            "post": {
                "tags": [
                    "Public"
                ],
                "summary": "Apply as an instructor",
                "parameters": [
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateInstructorApplicationRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/admin/auth/login": {
            "post": {
                "tags": [
                    "Authentication"
                ],
                "summary": "Admin login",
                "parameters": [
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/LoginRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Token",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "401": {
                        "description": "Invalid credentials",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/admin/instructor-applications": {
            "get": {
                "tags": [
                    "Admin"
                ],
                "summary": "List instructor applications",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/admin/instructor-applications/{id}/review": {
            "put": {
                "tags": [
                    "Admin"
                ],
                "summary": "Approve or reject an instructor application",
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "type": "integer",
                        "required": true
                    },
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ReviewRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Reviewed; approval carries a one-time temporary password",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/admin/student-applications": {
            "get": {
                "tags": [
                    "Admin"
                ],
                "summary": "List student applications",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/admin/enrollments": {
            "get": {
                "tags": [
                    "Admin"
                ],
                "summary": "List enrollments",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/admin/enrollments/{id}/set-period": {
            "put": {
                "tags": [
                    "Admin"
                ],
                "summary": "Set lesson period",
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "type": "integer",
                        "required": true
                    },
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/SetPeriodRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Start after end",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/admin/enrollments/{id}/mark-paid": {
            "post": {
                "tags": [
                    "Admin"
                ],
                "summary": "Confirm payment and issue a portal access code",
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "type": "integer",
                        "required": true
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Paid; the plaintext code appears only here",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Status cannot move backward",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/admin/reports": {
            "get": {
                "tags": [
                    "Admin"
                ],
                "summary": "List reports",
                "parameters": [
                    {
                        "in": "query",
                        "name": "status",
                        "type": "string",
                        "enum": [
                            "PENDING",
                            "APPROVED",
                            "REJECTED"
                        ]
                    },
                    {
                        "in": "query",
                        "name": "enrollmentId",
                        "type": "integer"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/admin/reports/{id}/review": {
            "put": {
                "tags": [
                    "Admin"
                ],
                "summary": "Approve or reject a report",
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "type": "integer",
                        "required": true
                    },
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ReviewRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/admin/notifications": {
            "get": {
                "tags": [
                    "Admin"
                ],
                "summary": "Browse the notification ledger",
                "parameters": [
                    {
                        "in": "query",
                        "name": "eventType",
                        "type": "string"
                    },
                    {
                        "in": "query",
                        "name": "phone",
                        "type": "string"
                    },
                    {
                        "in": "query",
                        "name": "limit",
                        "type": "integer"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/instructor/auth/login": {
            "post": {
                "tags": [
                    "Authentication"
                ],
                "summary": "Instructor login",
                "parameters": [
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/LoginRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Token",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "401": {
                        "description": "Invalid credentials",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/instructor/enrollments": {
            "get": {
                "tags": [
                    "Instructor"
                ],
                "summary": "List own enrollments with payments",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/instructor/enrollments/{id}/consult-done": {
            "put": {
                "tags": [
                    "Instructor"
                ],
                "summary": "Record the consultation",
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "type": "integer",
                        "required": true
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "403": {
                        "description": "Not your enrollment",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Status cannot move backward",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/instructor/enrollments/{id}/request-payment": {
            "post": {
                "tags": [
                    "Instructor"
                ],
                "summary": "Request payment from the student",
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "type": "integer",
                        "required": true
                    },
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/RequestPaymentRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Payment recorded",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Amount must be positive",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "403": {
                        "description": "Not your enrollment",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/instructor/reports": {
            "post": {
                "tags": [
                    "Instructor"
                ],
                "summary": "Submit a progress report",
                "parameters": [
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/SubmitReportRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "403": {
                        "description": "Not your enrollment",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/portal/login": {
            "post": {
                "tags": [
                    "Authentication"
                ],
                "summary": "Student portal login",
                "parameters": [
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/PortalLoginRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Token",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "401": {
                        "description": "Invalid phone or code",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "429": {
                        "description": "Too many failed attempts",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/portal/enrollments": {
            "get": {
                "tags": [
                    "Portal"
                ],
                "summary": "List the student's enrollments",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/portal/enrollments/{id}/reports": {
            "get": {
                "tags": [
                    "Portal"
                ],
                "summary": "Approved reports of an enrollment",
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "type": "integer",
                        "required": true
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "403": {
                        "description": "Not your enrollment",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/portal/enrollments/{id}/reports/export": {
            "get": {
                "tags": [
                    "Portal"
                ],
                "summary": "Download approved reports",
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "type": "integer",
                        "required": true
                    },
                    {
                        "in": "query",
                        "name": "format",
                        "type": "string",
                        "enum": [
                            "csv",
                            "pdf"
                        ]
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "text/csv",
                    "application/pdf"
                ],
                "responses": {
                    "200": {
                        "description": "File",
                        "schema": {
                            "type": "file"
                        }
                    },
                    "403": {
                        "description": "Not your enrollment",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "APIError": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "status": {
                    "type": "integer"
                }
            }
        },
        "Page": {
            "type": "object",
            "properties": {
                "limit": {
                    "type": "integer"
                },
                "count": {
                    "type": "integer"
                }
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object"
                },
                "error": {
                    "$ref": "#/definitions/APIError"
                },
                "page": {
                    "$ref": "#/definitions/Page"
                }
            }
        },
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {
                    "type": "string"
                },
                "password": {
                    "type": "string"
                }
            },
            "required": [
                "email",
                "password"
            ]
        },
        "PortalLoginRequest": {
            "type": "object",
            "properties": {
                "phone": {
                    "type": "string"
                },
                "code": {
                    "type": "string",
                    "pattern": "^[0-9]{6}$"
                }
            },
            "required": [
                "phone",
                "code"
            ]
        },
        "LegacyEnrollRequest": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string"
                },
                "phone": {
                    "type": "string"
                },
                "subject": {
                    "type": "string"
                },
                "subjects": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "target": {
                    "type": "string"
                },
                "note": {
                    "type": "string"
                }
            },
            "required": [
                "name",
                "phone"
            ]
        },
        "CreateStudentApplicationRequest": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string"
                },
                "phone": {
                    "type": "string"
                },
                "subjects": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    },
                    "maxItems": 5,
                    "minItems": 1
                },
                "target": {
                    "type": "string"
                },
                "mode": {
                    "type": "string",
                    "enum": [
                        "REMOTE",
                        "IN_PERSON_1_1",
                        "IN_PERSON_GROUP"
                    ]
                },
                "region": {
                    "type": "string"
                },
                "note": {
                    "type": "string"
                }
            },
            "required": [
                "name",
                "phone",
                "subjects",
                "mode"
            ]
        },
        "CreateInstructorApplicationRequest": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string"
                },
                "phone": {
                    "type": "string"
                },
                "email": {
                    "type": "string"
                },
                "subjects": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    },
                    "maxItems": 8,
                    "minItems": 1
                },
                "modes": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    },
                    "maxItems": 3,
                    "minItems": 1
                },
                "region": {
                    "type": "string"
                },
                "education": {
                    "type": "string"
                },
                "career": {
                    "type": "string"
                },
                "major": {
                    "type": "string"
                },
                "age": {
                    "type": "integer"
                },
                "gender": {
                    "type": "string",
                    "enum": [
                        "M",
                        "F",
                        "OTHER"
                    ]
                },
                "photoUrl": {
                    "type": "string"
                }
            },
            "required": [
                "name",
                "phone",
                "email",
                "subjects",
                "modes"
            ]
        },
        "SelectInstructorRequest": {
            "type": "object",
            "properties": {
                "instructorId": {
                    "type": "integer"
                }
            },
            "required": [
                "instructorId"
            ]
        },
        "RequestPaymentRequest": {
            "type": "object",
            "properties": {
                "amount": {
                    "type": "integer",
                    "minimum": 1
                },
                "title": {
                    "type": "string"
                }
            },
            "required": [
                "amount"
            ]
        },
        "SetPeriodRequest": {
            "type": "object",
            "properties": {
                "startDate": {
                    "type": "string",
                    "format": "date"
                },
                "endDate": {
                    "type": "string",
                    "format": "date"
                }
            },
            "required": [
                "startDate",
                "endDate"
            ]
        },
        "ReviewRequest": {
            "type": "object",
            "properties": {
                "status": {
                    "type": "string",
                    "enum": [
                        "APPROVED",
                        "REJECTED"
                    ]
                },
                "note": {
                    "type": "string"
                }
            },
            "required": [
                "status"
            ]
        },
        "SubmitReportRequest": {
            "type": "object",
            "properties": {
                "enrollmentId": {
                    "type": "integer"
                },
                "type": {
                    "type": "string",
                    "enum": [
                        "PROJECT",
                        "ALGORITHM"
                    ]
                },
                "title": {
                    "type": "string"
                },
                "summary": {
                    "type": "string"
                },
                "feedback": {
                    "type": "string"
                },
                "score": {
                    "type": "number"
                },
                "rawData": {
                    "type": "object"
                }
            },
            "required": [
                "enrollmentId",
                "type",
                "title"
            ]
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
