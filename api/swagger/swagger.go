package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Attendance Dashboard API",
        "description": "Student attendance dashboard backed by the campus portal.",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http",
        "https"
    ],
    "tags": [
        {
            "name": "Attendance",
            "description": "Dashboard, thresholds and exports"
        },
        {
            "name": "Photos",
            "description": "Portal photo proxy"
        },
        {
            "name": "Observability",
            "description": "Probes and metrics"
        }
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Liveness probe",
                "tags": [
                    "Observability"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness probe",
                "tags": [
                    "Observability"
                ],
                "responses": {
                    "200": {
                        "description": "All dependencies ready"
                    },
                    "503": {
                        "description": "A dependency failed its check"
                    }
                }
            }
        },
        "/metrics": {
            "get": {
                "summary": "Prometheus metrics",
                "tags": [
                    "Observability"
                ],
                "produces": [
                    "text/plain"
                ],
                "responses": {
                    "200": {
                        "description": "Prometheus exposition format"
                    }
                }
            }
        },
        "/metrics/summary": {
            "get": {
                "summary": "Service counters",
                "tags": [
                    "Observability"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [],
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
        "/api/v1/attendance/dashboard": {
            "get": {
                "summary": "Student attendance dashboard",
                "tags": [
                    "Attendance"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "X-Student-Id",
                        "in": "header",
                        "type": "string",
                        "required": true,
                        "description": "Admission number"
                    },
                    {
                        "name": "X-User-Id",
                        "in": "header",
                        "type": "string",
                        "required": true,
                        "description": "Portal user id"
                    },
                    {
                        "name": "Authorization",
                        "in": "header",
                        "type": "string",
                        "required": true,
                        "description": "Bearer portal access token"
                    },
                    {
                        "name": "X-Session-Id",
                        "in": "header",
                        "type": "string",
                        "required": true,
                        "description": "Portal session id"
                    },
                    {
                        "name": "X-Token",
                        "in": "header",
                        "type": "string",
                        "required": true,
                        "description": "Portal x_token"
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
                        "description": "Missing session values or bad query",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "401": {
                        "description": "Portal rejected the session",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "502": {
                        "description": "Portal error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "503": {
                        "description": "Portal unreachable",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/attendance/subjects": {
            "get": {
                "summary": "Ranked subject attendance",
                "tags": [
                    "Attendance"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "X-Student-Id",
                        "in": "header",
                        "type": "string",
                        "required": true,
                        "description": "Admission number"
                    },
                    {
                        "name": "X-User-Id",
                        "in": "header",
                        "type": "string",
                        "required": true,
                        "description": "Portal user id"
                    },
                    {
                        "name": "Authorization",
                        "in": "header",
                        "type": "string",
                        "required": true,
                        "description": "Bearer portal access token"
                    },
                    {
                        "name": "X-Session-Id",
                        "in": "header",
                        "type": "string",
                        "required": true,
                        "description": "Portal session id"
                    },
                    {
                        "name": "X-Token",
                        "in": "header",
                        "type": "string",
                        "required": true,
                        "description": "Portal x_token"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "type": "integer",
                        "required": false,
                        "description": "Return only the top N subjects"
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
                        "description": "Missing session values or bad query",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "401": {
                        "description": "Portal rejected the session",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "502": {
                        "description": "Portal error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "503": {
                        "description": "Portal unreachable",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/attendance/pdp": {
            "get": {
                "summary": "PDP attendance summary",
                "tags": [
                    "Attendance"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "X-Student-Id",
                        "in": "header",
                        "type": "string",
                        "required": true,
                        "description": "Admission number"
                    },
                    {
                        "name": "X-User-Id",
                        "in": "header",
                        "type": "string",
                        "required": true,
                        "description": "Portal user id"
                    },
                    {
                        "name": "Authorization",
                        "in": "header",
                        "type": "string",
                        "required": true,
                        "description": "Bearer portal access token"
                    },
                    {
                        "name": "X-Session-Id",
                        "in": "header",
                        "type": "string",
                        "required": true,
                        "description": "Portal session id"
                    },
                    {
                        "name": "X-Token",
                        "in": "header",
                        "type": "string",
                        "required": true,
                        "description": "Portal x_token"
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
                        "description": "Missing session values or bad query",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "401": {
                        "description": "Portal rejected the session",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "502": {
                        "description": "Portal error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "503": {
                        "description": "Portal unreachable",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/attendance/threshold": {
            "get": {
                "summary": "Classes to attend or allowed to miss",
                "tags": [
                    "Attendance"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "X-Student-Id",
                        "in": "header",
                        "type": "string",
                        "required": true,
                        "description": "Admission number"
                    },
                    {
                        "name": "X-User-Id",
                        "in": "header",
                        "type": "string",
                        "required": true,
                        "description": "Portal user id"
                    },
                    {
                        "name": "Authorization",
                        "in": "header",
                        "type": "string",
                        "required": true,
                        "description": "Bearer portal access token"
                    },
                    {
                        "name": "X-Session-Id",
                        "in": "header",
                        "type": "string",
                        "required": true,
                        "description": "Portal session id"
                    },
                    {
                        "name": "X-Token",
                        "in": "header",
                        "type": "string",
                        "required": true,
                        "description": "Portal x_token"
                    },
                    {
                        "name": "subjectId",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "Subject id; overall totals when omitted"
                    },
                    {
                        "name": "threshold",
                        "in": "query",
                        "type": "number",
                        "required": false,
                        "description": "Threshold percent"
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
                        "description": "Unknown subject",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "422": {
                        "description": "Inconsistent counts or threshold",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Missing session values or bad query",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "401": {
                        "description": "Portal rejected the session",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "502": {
                        "description": "Portal error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "503": {
                        "description": "Portal unreachable",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/attendance/calculate": {
            "post": {
                "summary": "What-if threshold calculator",
                "tags": [
                    "Attendance"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CalculateRequest"
                        }
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
                        "description": "Malformed body",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "422": {
                        "description": "Inconsistent counts or threshold",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ]
            }
        },
        "/api/v1/attendance/refresh": {
            "post": {
                "summary": "Rebuild the dashboard bypassing cache",
                "tags": [
                    "Attendance"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "X-Student-Id",
                        "in": "header",
                        "type": "string",
                        "required": true,
                        "description": "Admission number"
                    },
                    {
                        "name": "X-User-Id",
                        "in": "header",
                        "type": "string",
                        "required": true,
                        "description": "Portal user id"
                    },
                    {
                        "name": "Authorization",
                        "in": "header",
                        "type": "string",
                        "required": true,
                        "description": "Bearer portal access token"
                    },
                    {
                        "name": "X-Session-Id",
                        "in": "header",
                        "type": "string",
                        "required": true,
                        "description": "Portal session id"
                    },
                    {
                        "name": "X-Token",
                        "in": "header",
                        "type": "string",
                        "required": true,
                        "description": "Portal x_token"
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
                        "description": "Missing session values or bad query",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "401": {
                        "description": "Portal rejected the session",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "502": {
                        "description": "Portal error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "503": {
                        "description": "Portal unreachable",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/attendance/history": {
            "get": {
                "summary": "Persisted attendance snapshots",
                "tags": [
                    "Attendance"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "X-Student-Id",
                        "in": "header",
                        "type": "string",
                        "required": true,
                        "description": "Admission number"
                    },
                    {
                        "name": "X-User-Id",
                        "in": "header",
                        "type": "string",
                        "required": true,
                        "description": "Portal user id"
                    },
                    {
                        "name": "Authorization",
                        "in": "header",
                        "type": "string",
                        "required": true,
                        "description": "Bearer portal access token"
                    },
                    {
                        "name": "X-Session-Id",
                        "in": "header",
                        "type": "string",
                        "required": true,
                        "description": "Portal session id"
                    },
                    {
                        "name": "X-Token",
                        "in": "header",
                        "type": "string",
                        "required": true,
                        "description": "Portal x_token"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "type": "integer",
                        "required": false,
                        "description": "Maximum snapshots (default 30, max 365)"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "401": {
                        "description": "Portal rejected the session",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "503": {
                        "description": "History not enabled",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/attendance/export": {
            "get": {
                "summary": "Download the subject attendance table",
                "tags": [
                    "Attendance"
                ],
                "produces": [
                    "text/csv",
                    "application/pdf"
                ],
                "parameters": [
                    {
                        "name": "X-Student-Id",
                        "in": "header",
                        "type": "string",
                        "required": true,
                        "description": "Admission number"
                    },
                    {
                        "name": "X-User-Id",
                        "in": "header",
                        "type": "string",
                        "required": true,
                        "description": "Portal user id"
                    },
                    {
                        "name": "Authorization",
                        "in": "header",
                        "type": "string",
                        "required": true,
                        "description": "Bearer portal access token"
                    },
                    {
                        "name": "X-Session-Id",
                        "in": "header",
                        "type": "string",
                        "required": true,
                        "description": "Portal session id"
                    },
                    {
                        "name": "X-Token",
                        "in": "header",
                        "type": "string",
                        "required": true,
                        "description": "Portal x_token"
                    },
                    {
                        "name": "format",
                        "in": "query",
                        "type": "string",
                        "enum": [
                            "csv",
                            "pdf"
                        ],
                        "required": false
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Report file",
                        "schema": {
                            "type": "file"
                        }
                    },
                    "400": {
                        "description": "Unknown format",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/photos/{photoId}": {
            "get": {
                "summary": "Student photo",
                "tags": [
                    "Photos"
                ],
                "produces": [
                    "image/jpeg",
                    "image/png"
                ],
                "parameters": [
                    {
                        "name": "photoId",
                        "in": "path",
                        "type": "string",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Image bytes",
                        "schema": {
                            "type": "file"
                        }
                    },
                    "400": {
                        "description": "Missing photo id",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Unknown photo",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "503": {
                        "description": "Portal unreachable",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "CalculateRequest": {
            "type": "object",
            "required": [
                "total",
                "present"
            ],
            "properties": {
                "total": {
                    "type": "integer"
                },
                "present": {
                    "type": "integer"
                },
                "threshold": {
                    "type": "number"
                }
            }
        },
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
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object"
                },
                "error": {
                    "$ref": "#/definitions/APIError"
                },
                "meta": {
                    "type": "object"
                }
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
