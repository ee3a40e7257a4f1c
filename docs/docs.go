// Package docs holds the OpenAPI document of the scanner API.
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
        "/api/start-scan": {
            "post": {
                "description": "Creates a session that latches the first accepted MRZ verdict",
                "produces": ["application/json"],
                "summary": "Start a scan session",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/models.StartScanResponse"}
                    }
                }
            }
        },
        "/api/scan-frame": {
            "post": {
                "description": "Runs the MRZ pipeline unless the session already holds an accepted verdict",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Submit the recognized text of one camera frame",
                "parameters": [
                    {
                        "description": "recognized text",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/models.ScanFrameRequest"}
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/models.ScanFrameResponse"}
                    },
                    "400": {"description": "Bad Request", "schema": {"type": "string"}},
                    "404": {"description": "Not Found", "schema": {"type": "string"}}
                }
            }
        },
        "/api/scan/{session_id}": {
            "get": {
                "produces": ["application/json"],
                "summary": "Get the accepted verdict of a session",
                "parameters": [
                    {
                        "type": "string",
                        "description": "session id",
                        "name": "session_id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/models.ScanFrameResponse"}
                    },
                    "404": {"description": "Not Found", "schema": {"type": "string"}}
                }
            }
        },
        "/api/issue-passport": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Issue a passport credential from an accepted scan",
                "parameters": [
                    {
                        "description": "session",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/models.IssuePassportRequest"}
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/models.IssuanceResponse"}
                    },
                    "400": {"description": "Bad Request", "schema": {"type": "string"}}
                }
            }
        }
    },
    "definitions": {
        "models.StartScanResponse": {
            "type": "object",
            "properties": {
                "session_id": {"type": "string"}
            }
        },
        "models.ScanFrameRequest": {
            "type": "object",
            "required": ["session_id"],
            "properties": {
                "session_id": {"type": "string"},
                "text": {"type": "string"},
                "lines": {"type": "array", "items": {"type": "string"}}
            }
        },
        "models.ScanFrameResponse": {
            "type": "object",
            "properties": {
                "verdict": {"$ref": "#/definitions/mrz.Verdict"},
                "latched": {"type": "boolean"},
                "message": {"type": "string"}
            }
        },
        "models.IssuePassportRequest": {
            "type": "object",
            "required": ["session_id"],
            "properties": {
                "session_id": {"type": "string"}
            }
        },
        "models.IssuanceResponse": {
            "type": "object",
            "properties": {
                "jwt": {"type": "string"},
                "irma_server_url": {"type": "string"}
            }
        },
        "mrz.Verdict": {
            "type": "object",
            "properties": {
                "outcome": {"type": "string", "enum": ["accepted", "rejected"]},
                "reason": {"type": "string", "enum": ["not_found", "too_short"]},
                "record": {"$ref": "#/definitions/mrz.PassportRecord"},
                "is_expired": {"type": "boolean"},
                "expiry": {"type": "string", "enum": ["valid", "expired", "unknown"]}
            }
        },
        "mrz.PassportRecord": {
            "type": "object",
            "properties": {
                "document_type": {"type": "string"},
                "country_code": {"type": "string"},
                "surname": {"type": "string"},
                "given_names": {"type": "string"},
                "passport_number": {"type": "string"},
                "nationality": {"type": "string"},
                "date_of_birth": {"type": "string"},
                "sex": {"type": "string"},
                "expiration_date": {"type": "string"},
                "personal_number": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Passport MRZ scanner API",
	Description:      "Decodes the machine readable zone of passports from recognized text and issues credentials for accepted scans.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
