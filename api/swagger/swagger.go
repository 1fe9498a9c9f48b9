package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Curriculum API",
        "description": "Generates week-by-week curricula from a subject, duration and skill level, optionally grounded in uploaded documents.",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Curricula", "description": "Generation, templates and the saved library"},
        {"name": "Documents", "description": "Source document upload, analysis and search"},
        {"name": "Exports", "description": "File exports and signed downloads"},
        {"name": "Health", "description": "Probes and metrics"}
    ],
    "paths": {
        "/curricula/generate": {
            "post": {
                "tags": ["Curricula"],
                "summary": "Generate a curriculum",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateCurriculumRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Missing or invalid fields", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/curricula/templates": {
            "get": {
                "tags": ["Curricula"],
                "summary": "List curriculum templates",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/curricula/templates/{id}/generate": {
            "post": {
                "tags": ["Curricula"],
                "summary": "Generate a curriculum from a template",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/GenerateFromTemplateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown template", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/curricula": {
            "get": {
                "tags": ["Curricula"],
                "summary": "List saved curricula",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "skillLevel", "in": "query", "type": "string", "enum": ["Beginner", "Intermediate", "Advanced"]},
                    {"name": "status", "in": "query", "type": "string", "enum": ["Draft", "Active", "Completed"]},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Curricula"],
                "summary": "Save a curriculum",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SaveCurriculumRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/curricula/{id}": {
            "get": {
                "tags": ["Curricula"],
                "summary": "Get a saved curriculum",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Curricula"],
                "summary": "Delete a saved curriculum",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/curricula/{id}/status": {
            "patch": {
                "tags": ["Curricula"],
                "summary": "Change status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateCurriculumStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/curricula/export": {
            "post": {
                "tags": ["Exports"],
                "summary": "Render a curriculum to a file",
                "produces": ["application/octet-stream"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportCurriculumRequest"}}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/curricula/{id}/export": {
            "post": {
                "tags": ["Exports"],
                "summary": "Render a saved curriculum and return a signed link",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StoredExportRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/curricula/bulk-export": {
            "post": {
                "tags": ["Exports"],
                "summary": "Queue a bulk export",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkExportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/curricula/bulk-export/{id}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Bulk export job status",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown job", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a stored export",
                "produces": ["application/octet-stream"],
                "parameters": [{"name": "token", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}},
                    "403": {"description": "Invalid or expired link", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/documents": {
            "get": {
                "tags": ["Documents"],
                "summary": "List registered documents",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Documents"],
                "summary": "Upload documents",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "file", "in": "formData", "type": "file"},
                    {"name": "files", "in": "formData", "type": "file"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "No files provided", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "413": {"description": "File too large", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "415": {"description": "Unsupported type", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/documents/search": {
            "get": {
                "tags": ["Documents"],
                "summary": "Full-text document search",
                "parameters": [
                    {"name": "q", "in": "query", "required": true, "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/documents/analyze": {
            "post": {
                "tags": ["Documents"],
                "summary": "Analyze a document or raw text",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AnalyzeDocumentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/documents/{id}": {
            "get": {
                "tags": ["Documents"],
                "summary": "Get a document",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Documents"],
                "summary": "Remove a document",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}}
            }
        }
    },
    "definitions": {
        "SourceDocument": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {"type": "string"},
                "topics": {"type": "array", "items": {"type": "string"}},
                "content": {"type": "string"}
            }
        },
        "GenerateCurriculumRequest": {
            "type": "object",
            "required": ["subject", "duration", "skillLevel"],
            "properties": {
                "subject": {"type": "string", "example": "Cloud Computing"},
                "duration": {"type": "string", "example": "8 weeks"},
                "skillLevel": {"type": "string", "enum": ["Beginner", "Intermediate", "Advanced"]},
                "sourceDocuments": {"type": "array", "items": {"$ref": "#/definitions/SourceDocument"}},
                "documentIds": {"type": "array", "items": {"type": "string"}},
                "customRequirements": {"type": "string"},
                "includeWebResources": {"type": "boolean"}
            }
        },
        "GenerateFromTemplateRequest": {
            "type": "object",
            "properties": {
                "includeWebResources": {"type": "boolean"},
                "documentIds": {"type": "array", "items": {"type": "string"}}
            }
        },
        "SaveCurriculumRequest": {
            "type": "object",
            "required": ["subject", "curriculum"],
            "properties": {
                "subject": {"type": "string"},
                "status": {"type": "string", "enum": ["Draft", "Active", "Completed"]},
                "curriculum": {"type": "object"}
            }
        },
        "UpdateCurriculumStatusRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"type": "string", "enum": ["Draft", "Active", "Completed"]}
            }
        },
        "ExportCurriculumRequest": {
            "type": "object",
            "required": ["curriculum", "format"],
            "properties": {
                "curriculum": {"type": "object"},
                "format": {"type": "string", "enum": ["markdown", "pdf", "docx", "json", "yaml", "csv"]},
                "includeDetails": {"type": "boolean"}
            }
        },
        "StoredExportRequest": {
            "type": "object",
            "required": ["format"],
            "properties": {
                "format": {"type": "string", "enum": ["markdown", "pdf", "docx", "json", "yaml", "csv"]},
                "includeDetails": {"type": "boolean"}
            }
        },
        "BulkExportRequest": {
            "type": "object",
            "required": ["curriculumIds", "format"],
            "properties": {
                "curriculumIds": {"type": "array", "items": {"type": "string"}},
                "format": {"type": "string", "enum": ["markdown", "pdf", "docx", "json", "yaml", "csv"]},
                "includeDetails": {"type": "boolean"}
            }
        },
        "AnalyzeDocumentRequest": {
            "type": "object",
            "properties": {
                "documentId": {"type": "string"},
                "content": {"type": "string"},
                "topics": {"type": "array", "items": {"type": "string"}}
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
