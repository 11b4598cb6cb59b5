// Package docs holds the Swagger document served at /swagger/*.
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
        "/media/urlFileUpload": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["media"],
                "summary": "Fetch and store a file by URL",
                "parameters": [
                    {
                        "description": "Source URL and optional file name hint",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handler.urlUploadRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.envelope"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.envelope"}}
                }
            }
        },
        "/media/manuallyImageUpload": {
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["media"],
                "summary": "Upload an image",
                "parameters": [
                    {"type": "file", "description": "Image file", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.envelope"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.envelope"}}
                }
            }
        },
        "/media/manuallyVideoUpload": {
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["media"],
                "summary": "Upload a video",
                "parameters": [
                    {"type": "file", "description": "Video file", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.envelope"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.envelope"}}
                }
            }
        },
        "/media/images": {
            "get": {
                "produces": ["application/json"],
                "tags": ["media"],
                "summary": "List stored images",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.envelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.envelope"}}
                }
            }
        },
        "/media/videos": {
            "get": {
                "produces": ["application/json"],
                "tags": ["media"],
                "summary": "List stored videos",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.envelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.envelope"}}
                }
            }
        },
        "/media/{type}/{fileName}": {
            "get": {
                "produces": ["application/octet-stream"],
                "tags": ["media"],
                "summary": "Stream a stored file",
                "parameters": [
                    {"type": "string", "enum": ["image", "video"], "name": "type", "in": "path", "required": true},
                    {"type": "string", "description": "Stored file name", "name": "fileName", "in": "path", "required": true},
                    {"type": "string", "description": "bytes=<start>-<end>", "name": "Range", "in": "header"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "206": {"description": "Partial Content", "schema": {"type": "file"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.envelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.envelope"}},
                    "416": {"description": "Requested Range Not Satisfiable", "schema": {"$ref": "#/definitions/handler.envelope"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Metadata store readiness",
                "responses": {
                    "200": {"description": "OK"},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.envelope"}}
                }
            }
        },
        "/healthz": {
            "get": {
                "tags": ["health"],
                "summary": "Liveness",
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "handler.envelope": {
            "type": "object",
            "properties": {
                "statusCode": {"type": "integer"},
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "data": {}
            }
        },
        "handler.urlUploadRequest": {
            "type": "object",
            "properties": {
                "fileUrl": {"type": "string"},
                "fileName": {"type": "string"}
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
	Title:            "Media API",
	Description:      "Image and video ingestion with byte-range streaming.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
