// Package docs registers the OpenAPI description of the quake map API with swag.
// Regenerate with `swag init -g cmd/api/main.go`.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/v1/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["System"],
                "summary": "Health check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/markers": {
            "get": {
                "description": "Clusters the events of a feed for the visible map area. A clustering failure returns an empty list with meta.degraded set.",
                "produces": ["application/json"],
                "tags": ["Markers"],
                "summary": "Clustered markers for a viewport",
                "parameters": [
                    {"type": "string", "description": "Feed key, e.g. usgs:2.5_day", "name": "feed", "in": "query"},
                    {"type": "number", "default": -180, "description": "West edge in degrees", "name": "west", "in": "query"},
                    {"type": "number", "default": -85, "description": "South edge in degrees", "name": "south", "in": "query"},
                    {"type": "number", "default": 180, "description": "East edge in degrees", "name": "east", "in": "query"},
                    {"type": "number", "default": 85, "description": "North edge in degrees", "name": "north", "in": "query"},
                    {"type": "number", "default": 2, "description": "Map zoom level", "name": "zoom", "in": "query"},
                    {"type": "number", "description": "Drop events below this magnitude", "name": "min_magnitude", "in": "query"},
                    {"type": "string", "description": "Only events newer than this duration, e.g. 6h", "name": "since", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        },
        "/api/v1/markers.geojson": {
            "get": {
                "produces": ["application/geo+json"],
                "tags": ["Markers"],
                "summary": "Clustered markers as GeoJSON",
                "parameters": [
                    {"type": "string", "name": "feed", "in": "query"},
                    {"type": "number", "name": "west", "in": "query"},
                    {"type": "number", "name": "south", "in": "query"},
                    {"type": "number", "name": "east", "in": "query"},
                    {"type": "number", "name": "north", "in": "query"},
                    {"type": "number", "name": "zoom", "in": "query"}
                ],
                "responses": {"200": {"description": "GeoJSON FeatureCollection"}}
            }
        },
        "/api/v1/legend": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Markers"],
                "summary": "Magnitude color legend",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}}}
            }
        },
        "/api/v1/events": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Events"],
                "summary": "List earthquakes of a feed",
                "parameters": [
                    {"type": "string", "name": "feed", "in": "query"},
                    {"type": "number", "name": "min_magnitude", "in": "query"},
                    {"type": "number", "name": "max_magnitude", "in": "query"},
                    {"type": "string", "name": "since", "in": "query"},
                    {"type": "string", "default": "time", "description": "time, magnitude or distance", "name": "sort", "in": "query"},
                    {"type": "number", "name": "near_lat", "in": "query"},
                    {"type": "number", "name": "near_lon", "in": "query"},
                    {"type": "number", "description": "West edge of an area filter; all four edges go together", "name": "west", "in": "query"},
                    {"type": "number", "description": "South edge of an area filter", "name": "south", "in": "query"},
                    {"type": "number", "description": "East edge of an area filter", "name": "east", "in": "query"},
                    {"type": "number", "description": "North edge of an area filter", "name": "north", "in": "query"},
                    {"type": "integer", "default": 100, "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        },
        "/api/v1/events/search": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Events"],
                "summary": "Search the earthquake catalog",
                "parameters": [
                    {"type": "string", "description": "YYYY-MM-DD", "name": "start", "in": "query"},
                    {"type": "string", "description": "YYYY-MM-DD", "name": "end", "in": "query"},
                    {"type": "number", "name": "min_magnitude", "in": "query"},
                    {"type": "number", "name": "west", "in": "query"},
                    {"type": "number", "name": "south", "in": "query"},
                    {"type": "number", "name": "east", "in": "query"},
                    {"type": "number", "name": "north", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        },
        "/api/v1/events/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Events"],
                "summary": "Get one earthquake",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"type": "string", "name": "feed", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        },
        "/api/v1/feeds/{feed}/refresh": {
            "post": {
                "produces": ["application/json"],
                "tags": ["Events"],
                "summary": "Refresh a feed",
                "parameters": [
                    {"type": "string", "name": "feed", "in": "path", "required": true}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        },
        "/api/v1/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Statistics"],
                "summary": "Feed statistics",
                "parameters": [
                    {"type": "string", "name": "feed", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}}
                }
            }
        }
    },
    "definitions": {
        "errors.AppError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "details": {"type": "object", "additionalProperties": true}
            }
        },
        "utils.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"$ref": "#/definitions/errors.AppError"}
            }
        },
        "utils.Meta": {
            "type": "object",
            "properties": {
                "total": {"type": "integer"},
                "limit": {"type": "integer"},
                "feed": {"type": "string"},
                "zoom": {"type": "integer"},
                "time_ms": {"type": "number"},
                "degraded": {"type": "boolean"},
                "reason": {"type": "string"}
            }
        },
        "utils.SuccessResponse": {
            "type": "object",
            "properties": {
                "data": {},
                "meta": {"$ref": "#/definitions/utils.Meta"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Quake Map API",
	Description:      "Recent earthquakes from USGS and PHIVOLCS, clustered into map markers per viewport.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
