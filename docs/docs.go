// Package docs holds the OpenAPI description served at /swagger.
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
        "/buses": {
            "get": {
                "tags": [
                    "buses"
                ],
                "summary": "List upcoming buses",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "type": "integer",
                        "name": "page",
                        "in": "query"
                    },
                    {
                        "type": "integer",
                        "name": "limit",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "name": "origin",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "name": "destination",
                        "in": "query"
                    }
                ]
            }
        },
        "/buses/{busId}": {
            "get": {
                "tags": [
                    "buses"
                ],
                "summary": "Get a bus",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "name": "busId",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/admin/buses": {
            "post": {
                "tags": [
                    "admin"
                ],
                "summary": "Create a bus",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "type": "object"
                        },
                        "description": "Bus schedule"
                    }
                ]
            }
        },
        "/admin/buses/{busId}": {
            "patch": {
                "tags": [
                    "admin"
                ],
                "summary": "Update a bus",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "name": "busId",
                        "in": "path",
                        "required": true
                    },
                    {
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "type": "object"
                        },
                        "description": "Fields to change"
                    }
                ]
            }
        },
        "/buses/{busId}/seats": {
            "get": {
                "tags": [
                    "seats"
                ],
                "summary": "Seat map of a bus grouped by deck",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "name": "busId",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/admin/buses/{busId}/seats": {
            "post": {
                "tags": [
                    "admin"
                ],
                "summary": "Create seats from a layout",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "name": "busId",
                        "in": "path",
                        "required": true
                    },
                    {
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "type": "object"
                        },
                        "description": "Seat layout"
                    }
                ]
            }
        },
        "/admin/buses/{busId}/seats/{seatId}": {
            "patch": {
                "tags": [
                    "admin"
                ],
                "summary": "Toggle status, set price or sellable flag of a seat",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "name": "busId",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "string",
                        "name": "seatId",
                        "in": "path",
                        "required": true
                    },
                    {
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "type": "object"
                        },
                        "description": "Edit with the version last seen"
                    }
                ]
            }
        },
        "/buses/{busId}/holds": {
            "post": {
                "tags": [
                    "seats"
                ],
                "summary": "Hold seats for the caller until the hold expires",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "name": "busId",
                        "in": "path",
                        "required": true
                    },
                    {
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "type": "object"
                        },
                        "description": "Seat tokens"
                    }
                ]
            }
        },
        "/holds": {
            "get": {
                "tags": [
                    "seats"
                ],
                "summary": "List the caller's live holds",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/holds/{holdId}/validate": {
            "get": {
                "tags": [
                    "seats"
                ],
                "summary": "Check that a hold can still be booked",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "name": "holdId",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/holds/{holdId}": {
            "delete": {
                "tags": [
                    "seats"
                ],
                "summary": "Release a hold",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "name": "holdId",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/buses/{busId}/boarding-points": {
            "get": {
                "tags": [
                    "points"
                ],
                "summary": "Boarding points of a bus, or the default list",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "name": "busId",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/buses/{busId}/dropping-points": {
            "get": {
                "tags": [
                    "points"
                ],
                "summary": "Dropping points of a bus, or the default list",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "name": "busId",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/admin/buses/{busId}/points": {
            "post": {
                "tags": [
                    "admin"
                ],
                "summary": "Add a boarding or dropping point",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "name": "busId",
                        "in": "path",
                        "required": true
                    },
                    {
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "type": "object"
                        },
                        "description": "Point"
                    }
                ]
            }
        },
        "/admin/buses/{busId}/points/{pointId}": {
            "patch": {
                "tags": [
                    "admin"
                ],
                "summary": "Edit a point keeping its id",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "name": "busId",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "string",
                        "name": "pointId",
                        "in": "path",
                        "required": true
                    },
                    {
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "type": "object"
                        },
                        "description": "Fields to change"
                    }
                ]
            },
            "delete": {
                "tags": [
                    "admin"
                ],
                "summary": "Delete a point",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "name": "busId",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "string",
                        "name": "pointId",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/bookings": {
            "post": {
                "tags": [
                    "bookings"
                ],
                "summary": "Confirm a booking from a live seat hold",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "name": "Idempotency-Key",
                        "in": "header"
                    },
                    {
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "type": "object"
                        },
                        "description": "Booking request"
                    }
                ]
            },
            "get": {
                "tags": [
                    "bookings"
                ],
                "summary": "List the caller's bookings",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "integer",
                        "name": "page",
                        "in": "query"
                    },
                    {
                        "type": "integer",
                        "name": "limit",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "name": "status",
                        "in": "query"
                    }
                ]
            }
        },
        "/bookings/{bookingId}": {
            "get": {
                "tags": [
                    "bookings"
                ],
                "summary": "Get a booking",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "name": "bookingId",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/bookings/{bookingId}/cancel": {
            "post": {
                "tags": [
                    "bookings"
                ],
                "summary": "Cancel a booking and release its seats",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "name": "bookingId",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/bookings/{bookingId}/ticket": {
            "get": {
                "tags": [
                    "bookings"
                ],
                "summary": "Download the PDF e-ticket of a confirmed booking",
                "produces": [
                    "application/pdf"
                ],
                "responses": {
                    "200": {
                        "description": "PDF ticket",
                        "schema": {
                            "type": "file"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "name": "bookingId",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/admin/buses/{busId}/bookings": {
            "get": {
                "tags": [
                    "admin"
                ],
                "summary": "List bookings on a bus for its owner",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "name": "busId",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "integer",
                        "name": "page",
                        "in": "query"
                    },
                    {
                        "type": "integer",
                        "name": "limit",
                        "in": "query"
                    }
                ]
            }
        },
        "/admin/buses/{busId}/stats": {
            "get": {
                "tags": [
                    "analytics"
                ],
                "summary": "Seat occupancy, revenue and point usage for one bus",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "name": "busId",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/admin/buses/{busId}/stats/daily": {
            "get": {
                "tags": [
                    "analytics"
                ],
                "summary": "Bookings and revenue per day for one bus",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "name": "busId",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "integer",
                        "description": "Days to include (default 7, max 90)",
                        "name": "days",
                        "in": "query"
                    }
                ]
            }
        }
    },
    "definitions": {
        "response.StandardApiResponse": {
            "type": "object",
            "properties": {
                "status": {
                    "type": "string"
                },
                "status_code": {
                    "type": "integer"
                },
                "message": {
                    "type": "string"
                },
                "data": {},
                "errors": {}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Busline API",
	Description:      "Seat selection, holds and bookings for intercity buses.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
