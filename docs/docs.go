// Package docs holds the OpenAPI description served under /swagger.
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
        "/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register a new user",
                "parameters": [
                    {"description": "User registration details", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.registerRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.userResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Login",
                "parameters": [
                    {"description": "Login credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.loginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.loginResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/users/me": {
            "get": {
                "security": [{"BearerAuth": []}, {"BasicAuth": []}],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Current user profile",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.userResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            },
            "patch": {
                "security": [{"BearerAuth": []}, {"BasicAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Update current user profile",
                "parameters": [
                    {"description": "Fields to change", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.updateProfileRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.userResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/users/set_password": {
            "post": {
                "security": [{"BearerAuth": []}, {"BasicAuth": []}],
                "consumes": ["application/json"],
                "tags": ["users"],
                "summary": "Change password",
                "parameters": [
                    {"description": "Current and new password", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.setPasswordRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/users/me/image": {
            "patch": {
                "security": [{"BearerAuth": []}, {"BasicAuth": []}],
                "consumes": ["multipart/form-data"],
                "tags": ["users"],
                "summary": "Upload avatar",
                "parameters": [
                    {"type": "file", "description": "Avatar picture", "name": "image", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/users/image/{id}": {
            "get": {
                "produces": ["image/png", "image/jpeg", "image/gif", "image/webp"],
                "tags": ["users"],
                "summary": "Get user avatar",
                "parameters": [
                    {"type": "integer", "description": "User id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/ads": {
            "get": {
                "security": [{"BearerAuth": []}, {"BasicAuth": []}],
                "produces": ["application/json"],
                "tags": ["ads"],
                "summary": "List all ads",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.adCollection"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}, {"BasicAuth": []}],
                "consumes": ["application/json", "multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["ads"],
                "summary": "Create an ad",
                "parameters": [
                    {"type": "string", "description": "Client retry key", "name": "Idempotency-Key", "in": "header"},
                    {"type": "string", "description": "Ad properties as JSON (multipart)", "name": "properties", "in": "formData"},
                    {"type": "file", "description": "Ad picture (multipart)", "name": "image", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "Idempotent replay", "schema": {"$ref": "#/definitions/handler.adResponse"}},
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.adResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "409": {"description": "Same Idempotency-Key still in progress", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/ads/me": {
            "get": {
                "security": [{"BearerAuth": []}, {"BasicAuth": []}],
                "produces": ["application/json"],
                "tags": ["ads"],
                "summary": "List the caller's ads",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.adCollection"}}
                }
            }
        },
        "/ads/find/{title}": {
            "get": {
                "security": [{"BearerAuth": []}, {"BasicAuth": []}],
                "produces": ["application/json"],
                "tags": ["ads"],
                "summary": "Search ads by title",
                "parameters": [
                    {"type": "string", "description": "Case-insensitive title fragment", "name": "title", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.adCollection"}}
                }
            }
        },
        "/ads/{id}": {
            "get": {
                "security": [{"BearerAuth": []}, {"BasicAuth": []}],
                "produces": ["application/json"],
                "tags": ["ads"],
                "summary": "Get an ad with its author's contact details",
                "parameters": [
                    {"type": "integer", "description": "Ad id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.extendedAdResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            },
            "patch": {
                "security": [{"BearerAuth": []}, {"BasicAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["ads"],
                "summary": "Update an ad",
                "parameters": [
                    {"type": "integer", "description": "Ad id", "name": "id", "in": "path", "required": true},
                    {"description": "Fields to change", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.updateAdRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.adResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}, {"BasicAuth": []}],
                "tags": ["ads"],
                "summary": "Delete an ad",
                "parameters": [
                    {"type": "integer", "description": "Ad id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/ads/{id}/image": {
            "patch": {
                "security": [{"BearerAuth": []}, {"BasicAuth": []}],
                "consumes": ["multipart/form-data"],
                "tags": ["ads"],
                "summary": "Replace the ad picture",
                "parameters": [
                    {"type": "integer", "description": "Ad id", "name": "id", "in": "path", "required": true},
                    {"type": "file", "description": "Ad picture", "name": "image", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/ads/image/{id}": {
            "get": {
                "produces": ["image/png", "image/jpeg", "image/gif", "image/webp"],
                "tags": ["ads"],
                "summary": "Get the ad picture",
                "parameters": [
                    {"type": "integer", "description": "Ad id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/ads/{id}/comments": {
            "get": {
                "security": [{"BearerAuth": []}, {"BasicAuth": []}],
                "produces": ["application/json"],
                "tags": ["comments"],
                "summary": "List comments of an ad",
                "parameters": [
                    {"type": "integer", "description": "Ad id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.commentCollection"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}, {"BasicAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["comments"],
                "summary": "Comment on an ad",
                "parameters": [
                    {"type": "integer", "description": "Ad id", "name": "id", "in": "path", "required": true},
                    {"description": "Comment", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.commentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.commentResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/ads/{adId}/comments/{commentId}": {
            "get": {
                "security": [{"BearerAuth": []}, {"BasicAuth": []}],
                "produces": ["application/json"],
                "tags": ["comments"],
                "summary": "Get a comment",
                "parameters": [
                    {"type": "integer", "description": "Ad id", "name": "adId", "in": "path", "required": true},
                    {"type": "integer", "description": "Comment id", "name": "commentId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.commentResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            },
            "patch": {
                "security": [{"BearerAuth": []}, {"BasicAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["comments"],
                "summary": "Edit a comment",
                "parameters": [
                    {"type": "integer", "description": "Ad id", "name": "adId", "in": "path", "required": true},
                    {"type": "integer", "description": "Comment id", "name": "commentId", "in": "path", "required": true},
                    {"description": "New text", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.updateCommentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.commentResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}, {"BasicAuth": []}],
                "tags": ["comments"],
                "summary": "Delete a comment",
                "parameters": [
                    {"type": "integer", "description": "Ad id", "name": "adId", "in": "path", "required": true},
                    {"type": "integer", "description": "Comment id", "name": "commentId", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "api.errorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "field": {"type": "string"}
            }
        },
        "handler.registerRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"},
                "firstName": {"type": "string"},
                "lastName": {"type": "string"},
                "phone": {"type": "string"},
                "role": {"type": "string", "enum": ["USER", "ADMIN"]}
            }
        },
        "handler.loginRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "handler.loginResponse": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "user": {"$ref": "#/definitions/handler.userResponse"}
            }
        },
        "handler.updateProfileRequest": {
            "type": "object",
            "properties": {
                "firstName": {"type": "string"},
                "lastName": {"type": "string"},
                "phone": {"type": "string"}
            }
        },
        "handler.setPasswordRequest": {
            "type": "object",
            "properties": {
                "currentPassword": {"type": "string"},
                "newPassword": {"type": "string"}
            }
        },
        "handler.userResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "email": {"type": "string"},
                "firstName": {"type": "string"},
                "lastName": {"type": "string"},
                "phone": {"type": "string"},
                "role": {"type": "string"},
                "image": {"type": "string", "x-nullable": true}
            }
        },
        "handler.updateAdRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "price": {"type": "integer"},
                "description": {"type": "string"}
            }
        },
        "handler.adResponse": {
            "type": "object",
            "properties": {
                "author": {"type": "integer"},
                "image": {"type": "string"},
                "pk": {"type": "integer"},
                "price": {"type": "integer"},
                "title": {"type": "string"}
            }
        },
        "handler.adCollection": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "results": {"type": "array", "items": {"$ref": "#/definitions/handler.adResponse"}}
            }
        },
        "handler.extendedAdResponse": {
            "type": "object",
            "properties": {
                "pk": {"type": "integer"},
                "author": {"type": "integer"},
                "authorFirstName": {"type": "string"},
                "authorLastName": {"type": "string"},
                "description": {"type": "string"},
                "email": {"type": "string"},
                "image": {"type": "string"},
                "phone": {"type": "string"},
                "price": {"type": "integer"},
                "title": {"type": "string"}
            }
        },
        "handler.commentRequest": {
            "type": "object",
            "properties": {
                "text": {"type": "string"}
            }
        },
        "handler.updateCommentRequest": {
            "type": "object",
            "properties": {
                "text": {"type": "string"}
            }
        },
        "handler.commentResponse": {
            "type": "object",
            "properties": {
                "author": {"type": "integer"},
                "authorImage": {"type": "string", "x-nullable": true},
                "authorFirstName": {"type": "string"},
                "createdAt": {"type": "integer", "description": "Unix milliseconds"},
                "pk": {"type": "integer"},
                "text": {"type": "string"}
            }
        },
        "handler.commentCollection": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "results": {"type": "array", "items": {"$ref": "#/definitions/handler.commentResponse"}}
            }
        }
    },
    "securityDefinitions": {
        "BasicAuth": {
            "type": "basic"
        },
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
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Marketplace API",
	Description:      "Classified ads with comments and user profiles.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
