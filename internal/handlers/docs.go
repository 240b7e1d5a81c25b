package handlers

import (
	"encoding/json"
	"net/http"
)

type object = map[string]interface{}

func schemaRef(name string) object {
	return object{"$ref": "#/components/schemas/" + name}
}

func jsonResponse(description string, schema object) object {
	return object{
		"description": description,
		"content": object{
			"application/json": object{"schema": schema},
		},
	}
}

func errorResponse(description string) object {
	return jsonResponse(description, schemaRef("Error"))
}

func intParam(name, in, description string, required bool, extra object) object {
	schema := object{"type": "integer"}
	for k, v := range extra {
		schema[k] = v
	}
	return object{
		"name":        name,
		"in":          in,
		"description": description,
		"required":    required,
		"schema":      schema,
	}
}

var statsSchema = object{
	"type": "object",
	"properties": object{
		"average":           object{"type": "number", "format": "double"},
		"minimum":           object{"type": "integer"},
		"maximum":           object{"type": "integer"},
		"observation_count": object{"type": "integer"},
	},
}

var runSchema = object{
	"type": "object",
	"properties": object{
		"run_id":           object{"type": "string", "format": "uuid"},
		"source":           object{"type": "string"},
		"total_records":    object{"type": "integer"},
		"accepted_records": object{"type": "integer"},
		"rejected_records": object{"type": "integer"},
		"created_at":       object{"type": "string", "format": "date-time"},
	},
}

// OpenAPISpec returns the OpenAPI 3.0 specification for the Temperature Statistics API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	spec := object{
		"openapi": "3.0.0",
		"info": object{
			"title":       "Temperature Statistics API",
			"description": "Monthly and yearly temperature statistics computed from a semicolon-delimited data file",
			"version":     "1.0.0",
		},
		"servers": []object{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"components": object{
			"schemas": object{
				"Stats": statsSchema,
				"Run":   runSchema,
				"Error": object{
					"type": "object",
					"properties": object{
						"error":   object{"type": "string"},
						"message": object{"type": "string"},
						"code":    object{"type": "integer"},
					},
				},
			},
		},
		"paths": object{
			"/api/temperature/stats": object{
				"get": object{
					"summary":     "Statistics for one month",
					"description": "Average, minimum and maximum temperature of the requested month",
					"parameters": []object{
						intParam("month", "query", "Month number", true, object{"minimum": 1, "maximum": 12}),
					},
					"responses": object{
						"200": jsonResponse("Month statistics", object{
							"type": "object",
							"properties": object{
								"run_id": object{"type": "string"},
								"month":  object{"type": "integer"},
								"stats":  schemaRef("Stats"),
							},
						}),
						"400": errorResponse("Month missing or outside 1..12"),
						"404": errorResponse("No observations for the month"),
						"503": errorResponse("No analysis available yet"),
					},
				},
			},
			"/api/temperature/stats/monthly": object{
				"get": object{
					"summary":     "Statistics for every month",
					"description": "Twelve entries in calendar order; stats is null for months without data",
					"responses": object{
						"200": jsonResponse("Monthly statistics", object{
							"type": "object",
							"properties": object{
								"run_id": object{"type": "string"},
								"months": object{
									"type": "array",
									"items": object{
										"type": "object",
										"properties": object{
											"month": object{"type": "integer"},
											"stats": object{"allOf": []object{schemaRef("Stats")}, "nullable": true},
										},
									},
								},
							},
						}),
						"503": errorResponse("No analysis available yet"),
					},
				},
			},
			"/api/temperature/stats/yearly": object{
				"get": object{
					"summary":     "Statistics for the whole file",
					"description": "Statistics over every accepted observation",
					"responses": object{
						"200": jsonResponse("Yearly statistics", object{
							"type": "object",
							"properties": object{
								"run_id": object{"type": "string"},
								"stats":  schemaRef("Stats"),
							},
						}),
						"404": errorResponse("No valid temperature data"),
						"503": errorResponse("No analysis available yet"),
					},
				},
			},
			"/api/temperature/rejections": object{
				"get": object{
					"summary":     "Rejected records",
					"description": "Records skipped during the latest analysis, in input order",
					"responses": object{
						"200": jsonResponse("Rejected records", object{
							"type": "object",
							"properties": object{
								"run_id": object{"type": "string"},
								"total":  object{"type": "integer"},
								"rejections": object{
									"type": "array",
									"items": object{
										"type": "object",
										"properties": object{
											"line":     object{"type": "integer"},
											"kind":     object{"type": "string", "enum": []string{"structural", "conversion", "month_range", "temperature_range"}},
											"reason":   object{"type": "string"},
											"value":    object{"type": "integer", "description": "Offending month or temperature for range errors"},
											"contents": object{"type": "array", "items": object{"type": "string"}},
										},
									},
								},
							},
						}),
						"503": errorResponse("No analysis available yet"),
					},
				},
			},
			"/api/runs": object{
				"get": object{
					"summary":     "Persisted analysis runs",
					"description": "Available when database persistence is enabled; newest first",
					"parameters": []object{
						intParam("page", "query", "Page number (default: 1)", false, object{"default": 1}),
						intParam("limit", "query", "Runs per page (default: 50, max: 500)", false, object{"default": 50}),
					},
					"responses": object{
						"200": jsonResponse("Runs", object{"type": "array", "items": schemaRef("Run")}),
						"500": errorResponse("Database error"),
					},
				},
			},
			"/api/runs/{id}": object{
				"get": object{
					"summary":     "One persisted run",
					"description": "Run metadata with its monthly and yearly statistics",
					"parameters": []object{
						{
							"name":     "id",
							"in":       "path",
							"required": true,
							"schema":   object{"type": "string", "format": "uuid"},
						},
					},
					"responses": object{
						"200": jsonResponse("Run details", object{
							"type": "object",
							"properties": object{
								"run":     schemaRef("Run"),
								"monthly": object{"type": "array", "items": schemaRef("Stats")},
								"yearly":  schemaRef("Stats"),
							},
						}),
						"400": errorResponse("Run id is not a UUID"),
						"404": errorResponse("Unknown run"),
					},
				},
			},
			"/health": object{
				"get": object{
					"summary":     "Health check",
					"description": "Reports whether a snapshot is loaded and the database is reachable",
					"responses": object{
						"200": jsonResponse("Healthy", object{
							"type":       "object",
							"properties": object{"status": object{"type": "string"}},
						}),
						"503": jsonResponse("Starting or degraded", object{
							"type":       "object",
							"properties": object{"status": object{"type": "string"}},
						}),
					},
				},
			},
			"/metrics": object{
				"get": object{
					"summary":     "Prometheus metrics",
					"description": "Prometheus metrics endpoint for monitoring",
					"responses": object{
						"200": object{
							"description": "Prometheus metrics in text format",
							"content": object{
								"text/plain": object{"schema": object{"type": "string"}},
							},
						},
					},
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(spec)
}
