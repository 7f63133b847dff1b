/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package presexch

// definitionSchema accepts the presentation definitions this package evaluates: JWT and SD-JWT
// formats, field filters, and submission requirements over descriptor groups.
const definitionSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["presentation_definition"],
  "properties": {"presentation_definition": {"$ref": "#/definitions/definition"}},
  "definitions": {
    "strings": {"type": "array", "items": {"type": "string"}},
    "scalar": {"type": ["number", "string"]},
    "definition": {
      "type": "object",
      "required": ["id", "input_descriptors"],
      "additionalProperties": false,
      "properties": {
        "id": {"type": "string"},
        "name": {"type": "string"},
        "purpose": {"type": "string"},
        "locale": {"type": "string"},
        "format": {"$ref": "#/definitions/format"},
        "submission_requirements": {"type": "array", "items": {"$ref": "#/definitions/requirement"}},
        "input_descriptors": {"type": "array", "minItems": 1, "items": {"$ref": "#/definitions/descriptor"}}
      }
    },
    "format": {
      "type": "object",
      "additionalProperties": false,
      "patternProperties": {
        "^(jwt|jwt_vc|jwt_vp|vc\\+sd-jwt)$": {
          "type": "object",
          "required": ["alg"],
          "additionalProperties": false,
          "properties": {"alg": {"type": "array", "minItems": 1, "items": {"type": "string"}}}
        }
      }
    },
    "requirement": {
      "type": "object",
      "required": ["rule"],
      "oneOf": [{"required": ["from"]}, {"required": ["from_nested"]}],
      "additionalProperties": false,
      "properties": {
        "name": {"type": "string"},
        "purpose": {"type": "string"},
        "rule": {"enum": ["all", "pick"]},
        "count": {"type": "integer", "minimum": 1},
        "min": {"type": "integer", "minimum": 0},
        "max": {"type": "integer", "minimum": 0},
        "from": {"type": "string"},
        "from_nested": {"type": "array", "minItems": 1, "items": {"$ref": "#/definitions/requirement"}}
      }
    },
    "descriptor": {
      "type": "object",
      "required": ["id"],
      "additionalProperties": false,
      "properties": {
        "id": {"type": "string"},
        "name": {"type": "string"},
        "purpose": {"type": "string"},
        "group": {"$ref": "#/definitions/strings"},
        "format": {"$ref": "#/definitions/format"},
        "metadata": {"type": "object"},
        "constraints": {
          "type": "object",
          "additionalProperties": false,
          "properties": {
            "limit_disclosure": {"enum": ["required", "preferred"]},
            "fields": {"type": "array", "items": {"$ref": "#/definitions/field"}}
          }
        }
      }
    },
    "field": {
      "type": "object",
      "required": ["path"],
      "additionalProperties": false,
      "properties": {
        "id": {"type": "string"},
        "name": {"type": "string"},
        "purpose": {"type": "string"},
        "path": {"type": "array", "minItems": 1, "items": {"type": "string"}},
        "optional": {"type": "boolean"},
        "filter": {"$ref": "#/definitions/filter"}
      }
    },
    "filter": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "type": {"type": "string"},
        "format": {"type": "string"},
        "pattern": {"type": "string"},
        "const": {"type": ["number", "string", "boolean"]},
        "enum": {"type": "array", "items": {"$ref": "#/definitions/scalar"}},
        "minimum": {"$ref": "#/definitions/scalar"},
        "maximum": {"$ref": "#/definitions/scalar"},
        "exclusiveMinimum": {"$ref": "#/definitions/scalar"},
        "exclusiveMaximum": {"$ref": "#/definitions/scalar"},
        "minLength": {"type": "integer"},
        "maxLength": {"type": "integer"},
        "not": {"type": "object", "minProperties": 1}
      }
    }
  }
}`
